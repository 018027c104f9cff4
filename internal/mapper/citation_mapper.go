package mapper

import (
	"encoding/json"
	"time"

	"ai-writing-be/internal/entity"
	"ai-writing-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CitationMapper struct{}

func NewCitationMapper() *CitationMapper {
	return &CitationMapper{}
}

func (m *CitationMapper) ToEntity(c *model.Citation) *entity.Citation {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	var metadata json.RawMessage
	if len(c.Metadata) > 0 {
		metadata = json.RawMessage(c.Metadata)
	}

	return &entity.Citation{
		Id:         c.Id,
		HistoryId:  c.HistoryId,
		UserId:     c.UserId,
		Mode:       entity.CitationMode(c.Mode),
		Identifier: c.Identifier,
		InputText:  c.InputText,
		Metadata:   metadata,
		Style:      c.Style,
		Text:       c.Text,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  c.DeletedAt.Valid,
	}
}

func (m *CitationMapper) ToModel(c *entity.Citation) *model.Citation {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	} else if c.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	var metadata datatypes.JSON
	if len(c.Metadata) > 0 {
		metadata = datatypes.JSON(c.Metadata)
	}

	return &model.Citation{
		Id:         c.Id,
		HistoryId:  c.HistoryId,
		UserId:     c.UserId,
		Mode:       string(c.Mode),
		Identifier: c.Identifier,
		InputText:  c.InputText,
		Metadata:   metadata,
		Style:      c.Style,
		Text:       c.Text,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
	}
}

func (m *CitationMapper) ToEntities(models []*model.Citation) []*entity.Citation {
	entities := make([]*entity.Citation, 0, len(models))
	for _, c := range models {
		entities = append(entities, m.ToEntity(c))
	}
	return entities
}
