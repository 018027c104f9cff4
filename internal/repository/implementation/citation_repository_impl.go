package implementation

import (
	"context"
	"errors"

	"ai-writing-be/internal/entity"
	"ai-writing-be/internal/mapper"
	"ai-writing-be/internal/model"
	"ai-writing-be/internal/repository/contract"
	"ai-writing-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CitationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CitationMapper
}

func NewCitationRepository(db *gorm.DB) contract.CitationRepository {
	return &CitationRepositoryImpl{
		db:     db,
		mapper: mapper.NewCitationMapper(),
	}
}

func (r *CitationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *CitationRepositoryImpl) Create(ctx context.Context, citation *entity.Citation) error {
	m := r.mapper.ToModel(citation)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*citation = *r.mapper.ToEntity(m)
	return nil
}

func (r *CitationRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Citation{}, id).Error
}

func (r *CitationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Citation, error) {
	var m model.Citation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *CitationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Citation, error) {
	var models []*model.Citation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *CitationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Citation{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
