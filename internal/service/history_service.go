package service

import (
	"context"
	"fmt"

	"ai-writing-be/internal/entity"
	"ai-writing-be/internal/pkg/logger"
	"ai-writing-be/internal/repository/specification"
	"ai-writing-be/internal/repository/unitofwork"
	"ai-writing-be/pkg/citation/pipeline"

	"github.com/google/uuid"
)

// IHistoryService stores rendered citations against their work session and
// reads them back. It is the pipeline's persistence collaborator.
type IHistoryService interface {
	SubmitCitation(ctx context.Context, rec *pipeline.Record) (string, error)
	GetCitation(ctx context.Context, userId, citeId uuid.UUID) (*entity.Citation, error)
	ListByHistory(ctx context.Context, userId, historyId uuid.UUID) ([]*entity.Citation, error)
}

type historyService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewHistoryService(uowFactory unitofwork.RepositoryFactory, logger logger.ILogger) IHistoryService {
	return &historyService{
		uowFactory: uowFactory,
		logger:     logger,
	}
}

func (s *historyService) SubmitCitation(ctx context.Context, rec *pipeline.Record) (string, error) {
	historyId, err := uuid.Parse(rec.HistoryID)
	if err != nil {
		return "", fmt.Errorf("history id %q: %w", rec.HistoryID, err)
	}
	userId, err := uuid.Parse(rec.UserID)
	if err != nil {
		return "", fmt.Errorf("user id %q: %w", rec.UserID, err)
	}

	citation := &entity.Citation{
		Id:         uuid.New(),
		HistoryId:  historyId,
		UserId:     userId,
		Mode:       entity.CitationMode(rec.Mode),
		Identifier: rec.Identifier,
		InputText:  rec.InputText,
		Metadata:   []byte(rec.Metadata),
		Style:      rec.Style,
		Text:       rec.Text,
		CreatedAt:  rec.CreatedAt,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.CitationRepository().Create(ctx, citation); err != nil {
		s.logger.Error("HISTORY", "Failed to store citation", map[string]interface{}{
			"history_id": rec.HistoryID,
			"style":      rec.Style,
			"error":      err.Error(),
		})
		return "", err
	}

	s.logger.Debug("HISTORY", "Citation stored", map[string]interface{}{
		"cite_id":    citation.Id.String(),
		"history_id": rec.HistoryID,
	})
	return citation.Id.String(), nil
}

// GetCitation returns nil when the citation does not exist or belongs to
// another user.
func (s *historyService) GetCitation(ctx context.Context, userId, citeId uuid.UUID) (*entity.Citation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.CitationRepository().FindOne(ctx,
		specification.ByID{ID: citeId},
		specification.UserOwnedBy{UserID: userId},
	)
}

func (s *historyService) ListByHistory(ctx context.Context, userId, historyId uuid.UUID) ([]*entity.Citation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.CitationRepository().FindAll(ctx,
		specification.ByHistoryID{HistoryID: historyId},
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at"},
	)
}
