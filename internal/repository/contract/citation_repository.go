package contract

import (
	"context"

	"ai-writing-be/internal/entity"
	"ai-writing-be/internal/repository/specification"

	"github.com/google/uuid"
)

type CitationRepository interface {
	Create(ctx context.Context, citation *entity.Citation) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Citation, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Citation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
