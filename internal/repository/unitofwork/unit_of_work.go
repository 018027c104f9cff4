package unitofwork

import (
	"context"

	"ai-writing-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	CitationRepository() contract.CitationRepository
}
