package service

import (
	"context"
	"errors"
	"sync"

	"ai-writing-be/internal/entity"
	"ai-writing-be/internal/repository/contract"
	"ai-writing-be/internal/repository/specification"
	"ai-writing-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// fakeCitationRepository keeps citations in memory. Specifications are
// matched by type since there is no SQL behind them.
type fakeCitationRepository struct {
	mu        sync.Mutex
	citations []*entity.Citation
	createErr error
}

func (r *fakeCitationRepository) Create(ctx context.Context, c *entity.Citation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *c
	r.citations = append(r.citations, &cp)
	return nil
}

func (r *fakeCitationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return errors.New("not implemented")
}

func (r *fakeCitationRepository) matches(c *entity.Citation, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if c.Id != s.ID {
				return false
			}
		case specification.UserOwnedBy:
			if c.UserId != s.UserID {
				return false
			}
		case specification.ByHistoryID:
			if c.HistoryId != s.HistoryID {
				return false
			}
		}
	}
	return true
}

func (r *fakeCitationRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Citation, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeCitationRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Citation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Citation
	for _, c := range r.citations {
		if r.matches(c, specs) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCitationRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

type fakeUnitOfWork struct {
	repo *fakeCitationRepository
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                   { return nil }
func (u *fakeUnitOfWork) Rollback() error                 { return nil }

func (u *fakeUnitOfWork) CitationRepository() contract.CitationRepository {
	return u.repo
}

type fakeFactory struct {
	repo *fakeCitationRepository
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{repo: f.repo}
}

type recordedEvent struct {
	kind      string
	citeId    string
	historyId string
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) CitationCreated(ctx context.Context, citeId, historyId, userId, style, mode string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{kind: "created", citeId: citeId, historyId: historyId})
}

func (f *fakeEvents) SessionStarted(ctx context.Context, historyId, userId string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{kind: "session", historyId: historyId})
}
