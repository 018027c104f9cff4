package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-writing-be/internal/dto"
	"ai-writing-be/internal/pkg/logger"
	"ai-writing-be/internal/repository/memory"
	"ai-writing-be/pkg/citation"
	"ai-writing-be/pkg/citation/csl"
	"ai-writing-be/pkg/citation/pipeline"
	"ai-writing-be/pkg/citation/render"
	"ai-writing-be/pkg/citation/style"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	calls int
	err   error
}

func (r *stubResolver) Resolve(ctx context.Context, identifier string) (csl.Metadata, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return csl.Metadata(`{"title":"Example Work","author":[{"family":"Doe","given":"Jane"}],"issued":{"date-parts":[[2021]]}}`), nil
}

type serviceFixture struct {
	resolver *stubResolver
	sessions *memory.SessionRepository
	repo     *fakeCitationRepository
	events   *fakeEvents
	svc      ICitationService
	user     uuid.UUID
}

func newServiceFixture() *serviceFixture {
	nop := logger.NewNopLogger()
	f := &serviceFixture{
		resolver: &stubResolver{},
		sessions: memory.NewSessionRepository(time.Hour),
		repo:     &fakeCitationRepository{},
		events:   &fakeEvents{},
		user:     uuid.New(),
	}
	cache := style.NewCache(style.NewDirFetcher("../../web/csl"), nop)
	renderer := render.New(cache, nop)
	history := NewHistoryService(&fakeFactory{repo: f.repo}, nop)
	orch := pipeline.New(f.resolver, renderer, f.sessions, history, nop)
	f.svc = NewCitationService(orch, f.resolver, renderer, cache, f.sessions, history, f.events, nop)
	return f
}

func TestQuickRendersApaWithoutPersisting(t *testing.T) {
	f := newServiceFixture()

	res, err := f.svc.Quick(context.Background(), "10.1000/xyz123")
	require.NoError(t, err)
	assert.Equal(t, "Doe, J. (2021). Example Work.", res.Apa)
	assert.Empty(t, f.repo.citations)
	assert.Empty(t, f.events.events)
}

func TestQuickRejectsEmptyIdentifier(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.Quick(context.Background(), " ")
	assert.Equal(t, citation.KindValidation, citation.KindOf(err))
	assert.Equal(t, 0, f.resolver.calls)
}

func TestCreateStartsSessionAndPersists(t *testing.T) {
	f := newServiceFixture()

	res, err := f.svc.Create(context.Background(), f.user, &dto.CreateCitationRequest{Identifier: "10.1000/xyz123", Style: "APA"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.HistoryId)
	require.NotNil(t, res.CiteId)
	assert.Equal(t, "apa", res.Style)
	assert.Equal(t, "Doe, J. (2021). Example Work.", res.Text)
	assert.Equal(t, 1, res.Used)
	assert.Equal(t, citation.SessionCap-1, res.Remaining)
	assert.Empty(t, res.Warning)

	require.Len(t, f.repo.citations, 1)
	assert.Equal(t, *res.CiteId, f.repo.citations[0].Id)

	require.Len(t, f.events.events, 2)
	assert.Equal(t, "session", f.events.events[0].kind)
	assert.Equal(t, "created", f.events.events[1].kind)
	assert.Equal(t, res.CiteId.String(), f.events.events[1].citeId)
}

func TestCreateHitsSessionCap(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, f.user)
	require.NoError(t, err)

	for i := 0; i < citation.SessionCap; i++ {
		_, err := f.svc.Create(ctx, f.user, &dto.CreateCitationRequest{HistoryId: session.HistoryId, Identifier: "10.1000/xyz123", Style: "apa"})
		require.NoError(t, err)
	}

	_, err = f.svc.Create(ctx, f.user, &dto.CreateCitationRequest{HistoryId: session.HistoryId, Identifier: "10.1000/xyz123", Style: "apa"})
	assert.ErrorIs(t, err, citation.ErrLimitReached)
	assert.Equal(t, citation.SessionCap, f.resolver.calls)

	status, err := f.svc.SessionStatus(ctx, f.user, session.HistoryId)
	require.NoError(t, err)
	assert.Equal(t, citation.SessionCap, status.Used)
	assert.Equal(t, 0, status.Remaining)
}

func TestSessionsBelongToTheirOwner(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	other := uuid.New()

	session, err := f.svc.StartSession(ctx, f.user)
	require.NoError(t, err)

	_, err = f.svc.SessionStatus(ctx, other, session.HistoryId)
	assert.ErrorIs(t, err, citation.ErrUnknownSession)

	_, err = f.svc.Create(ctx, other, &dto.CreateCitationRequest{HistoryId: session.HistoryId, Identifier: "10.1000/xyz123", Style: "apa"})
	assert.ErrorIs(t, err, citation.ErrUnknownSession)
	assert.Equal(t, 0, f.resolver.calls)
	assert.Empty(t, f.repo.citations)

	status, err := f.svc.SessionStatus(ctx, f.user, session.HistoryId)
	require.NoError(t, err)
	assert.Equal(t, 0, status.Used)
}

func TestUnknownHistoryIdIsRejected(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	_, err := f.svc.SessionStatus(ctx, f.user, uuid.NewString())
	assert.Equal(t, citation.KindValidation, citation.KindOf(err))

	_, err = f.svc.Convert(ctx, f.user, &dto.ConvertCitationRequest{HistoryId: uuid.NewString(), Text: `{"title":"Example Work"}`, Style: "apa"})
	assert.ErrorIs(t, err, citation.ErrUnknownSession)
	assert.Empty(t, f.repo.citations)
}

func TestNewSessionResetsAllowance(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	first, _ := f.svc.StartSession(ctx, f.user)
	_, err := f.svc.Create(ctx, f.user, &dto.CreateCitationRequest{HistoryId: first.HistoryId, Identifier: "10.1000/xyz123", Style: "apa"})
	require.NoError(t, err)

	second, err := f.svc.StartSession(ctx, f.user)
	require.NoError(t, err)
	assert.NotEqual(t, first.HistoryId, second.HistoryId)
	assert.Equal(t, citation.SessionCap, second.Remaining)
}

func TestConvertRendersExistingText(t *testing.T) {
	f := newServiceFixture()
	session, _ := f.svc.StartSession(context.Background(), f.user)

	res, err := f.svc.Convert(context.Background(), f.user, &dto.ConvertCitationRequest{
		HistoryId: session.HistoryId,
		Text:      `{"title":"Example Work","author":[{"family":"Doe","given":"Jane"}],"issued":{"date-parts":[[2021]]}}`,
		Style:     "apa",
	})
	require.NoError(t, err)
	assert.Equal(t, "Doe, J. (2021). Example Work.", res.Text)
	assert.Equal(t, 0, f.resolver.calls)
	assert.Nil(t, f.repo.citations[0].Metadata)
}

func TestCreateSurfacesResolverErrors(t *testing.T) {
	f := newServiceFixture()
	f.resolver.err = &citation.NotFoundError{Identifier: "10.9999/doesnotexist"}

	_, err := f.svc.Create(context.Background(), f.user, &dto.CreateCitationRequest{Identifier: "10.9999/doesnotexist", Style: "apa"})
	assert.Equal(t, citation.KindNotFound, citation.KindOf(err))
	assert.Empty(t, f.repo.citations)
}

func TestCreateWithPersistenceWarning(t *testing.T) {
	f := newServiceFixture()
	f.repo.createErr = errors.New("connection reset")

	res, err := f.svc.Create(context.Background(), f.user, &dto.CreateCitationRequest{Identifier: "10.1000/xyz123", Style: "apa"})
	require.NoError(t, err)
	assert.Nil(t, res.CiteId)
	assert.Equal(t, "apa", res.Style)
	assert.Equal(t, "Doe, J. (2021). Example Work.", res.Text)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, 0, res.Used)
}

func TestShowAndHistory(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	res, err := f.svc.Create(ctx, f.user, &dto.CreateCitationRequest{Identifier: "10.1000/xyz123", Style: "apa"})
	require.NoError(t, err)

	detail, err := f.svc.Show(ctx, f.user, *res.CiteId)
	require.NoError(t, err)
	assert.Equal(t, "10.1000/xyz123", detail.Identifier)
	assert.Equal(t, "create", detail.Mode)
	assert.NotEmpty(t, detail.Metadata)

	_, err = f.svc.Show(ctx, uuid.New(), *res.CiteId)
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusNotFound, fe.Code)

	list, err := f.svc.GetHistory(ctx, f.user, uuid.MustParse(res.HistoryId))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStylesListsEveryKey(t *testing.T) {
	f := newServiceFixture()

	list, err := f.svc.Styles(context.Background())
	require.NoError(t, err)
	require.Len(t, list, len(style.Keys()))
	assert.Equal(t, "apa", list[0].Key)
	assert.NotEqual(t, "APA", list[0].Title)
}
