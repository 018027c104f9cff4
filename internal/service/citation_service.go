package service

import (
	"context"
	"encoding/json"
	"strings"

	"ai-writing-be/internal/dto"
	"ai-writing-be/internal/entity"
	"ai-writing-be/internal/pkg/logger"
	"ai-writing-be/internal/repository/contract"
	"ai-writing-be/pkg/citation"
	"ai-writing-be/pkg/citation/pipeline"
	"ai-writing-be/pkg/citation/style"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ICitationService interface {
	Quick(ctx context.Context, identifier string) (*dto.QuickCitationResponse, error)
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateCitationRequest) (*dto.CitationResponse, error)
	Convert(ctx context.Context, userId uuid.UUID, req *dto.ConvertCitationRequest) (*dto.CitationResponse, error)
	StartSession(ctx context.Context, userId uuid.UUID) (*dto.SessionStatusResponse, error)
	SessionStatus(ctx context.Context, userId uuid.UUID, historyId string) (*dto.SessionStatusResponse, error)
	Show(ctx context.Context, userId, citeId uuid.UUID) (*dto.CitationDetailResponse, error)
	GetHistory(ctx context.Context, userId, historyId uuid.UUID) ([]*dto.CitationDetailResponse, error)
	Styles(ctx context.Context) ([]*dto.StyleResponse, error)
}

// Runner drives one pipeline request.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type citationService struct {
	runner   Runner
	resolver pipeline.Resolver
	renderer pipeline.Renderer
	styles   StyleLoader
	sessions contract.WorkSessionRepository
	history  IHistoryService
	events   ICitationEventPublisher
	logger   logger.ILogger
}

func NewCitationService(
	runner Runner,
	resolver pipeline.Resolver,
	renderer pipeline.Renderer,
	styles StyleLoader,
	sessions contract.WorkSessionRepository,
	history IHistoryService,
	events ICitationEventPublisher,
	logger logger.ILogger,
) ICitationService {
	return &citationService{
		runner:   runner,
		resolver: resolver,
		renderer: renderer,
		styles:   styles,
		sessions: sessions,
		history:  history,
		events:   events,
		logger:   logger,
	}
}

// Quick resolves and formats one identifier in APA. Nothing is persisted and
// no work session is charged.
func (s *citationService) Quick(ctx context.Context, identifier string) (*dto.QuickCitationResponse, error) {
	if strings.TrimSpace(identifier) == "" {
		return nil, &citation.ValidationError{Field: "DOI or URL", Reason: "identifier is empty"}
	}
	md, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	text, err := s.renderer.Render(ctx, md, "apa")
	if err != nil {
		return nil, err
	}
	return &dto.QuickCitationResponse{Apa: text}, nil
}

func (s *citationService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateCitationRequest) (*dto.CitationResponse, error) {
	return s.run(ctx, pipeline.Request{
		Mode:       pipeline.ModeCreate,
		HistoryID:  req.HistoryId,
		UserID:     userId.String(),
		Identifier: req.Identifier,
		Style:      req.Style,
	})
}

func (s *citationService) Convert(ctx context.Context, userId uuid.UUID, req *dto.ConvertCitationRequest) (*dto.CitationResponse, error) {
	return s.run(ctx, pipeline.Request{
		Mode:      pipeline.ModeConvert,
		HistoryID: req.HistoryId,
		UserID:    userId.String(),
		Text:      req.Text,
		Style:     req.Style,
	})
}

func (s *citationService) run(ctx context.Context, req pipeline.Request) (*dto.CitationResponse, error) {
	res, err := s.runner.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.HistoryID == "" {
		s.events.SessionStarted(ctx, res.HistoryID, req.UserID)
	}

	out := &dto.CitationResponse{
		HistoryId: res.HistoryID,
		Text:      res.Text,
	}
	if res.Record != nil {
		id, err := uuid.Parse(res.Record.CiteID)
		if err == nil {
			out.CiteId = &id
		}
		out.Style = res.Record.Style
		s.events.CitationCreated(ctx, res.Record.CiteID, res.HistoryID, req.UserID, res.Record.Style, string(res.Record.Mode))
	} else {
		out.Style, _ = style.Normalize(req.Style)
	}
	if res.Warning != nil {
		out.Warning = citation.UserMessage(res.Warning)
	}

	used, err := s.sessions.Count(ctx, req.UserID, res.HistoryID)
	if err != nil {
		s.logger.Warn("CITATION", "Failed to read work session counter", map[string]interface{}{
			"history_id": res.HistoryID,
			"error":      err.Error(),
		})
	}
	out.Used = used
	out.Remaining = remaining(used)
	return out, nil
}

// StartSession opens a new work session, used when the user starts a new
// conversation.
func (s *citationService) StartSession(ctx context.Context, userId uuid.UUID) (*dto.SessionStatusResponse, error) {
	historyId, err := s.sessions.Start(ctx, userId.String())
	if err != nil {
		return nil, err
	}
	s.events.SessionStarted(ctx, historyId, userId.String())
	return &dto.SessionStatusResponse{
		HistoryId: historyId,
		Limit:     citation.SessionCap,
		Remaining: citation.SessionCap,
	}, nil
}

// SessionStatus reports a work session the user started. Unknown, expired or
// foreign sessions are a validation error.
func (s *citationService) SessionStatus(ctx context.Context, userId uuid.UUID, historyId string) (*dto.SessionStatusResponse, error) {
	used, err := s.sessions.Count(ctx, userId.String(), historyId)
	if err != nil {
		return nil, err
	}
	return &dto.SessionStatusResponse{
		HistoryId: historyId,
		Used:      used,
		Limit:     citation.SessionCap,
		Remaining: remaining(used),
	}, nil
}

func (s *citationService) Show(ctx context.Context, userId, citeId uuid.UUID) (*dto.CitationDetailResponse, error) {
	c, err := s.history.GetCitation(ctx, userId, citeId)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Citation not found")
	}
	return toDetail(c), nil
}

func (s *citationService) GetHistory(ctx context.Context, userId, historyId uuid.UUID) ([]*dto.CitationDetailResponse, error) {
	list, err := s.history.ListByHistory(ctx, userId, historyId)
	if err != nil {
		return nil, err
	}
	result := make([]*dto.CitationDetailResponse, 0, len(list))
	for _, c := range list {
		result = append(result, toDetail(c))
	}
	return result, nil
}

// Styles lists every supported style. A style whose definition cannot be
// loaded is still listed, titled by its key.
func (s *citationService) Styles(ctx context.Context) ([]*dto.StyleResponse, error) {
	keys := style.Keys()
	result := make([]*dto.StyleResponse, 0, len(keys))
	for _, key := range keys {
		title := strings.ToUpper(key)
		if def, err := s.styles.EnsureLoaded(ctx, key); err == nil && def.Style.Title != "" {
			title = def.Style.Title
		}
		result = append(result, &dto.StyleResponse{Key: key, Title: title})
	}
	return result, nil
}

func remaining(used int) int {
	if used >= citation.SessionCap {
		return 0
	}
	return citation.SessionCap - used
}

func toDetail(c *entity.Citation) *dto.CitationDetailResponse {
	var metadata json.RawMessage
	if len(c.Metadata) > 0 {
		metadata = c.Metadata
	}
	return &dto.CitationDetailResponse{
		Id:         c.Id,
		HistoryId:  c.HistoryId,
		Mode:       string(c.Mode),
		Identifier: c.Identifier,
		InputText:  c.InputText,
		Metadata:   metadata,
		Style:      c.Style,
		Text:       c.Text,
		CreatedAt:  c.CreatedAt,
	}
}
