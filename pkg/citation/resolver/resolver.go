// Package resolver turns a DOI or URL into the CSL-JSON metadata published by
// the registry, falling back to DOI content negotiation when the registry
// cannot serve the record as JSON.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-writing-be/internal/pkg/logger"
	"ai-writing-be/pkg/citation"
	"ai-writing-be/pkg/citation/csl"

	"golang.org/x/time/rate"
)

const (
	registryAccept    = "application/json"
	negotiationAccept = "application/vnd.citationstyles.csl+json;q=1.0"
)

var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"doi:",
}

type Config struct {
	RegistryURL string
	DOIURL      string
	Mailto      string
	Timeout     time.Duration
	// RequestsPerSecond throttles outbound calls. Zero disables throttling.
	RequestsPerSecond float64
}

type Resolver struct {
	registryURL string
	doiURL      string
	userAgent   string
	client      *http.Client
	limiter     *rate.Limiter
	logger      logger.ILogger
}

func New(cfg Config, logger logger.ILogger) *Resolver {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	ua := "ai-writing-be/1.0"
	if cfg.Mailto != "" {
		ua += " (mailto:" + cfg.Mailto + ")"
	}

	return &Resolver{
		registryURL: strings.TrimRight(cfg.RegistryURL, "/"),
		doiURL:      strings.TrimRight(cfg.DOIURL, "/"),
		userAgent:   ua,
		client:      &http.Client{Timeout: cfg.Timeout},
		limiter:     limiter,
		logger:      logger,
	}
}

// NormalizeIdentifier trims whitespace and strips doi.org / doi: prefixes.
func NormalizeIdentifier(identifier string) string {
	id := strings.TrimSpace(identifier)
	lower := strings.ToLower(id)
	for _, p := range doiPrefixes {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(id[len(p):])
		}
	}
	return id
}

// Resolve looks the identifier up in the registry. A 406 triggers exactly one
// content-negotiation request against the DOI resolver; nothing is retried.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (csl.Metadata, error) {
	id := NormalizeIdentifier(identifier)
	if id == "" {
		return nil, &citation.ValidationError{Field: "DOI or URL", Reason: "identifier is empty"}
	}

	status, body, err := r.get(ctx, r.registryURL+"/works/"+escapePath(id), registryAccept)
	if err != nil {
		return nil, r.fail(&citation.UpstreamError{Identifier: id, Cause: err})
	}

	switch {
	case status == http.StatusNotFound:
		return nil, &citation.NotFoundError{Identifier: id}
	case status == http.StatusNotAcceptable:
		return r.negotiate(ctx, id)
	case !success(status):
		return nil, r.fail(&citation.UpstreamError{Identifier: id, Status: status})
	}

	var envelope struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, r.fail(&citation.UpstreamError{Identifier: id, Status: status, Cause: fmt.Errorf("decode registry envelope: %w", err)})
	}
	md := csl.Metadata(envelope.Message)
	if md.IsEmpty() {
		return nil, r.fail(&citation.UpstreamError{Identifier: id, Status: status, Cause: fmt.Errorf("registry envelope has no message")})
	}

	r.logger.Debug("RESOLVER", "Resolved via registry", map[string]interface{}{
		"identifier": id,
		"bytes":      len(md),
	})
	return md, nil
}

func (r *Resolver) negotiate(ctx context.Context, id string) (csl.Metadata, error) {
	status, body, err := r.get(ctx, r.doiURL+"/"+escapePath(id), negotiationAccept)
	if err != nil {
		return nil, r.fail(&citation.UpstreamError{Identifier: id, Negotiation: true, Cause: err})
	}
	if !success(status) {
		return nil, r.fail(&citation.UpstreamError{Identifier: id, Status: status, Negotiation: true})
	}

	r.logger.Debug("RESOLVER", "Resolved via content negotiation", map[string]interface{}{
		"identifier": id,
		"bytes":      len(body),
	})
	return csl.Metadata(body), nil
}

func (r *Resolver) get(ctx context.Context, target, accept string) (int, []byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

func (r *Resolver) fail(err *citation.UpstreamError) error {
	details := map[string]interface{}{
		"identifier":  err.Identifier,
		"status":      err.Status,
		"negotiation": err.Negotiation,
	}
	if err.Cause != nil {
		details["error"] = err.Cause.Error()
	}
	r.logger.Error("RESOLVER", "Identifier lookup failed", details)
	return err
}

// escapePath escapes each segment; DOIs contain slashes that must survive.
func escapePath(id string) string {
	segments := strings.Split(id, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func success(status int) bool {
	return status >= 200 && status <= 299
}
