package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ai-writing-be/internal/pkg/logger"
	"ai-writing-be/pkg/citation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleMessage = `{"type":"journal-article","title":["Example Work"],"author":[{"given":"Jane","family":"Doe"}],"issued":{"date-parts":[[2021]]},"DOI":"10.1000/xyz123"}`

type upstream struct {
	registry   *httptest.Server
	doi        *httptest.Server
	registryN  atomic.Int32
	doiN       atomic.Int32
	lastAccept atomic.Value
	lastPath   atomic.Value
}

func newUpstream(t *testing.T, registry, doi http.HandlerFunc) *upstream {
	u := &upstream{}
	u.registry = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.registryN.Add(1)
		u.lastPath.Store(r.URL.EscapedPath())
		registry(w, r)
	}))
	u.doi = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.doiN.Add(1)
		u.lastAccept.Store(r.Header.Get("Accept"))
		doi(w, r)
	}))
	t.Cleanup(func() {
		u.registry.Close()
		u.doi.Close()
	})
	return u
}

func (u *upstream) resolver() *Resolver {
	return New(Config{
		RegistryURL: u.registry.URL,
		DOIURL:      u.doi.URL,
		Mailto:      "dev@example.com",
		Timeout:     5 * time.Second,
	}, logger.NewNopLogger())
}

func status(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}
}

func TestResolvePassesMessageThrough(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("User-Agent"), "mailto:dev@example.com")
		_, _ = w.Write([]byte(`{"status":"ok","message":` + exampleMessage + `}`))
	}, status(500, ""))

	md, err := u.resolver().Resolve(context.Background(), "10.1000/xyz123")
	require.NoError(t, err)
	assert.Equal(t, exampleMessage, string(md))
	assert.Equal(t, "/works/10.1000/xyz123", u.lastPath.Load())
	assert.EqualValues(t, 0, u.doiN.Load())
}

func TestResolveNotFoundSkipsFallback(t *testing.T) {
	u := newUpstream(t, status(http.StatusNotFound, "Resource not found."), status(200, exampleMessage))

	_, err := u.resolver().Resolve(context.Background(), "10.9999/missing")

	var nf *citation.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "10.9999/missing", nf.Identifier)
	assert.EqualValues(t, 1, u.registryN.Load())
	assert.EqualValues(t, 0, u.doiN.Load())
}

func TestResolveNotAcceptableFallsBackOnce(t *testing.T) {
	u := newUpstream(t, status(http.StatusNotAcceptable, ""), status(200, exampleMessage))

	md, err := u.resolver().Resolve(context.Background(), "10.1000/xyz123")
	require.NoError(t, err)
	assert.Equal(t, exampleMessage, string(md))
	assert.EqualValues(t, 1, u.doiN.Load())
	assert.Equal(t, "application/vnd.citationstyles.csl+json;q=1.0", u.lastAccept.Load())
}

func TestResolveFallbackFailureSurfacesItsStatus(t *testing.T) {
	u := newUpstream(t, status(http.StatusNotAcceptable, ""), status(http.StatusBadGateway, ""))

	_, err := u.resolver().Resolve(context.Background(), "10.1000/xyz123")

	var ue *citation.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadGateway, ue.Status)
	assert.True(t, ue.Negotiation)
	assert.EqualValues(t, 1, u.doiN.Load())
}

func TestResolveOtherStatusesFailWithoutFallback(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		u := newUpstream(t, status(code, ""), status(200, exampleMessage))

		_, err := u.resolver().Resolve(context.Background(), "10.1000/xyz123")

		var ue *citation.UpstreamError
		require.ErrorAs(t, err, &ue, "status %d", code)
		assert.Equal(t, code, ue.Status)
		assert.False(t, ue.Negotiation)
		assert.EqualValues(t, 0, u.doiN.Load())
	}
}

func TestResolveEmptyIdentifierMakesNoCalls(t *testing.T) {
	u := newUpstream(t, status(200, ""), status(200, ""))

	for _, id := range []string{"", "   ", "https://doi.org/"} {
		_, err := u.resolver().Resolve(context.Background(), id)
		assert.Equal(t, citation.KindValidation, citation.KindOf(err), "identifier %q", id)
	}
	assert.EqualValues(t, 0, u.registryN.Load())
}

func TestResolveTransportFailure(t *testing.T) {
	u := newUpstream(t, status(200, ""), status(200, ""))
	r := u.resolver()
	u.registry.Close()

	_, err := r.Resolve(context.Background(), "10.1000/xyz123")

	var ue *citation.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 0, ue.Status)
	assert.Error(t, ue.Cause)
}

func TestResolveRejectsEnvelopeWithoutMessage(t *testing.T) {
	u := newUpstream(t, status(200, `{"status":"ok"}`), status(200, ""))

	_, err := u.resolver().Resolve(context.Background(), "10.1000/xyz123")
	assert.Equal(t, citation.KindUpstream, citation.KindOf(err))
}

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"10.1000/xyz123", "10.1000/xyz123"},
		{"  10.1000/xyz123\n", "10.1000/xyz123"},
		{"https://doi.org/10.1000/xyz123", "10.1000/xyz123"},
		{"HTTP://DX.DOI.ORG/10.1000/ABC", "10.1000/ABC"},
		{"doi:10.1000/xyz123", "10.1000/xyz123"},
		{"https://example.com/paper", "https://example.com/paper"},
	}
	for _, tt := range tests {
		if got := NormalizeIdentifier(tt.in); got != tt.want {
			t.Errorf("NormalizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
