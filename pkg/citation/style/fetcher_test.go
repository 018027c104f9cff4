package style

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/csl/apa.csl" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(minimalStyle))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/", 5*time.Second)

	body, err := f.Fetch(context.Background(), "apa")
	require.NoError(t, err)
	assert.Equal(t, minimalStyle, string(body))

	_, err = f.Fetch(context.Background(), "mla")
	assert.ErrorContains(t, err, "status 404")
}

func TestNormalize(t *testing.T) {
	k, err := Normalize(" Chicago ")
	require.NoError(t, err)
	assert.Equal(t, "chicago", k)

	_, err = Normalize("")
	assert.Error(t, err)

	keys := Keys()
	keys[0] = "mutated"
	assert.Equal(t, "apa", Keys()[0])
}
