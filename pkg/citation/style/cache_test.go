package style

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ai-writing-be/internal/pkg/logger"
	"ai-writing-be/pkg/citation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalStyle = `<style xmlns="http://purl.org/net/xbiblio/csl" class="in-text" version="1.0">
  <info><title>Minimal</title><id>minimal</id></info>
  <bibliography><layout><text variable="title"/></layout></bibliography>
</style>`

type countingFetcher struct {
	calls atomic.Int32
	delay time.Duration
	body  string
	err   error
}

func (f *countingFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func TestEnsureLoadedFetchesOnce(t *testing.T) {
	f := &countingFetcher{body: minimalStyle}
	c := NewCache(f, logger.NewNopLogger())

	first, err := c.EnsureLoaded(context.Background(), "apa")
	require.NoError(t, err)
	second, err := c.EnsureLoaded(context.Background(), "APA ")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "Minimal", first.Style.Title)
	assert.EqualValues(t, 1, f.calls.Load())
	assert.True(t, c.Loaded("apa"))
	assert.Equal(t, 1, c.Len())
}

func TestEnsureLoadedConcurrentFirstUse(t *testing.T) {
	f := &countingFetcher{body: minimalStyle, delay: 50 * time.Millisecond}
	c := NewCache(f, logger.NewNopLogger())

	const workers = 16
	var wg sync.WaitGroup
	defs := make([]*Definition, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defs[i], errs[i] = c.EnsureLoaded(context.Background(), "mla")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, defs[0], defs[i])
	}
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestEnsureLoadedFailureLeavesCacheEmpty(t *testing.T) {
	f := &countingFetcher{err: errors.New("connection refused")}
	c := NewCache(f, logger.NewNopLogger())

	_, err := c.EnsureLoaded(context.Background(), "ieee")
	require.Error(t, err)

	var tle *citation.TemplateLoadError
	require.ErrorAs(t, err, &tle)
	assert.Equal(t, "ieee", tle.StyleKey)
	assert.Equal(t, citation.KindTemplateLoad, citation.KindOf(err))
	assert.False(t, c.Loaded("ieee"))

	// A later attempt retries the fetch.
	f.err = nil
	f.body = minimalStyle
	_, err = c.EnsureLoaded(context.Background(), "ieee")
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestEnsureLoadedRejectsUnparseableStyle(t *testing.T) {
	f := &countingFetcher{body: "<html>not a style</html>"}
	c := NewCache(f, logger.NewNopLogger())

	_, err := c.EnsureLoaded(context.Background(), "nature")
	assert.Equal(t, citation.KindTemplateLoad, citation.KindOf(err))
	assert.Equal(t, 0, c.Len())
}

func TestEnsureLoadedRejectsUnknownKey(t *testing.T) {
	f := &countingFetcher{body: minimalStyle}
	c := NewCache(f, logger.NewNopLogger())

	for _, key := range []string{"", "  ", "turabian"} {
		_, err := c.EnsureLoaded(context.Background(), key)
		assert.Equal(t, citation.KindValidation, citation.KindOf(err), "key %q", key)
	}
	assert.EqualValues(t, 0, f.calls.Load())
}

func TestDirFetcherServesBundledStyles(t *testing.T) {
	c := NewCache(NewDirFetcher("../../../web/csl"), logger.NewNopLogger())
	for _, key := range Keys() {
		def, err := c.EnsureLoaded(context.Background(), key)
		require.NoError(t, err, "style %s", key)
		assert.NotEmpty(t, def.Style.Title, "style %s", key)
	}
}
