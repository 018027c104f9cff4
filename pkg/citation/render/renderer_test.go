package render

import (
	"context"
	"strings"
	"testing"

	"ai-writing-be/internal/pkg/logger"
	"ai-writing-be/pkg/citation"
	"ai-writing-be/pkg/citation/csl"
	"ai-writing-be/pkg/citation/style"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleMetadata = `{"title":"Example Work","author":[{"family":"Doe","given":"Jane"}],"issued":{"date-parts":[[2021]]}}`

const journalMetadata = `{
  "type": "journal-article",
  "title": ["Example Work"],
  "container-title": ["Journal of Examples"],
  "author": [{"given": "Jane", "family": "Doe"}, {"given": "John", "family": "Smith"}],
  "issued": {"date-parts": [[2021, 3]]},
  "volume": "12",
  "issue": "3",
  "page": "10-20",
  "DOI": "10.1000/xyz123",
  "publisher": "Example Press"
}`

func bundledRenderer() *Renderer {
	cache := style.NewCache(style.NewDirFetcher("../../../web/csl"), logger.NewNopLogger())
	return New(cache, logger.NewNopLogger())
}

// inlineTemplates serves one hand-written style under every key.
type inlineTemplates struct {
	style *csl.Style
}

func newInline(t *testing.T, layout string) *inlineTemplates {
	t.Helper()
	s, err := csl.ParseStyle([]byte(`<style class="in-text">` + layout + `</style>`))
	require.NoError(t, err)
	return &inlineTemplates{style: s}
}

func (f *inlineTemplates) EnsureLoaded(ctx context.Context, key string) (*style.Definition, error) {
	return &style.Definition{Key: key, Style: f.style}, nil
}

func TestRenderAPAExample(t *testing.T) {
	out, err := bundledRenderer().Render(context.Background(), csl.Metadata(exampleMetadata), "apa")
	require.NoError(t, err)
	assert.Equal(t, "Doe, J. (2021). Example Work.", out)
}

func TestRenderAPAJournalArticle(t *testing.T) {
	out, err := bundledRenderer().Render(context.Background(), csl.Metadata(journalMetadata), "APA")
	require.NoError(t, err)
	assert.Equal(t, "Doe, J., & Smith, J. (2021). Example Work. Journal of Examples, 12(3), 10–20. https://doi.org/10.1000/xyz123", out)
}

func TestRenderIsIdempotentAndLeavesInputUntouched(t *testing.T) {
	r := bundledRenderer()
	md := csl.Metadata(journalMetadata)
	before := string(md)

	first, err := r.Render(context.Background(), md, "chicago")
	require.NoError(t, err)
	second, err := r.Render(context.Background(), md, "chicago")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, string(md))
}

func TestRenderEveryBundledStyle(t *testing.T) {
	r := bundledRenderer()
	for _, key := range style.Keys() {
		t.Run(key, func(t *testing.T) {
			out, err := r.Render(context.Background(), csl.Metadata(journalMetadata), key)
			require.NoError(t, err)
			assert.Contains(t, out, "Doe")
			assert.Contains(t, out, "2021")
			assert.Contains(t, out, "Example Work")
			assert.NotContains(t, out, "\n")
		})
	}
}

func TestRenderStyleSpecificShapes(t *testing.T) {
	tests := []struct {
		style string
		want  string
	}{
		{"mla", "Doe, Jane, and John Smith. “Example Work.” Journal of Examples, vol. 12, no. 3, Mar. 2021, pp. 10–20. https://doi.org/10.1000/xyz123."},
		{"ieee", "[1] J. Doe and J. Smith, “Example Work,” Journal of Examples, vol. 12, no. 3, pp. 10–20, Mar. 2021, doi: 10.1000/xyz123."},
		{"vancouver", "1. Doe J, Smith J. Example Work. Journal of Examples. 2021 Mar;12(3):10–20. doi:10.1000/xyz123"},
		{"nature", "1. Doe, J. & Smith, J. Example Work. Journal of Examples 12, 10–20 (2021). https://doi.org/10.1000/xyz123"},
	}
	r := bundledRenderer()
	for _, tt := range tests {
		out, err := r.Render(context.Background(), csl.Metadata(journalMetadata), tt.style)
		require.NoError(t, err, tt.style)
		assert.Equal(t, tt.want, out, tt.style)
	}
}

func TestRenderEtAlTruncation(t *testing.T) {
	md := csl.Metadata(`{"type":"article-journal","title":"Example Work","container-title":"Journal of Examples",
		"author":[{"family":"Doe","given":"Jane"},{"family":"Smith","given":"John"},{"family":"Roe","given":"Rita"}],
		"issued":{"date-parts":[[2021]]}}`)

	out, err := bundledRenderer().Render(context.Background(), md, "mla")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Doe, Jane, et al. “Example Work.”"), out)
	assert.NotContains(t, out, "Smith")
}

func TestRenderSubstitutesEditorOnce(t *testing.T) {
	md := csl.Metadata(`{"type":"book","title":"Edited Book","editor":[{"family":"Roe","given":"Rita"}],
		"issued":{"date-parts":[[2020]]},"publisher":"Example Press"}`)

	out, err := bundledRenderer().Render(context.Background(), md, "apa")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Roe, R. (Ed.)"), out)
	assert.Equal(t, 1, strings.Count(out, "Roe"))
	assert.Contains(t, out, "Example Press.")
}

func TestRenderConvertsBibTeXSortedByAuthor(t *testing.T) {
	text := csl.RawText(`
@book{zeta, author = {Zeta, Zoe}, title = {Last Book}, publisher = {Press}, year = {2019}}
@book{alpha, author = {Alpha, Al}, title = {First Book}, publisher = {Press}, year = {2018}}
`)
	out, err := bundledRenderer().Render(context.Background(), text, "apa")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Alpha, A. (2018). First Book. Press.", lines[0])
	assert.Equal(t, "Zeta, Z. (2019). Last Book. Press.", lines[1])
}

func TestRenderNumbersEntriesInInputOrder(t *testing.T) {
	text := csl.RawText(`[{"title":"Beta","author":[{"family":"B","given":"Bo"}]},{"title":"Alpha","author":[{"family":"A","given":"Al"}]}]`)

	out, err := bundledRenderer().Render(context.Background(), text, "ieee")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[1] B. B"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "[2] A. A"), lines[1])
}

func TestRenderErrors(t *testing.T) {
	r := bundledRenderer()
	ctx := context.Background()

	_, err := r.Render(ctx, csl.RawText("Doe, J. (2021). Example Work."), "apa")
	assert.Equal(t, citation.KindRender, citation.KindOf(err))

	_, err = r.Render(ctx, csl.Metadata(`{"type":"book","volume":"3"}`), "apa")
	assert.Equal(t, citation.KindRender, citation.KindOf(err))

	_, err = r.Render(ctx, csl.Metadata(nil), "apa")
	assert.Equal(t, citation.KindRender, citation.KindOf(err))

	_, err = r.Render(ctx, nil, "apa")
	assert.Equal(t, citation.KindRender, citation.KindOf(err))

	_, err = r.Render(ctx, csl.Metadata(exampleMetadata), "turabian")
	assert.Equal(t, citation.KindValidation, citation.KindOf(err))

	broken := New(style.NewCache(style.NewDirFetcher(t.TempDir()), logger.NewNopLogger()), logger.NewNopLogger())
	_, err = broken.Render(ctx, csl.Metadata(exampleMetadata), "apa")
	assert.Equal(t, citation.KindTemplateLoad, citation.KindOf(err))
}

func TestRenderEmptyOutputIsAnError(t *testing.T) {
	tpl := newInline(t, `<bibliography><layout><text variable="publisher"/></layout></bibliography>`)

	_, err := New(tpl, logger.NewNopLogger()).Render(context.Background(), csl.Metadata(exampleMetadata), "apa")
	var re *citation.RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "apa", re.StyleKey)
}

func TestGroupSuppression(t *testing.T) {
	tpl := newInline(t, `<bibliography><layout>
		<text variable="title"/>
		<group delimiter=" " prefix=", "><text value="Vol."/><text variable="volume"/></group>
		<group delimiter=" " prefix=" ["><text value="Online"/></group><text value="]"/>
	</layout></bibliography>`)

	out, err := New(tpl, logger.NewNopLogger()).Render(context.Background(), csl.Metadata(exampleMetadata), "apa")
	require.NoError(t, err)
	assert.Equal(t, "Example Work [Online]", out)
}

func TestChooseMatching(t *testing.T) {
	tpl := newInline(t, `<bibliography><layout>
		<choose>
			<if type="book thesis" match="any"><text value="monograph"/></if>
			<else-if variable="volume issue" match="all"><text value="serial"/></else-if>
			<else-if is-numeric="edition"><text value="numbered"/></else-if>
			<else-if variable="publisher" match="none"><text value="unpublished"/></else-if>
			<else><text value="other"/></else>
		</choose>
	</layout></bibliography>`)
	r := New(tpl, logger.NewNopLogger())

	tests := map[string]string{
		`{"type":"thesis","title":"T"}`:                         "monograph",
		`{"title":"T","volume":"1","issue":"2"}`:                "serial",
		`{"title":"T","volume":"1","edition":"2nd"}`:            "numbered",
		`{"title":"T","edition":"Revised"}`:                     "unpublished",
		`{"title":"T","edition":"Revised","publisher":"Press"}`: "other",
	}
	for md, want := range tests {
		out, err := r.Render(context.Background(), csl.Metadata(md), "apa")
		require.NoError(t, err, md)
		assert.Equal(t, want, out, md)
	}
}

func TestDateForms(t *testing.T) {
	d := &csl.Date{Year: 2021, Month: 3, Day: 5}
	assert.Equal(t, "March 5, 2021", localizedDate("text", "", d))
	assert.Equal(t, "March 2021", localizedDate("text", "year-month", d))
	assert.Equal(t, "3/5/2021", localizedDate("numeric", "", d))
	assert.Equal(t, "2021", localizedDate("numeric", "year", d))

	tpl := newInline(t, `<bibliography><layout><text variable="title" suffix=", "/>
		<date variable="issued" delimiter="-">
			<date-part name="year"/><date-part name="month" form="numeric-leading-zeros"/><date-part name="day" form="numeric-leading-zeros"/>
		</date></layout></bibliography>`)
	out, err := New(tpl, logger.NewNopLogger()).Render(context.Background(), csl.Metadata(`{"title":"T","issued":{"raw":"2021-3-5"}}`), "apa")
	require.NoError(t, err)
	assert.Equal(t, "T, 2021-03-05", out)
}

func TestTextCase(t *testing.T) {
	tests := []struct {
		mode, in, want string
	}{
		{"title", "the art of computer programming", "The Art of Computer Programming"},
		{"title", "working with DNA and iPhones", "Working with DNA and iPhones"},
		{"uppercase", "nasa", "NASA"},
		{"lowercase", "LOUD", "loud"},
		{"capitalize-first", "ed.", "Ed."},
		{"capitalize-all", "new york times", "New York Times"},
		{"", "unchanged", "unchanged"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, textCase(tt.mode, tt.in), "%s(%q)", tt.mode, tt.in)
	}
}

func TestCleanup(t *testing.T) {
	tests := map[string]string{
		"Doe, J..  (2021).":        "Doe, J. (2021).",
		"“Example Work”. Journal":  "“Example Work.” Journal",
		"“A”, “B”":                 "“A,” “B”",
		"Is it?. Yes":              "Is it? Yes",
		"a ,, b":                   "a, b",
		"  padded  ":               "padded",
		"(2021). . Journal, 12.":   "(2021). Journal, 12.",
		"[1] “Only title,” .":      "[1] “Only title.”",
		"[1] “Only title,”.":       "[1] “Only title.”",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanup(in), "cleanup(%q)", in)
	}
}

func TestRenderIEEETitleOnlyClosesQuote(t *testing.T) {
	out, err := bundledRenderer().Render(context.Background(), csl.Metadata(`{"title":"Only title"}`), "ieee")
	require.NoError(t, err)
	assert.Contains(t, out, "“Only title.”")
	assert.NotContains(t, out, ",”")
}

func TestRenderIgnoresOutOfRangeDateParts(t *testing.T) {
	md := csl.Metadata(`{"title":"Being and Nothingness","author":[{"family":"Sartre","given":"Jean-Paul"}],"issued":{"date-parts":[[2001,13,40]]}}`)
	out, err := bundledRenderer().Render(context.Background(), md, "mla")
	require.NoError(t, err)
	assert.Contains(t, out, "2001")
	assert.NotContains(t, out, "40")
	assert.NotContains(t, out, "13")
}
