package proxiedamp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andesco/proxiedamp/pkg/deps"
)

func toolbarHost() *StaticHost {
	return &StaticHost{
		Home:        "https://example.com",
		Validation:  true,
		AMPQueryVar: "amp",
		ScriptAssets: Assets{
			Registered: deps.Map{
				"query-monitor": {"jquery"},
				"jquery":        {"jquery-core", "jquery-migrate"},
				"unrelated":     {"lodash"},
			},
			Enqueued: []deps.Handle{"query-monitor", "unrelated"},
		},
		StyleAssets: Assets{
			Registered: deps.Map{
				"query-monitor": {"dashicons"},
				"dashicons":     {"query-monitor"},
			},
			Enqueued: []deps.Handle{"query-monitor"},
		},
	}
}

func ampRequest() *http.Request {
	return httptest.NewRequest(http.MethodGet, "https://example.com/post/?amp", nil)
}

func TestNewAnnotatorClosures(t *testing.T) {
	p := Bootstrap(toolbarHost(), DefaultConfig())
	a := p.NewAnnotator(ampRequest())

	require.True(t, a.Active())
	assert.Equal(t, []string{"jquery", "jquery-core", "jquery-migrate", "query-monitor"}, a.Scripts().Sorted())
	assert.Equal(t, []string{"dashicons", "query-monitor"}, a.Styles().Sorted())
}

func TestNewAnnotatorNotAMP(t *testing.T) {
	p := Bootstrap(toolbarHost(), DefaultConfig())
	a := p.NewAnnotator(httptest.NewRequest(http.MethodGet, "https://example.com/post/", nil))

	assert.False(t, a.Active())
	assert.Empty(t, a.Scripts())

	tag := `<script src="qm.js" id="query-monitor-js"></script>`
	assert.Equal(t, tag, a.ScriptTag(tag, "query-monitor"))

	html := `<html><head></head><body><script id="query-monitor-js"></script></body></html>`
	out, err := a.AnnotateDocument(html)
	require.NoError(t, err)
	assert.Equal(t, html, out)
}

func TestNewAnnotatorToolbarNotEnqueued(t *testing.T) {
	host := toolbarHost()
	host.ScriptAssets.Enqueued = nil
	p := Bootstrap(host, DefaultConfig())

	a := p.NewAnnotator(ampRequest())
	assert.True(t, a.Active())
	assert.Empty(t, a.Scripts())
	assert.NotEmpty(t, a.Styles())
}

func TestNewAnnotatorDepsFilter(t *testing.T) {
	p := Bootstrap(toolbarHost(), DefaultConfig(), WithDepsFilter(func(result deps.Set, _ deps.Registry, _ []deps.Handle) deps.Set {
		delete(result, "jquery-core")
		return result
	}))

	a := p.NewAnnotator(ampRequest())
	assert.False(t, a.Scripts().Has("jquery-core"))
	assert.True(t, a.Scripts().Has("query-monitor"))
}

func TestScriptTag(t *testing.T) {
	p := Bootstrap(toolbarHost(), DefaultConfig())
	a := p.NewAnnotator(ampRequest())

	tests := []struct {
		name   string
		tag    string
		handle string
		want   string
	}{
		{
			name:   "closure handle",
			tag:    `<script src="/jquery.js" id="jquery-core-js"></script>`,
			handle: "jquery-core",
			want:   `<script data-ampdevmode src="/jquery.js" id="jquery-core-js"></script>`,
		},
		{
			name:   "inline before and after",
			tag:    "<script id=\"query-monitor-js-before\">\nvar a;\n</script>\n<SCRIPT>var b;</SCRIPT>",
			handle: "query-monitor",
			want:   "<script data-ampdevmode id=\"query-monitor-js-before\">\nvar a;\n</script>\n<SCRIPT data-ampdevmode>var b;</SCRIPT>",
		},
		{
			name:   "handle outside closure",
			tag:    `<script src="/lodash.js"></script>`,
			handle: "lodash",
			want:   `<script src="/lodash.js"></script>`,
		},
		{
			name:   "similar element name untouched",
			tag:    `<scripts>x</scripts><script>y</script>`,
			handle: "jquery",
			want:   `<scripts>x</scripts><script data-ampdevmode>y</script>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.ScriptTag(tt.tag, tt.handle))
		})
	}
}

func TestStyleTag(t *testing.T) {
	p := Bootstrap(toolbarHost(), DefaultConfig())
	a := p.NewAnnotator(ampRequest())

	tag := "<link rel='stylesheet' id='dashicons-css' href='/dashicons.css' media='all' />\n"
	assert.Equal(t,
		"<link data-ampdevmode rel='stylesheet' id='dashicons-css' href='/dashicons.css' media='all' />\n",
		a.StyleTag(tag, "dashicons"))
	assert.Equal(t, tag, a.StyleTag(tag, "jquery"))
	assert.Equal(t, `<script src="x"></script>`, a.StyleTag(`<script src="x"></script>`, "dashicons"))
}

func TestAnnotateDocument(t *testing.T) {
	p := Bootstrap(toolbarHost(), DefaultConfig())
	a := p.NewAnnotator(ampRequest())

	page := `<!DOCTYPE html><html><head>
<link rel="stylesheet" id="query-monitor-css" href="/qm.css"/>
<link rel="stylesheet" id="theme-css" href="/theme.css"/>
<script id="jquery-core-js" src="/jquery.js"></script>
<script id="query-monitor-js-extra">var qm = {};</script>
<script id="lodash-js" src="/lodash.js"></script>
<script>var QM_i18n = {};</script>
<script>var app = 1;</script>
</head><body></body></html>`

	out, err := a.AnnotateDocument(page)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)

	marked := func(sel string) bool {
		_, ok := doc.Find(sel).Attr(DevModeAttr)
		return ok
	}
	assert.True(t, marked("#query-monitor-css"))
	assert.False(t, marked("#theme-css"))
	assert.True(t, marked("#jquery-core-js"))
	assert.True(t, marked("#query-monitor-js-extra"))
	assert.False(t, marked("#lodash-js"))

	inline := doc.Find("script:not([id])")
	require.Equal(t, 2, inline.Length())
	_, ok := inline.Eq(0).Attr(DevModeAttr)
	assert.True(t, ok)
	_, ok = inline.Eq(1).Attr(DevModeAttr)
	assert.False(t, ok)
}

func TestHandlesFromID(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<script id="a-js"></script><script id="a-js-extra"></script><script id="plain"></script><link id="qm-inline-css"/>`))
	require.NoError(t, err)

	scripts := doc.Find("script")
	assert.Equal(t, []string{"a"}, handlesFromID(scripts.Eq(0), scriptIDSuffixes))
	assert.Equal(t, []string{"a"}, handlesFromID(scripts.Eq(1), scriptIDSuffixes))
	assert.Empty(t, handlesFromID(scripts.Eq(2), scriptIDSuffixes))
	assert.ElementsMatch(t, []string{"qm-inline", "qm"}, handlesFromID(doc.Find("link"), styleIDSuffixes))
}

func TestAnnotateDocumentHandleEndingInInline(t *testing.T) {
	host := toolbarHost()
	host.StyleAssets.Registered = deps.Map{"query-monitor": {"qm-inline"}}
	p := Bootstrap(host, DefaultConfig())
	a := p.NewAnnotator(ampRequest())
	require.Equal(t, []string{"qm-inline", "query-monitor"}, a.Styles().Sorted())

	out, err := a.AnnotateDocument(`<html><head><link rel="stylesheet" id="qm-inline-css" href="/qm.css"/></head><body></body></html>`)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	_, ok := doc.Find("#qm-inline-css").Attr(DevModeAttr)
	assert.True(t, ok)
}
