package proxiedamp

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevModeXPaths(t *testing.T) {
	p := Bootstrap(nil, DefaultConfig())

	in := []string{"//div[@id='existing']"}
	got := p.DevModeXPaths(in)

	assert.Equal(t, []string{
		"//div[@id='existing']",
		`//script[ contains( text(), "qm_number_format" ) ]`,
		`//script[ contains( text(), "QM_i18n" ) ]`,
		`//script[ contains( text(), "query-monitor-" ) ]`,
	}, got)
	assert.Equal(t, []string{"//div[@id='existing']"}, in)
}

func TestDevModeXPathsExtrasAndFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExtraXPaths = []string{` //script[ contains( text(), "debug_bar" ) ] `, ""}

	p := Bootstrap(nil, cfg, WithXPathFilter(func(xpaths []string) []string {
		return xpaths[1:]
	}))

	got := p.DevModeXPaths(nil)
	require.Len(t, got, 3)
	assert.Equal(t, `//script[ contains( text(), "QM_i18n" ) ]`, got[0])
	assert.Equal(t, `//script[ contains( text(), "debug_bar" ) ]`, got[2])
}

func TestParseXPath(t *testing.T) {
	tests := []struct {
		expr    string
		want    Rule
		wantErr bool
	}{
		{expr: `//script[ contains( text(), "QM_i18n" ) ]`, want: Rule{Tag: "script", Needle: "QM_i18n"}},
		{expr: `//SCRIPT[contains(text(),'qm')]`, want: Rule{Tag: "script", Needle: "qm"}},
		{expr: `//style[ contains( text(), "a'b" ) ]`, want: Rule{Tag: "style", Needle: "a'b"}},
		{expr: `//div[@id='x']`, wantErr: true},
		{expr: `script`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseXPath(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleRoundTrip(t *testing.T) {
	for _, x := range devModeXPaths {
		r, err := ParseXPath(x)
		require.NoError(t, err)
		assert.Equal(t, x, r.String())
	}
}

func TestRuleSelect(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><head>
<script>var QM_i18n = {};</script>
<script>var other = 1;</script>
<style>QM_i18n</style>
</head></html>`))
	require.NoError(t, err)

	r := Rule{Tag: "script", Needle: "QM_i18n"}
	sel := r.Select(doc)
	require.Equal(t, 1, sel.Length())
	assert.Contains(t, sel.Text(), "QM_i18n = {}")
}

func TestDevModeRulesSkipsUnsupported(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExtraXPaths = []string{"//div[@id='x']"}
	p := Bootstrap(nil, cfg)

	rules := p.devModeRules()
	assert.Len(t, rules, 3)
}
