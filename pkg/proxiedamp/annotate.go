package proxiedamp

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/andesco/proxiedamp/pkg/deps"
)

// DevModeAttr exempts an element from strict AMP validation.
const DevModeAttr = "data-ampdevmode"

var (
	scriptOpen = regexp.MustCompile(`(?i)(<script)(\s|>)`)
	linkOpen   = regexp.MustCompile(`(?i)(<link)(\s|>)`)
)

// Ids the platform gives to the tags it prints for a handle.
var (
	scriptIDSuffixes = []string{"-js", "-js-extra", "-js-before", "-js-after", "-js-translations"}
	styleIDSuffixes  = []string{"-css", "-inline-css"}
)

// Annotator marks the toolbar's tags on a single page render.
type Annotator struct {
	amp     bool
	scripts deps.Set
	styles  deps.Set
	rules   []Rule
}

// NewAnnotator computes the toolbar's script and style closures for the page served to r.
// On non-AMP pages the annotator leaves every tag alone.
func (p *Plugin) NewAnnotator(r *http.Request) *Annotator {
	a := &Annotator{
		scripts: deps.NewSet(),
		styles:  deps.NewSet(),
	}
	if !p.host.IsAMP(r) {
		return a
	}
	a.amp = true

	handle := p.cfg.DevModeHandle
	if p.host.ScriptEnqueued(handle) {
		a.scripts, _ = p.Closure(KindScripts, handle)
	}
	if p.host.StyleEnqueued(handle) {
		a.styles, _ = p.Closure(KindStyles, handle)
	}
	a.rules = p.devModeRules()
	return a
}

// Active reports whether the page is rendered as AMP.
func (a *Annotator) Active() bool { return a.amp }

// Scripts returns the script handles that are marked.
func (a *Annotator) Scripts() deps.Set { return a.scripts }

// Styles returns the style handles that are marked.
func (a *Annotator) Styles() deps.Set { return a.styles }

// ScriptTag adds the dev-mode attribute to every <script> in tag when handle is in the
// script closure.
func (a *Annotator) ScriptTag(tag string, handle deps.Handle) string {
	if !a.scripts.Has(handle) {
		return tag
	}
	return markOpening(scriptOpen, tag)
}

// StyleTag adds the dev-mode attribute to every <link> in tag when handle is in the
// style closure.
func (a *Annotator) StyleTag(tag string, handle deps.Handle) string {
	if !a.styles.Has(handle) {
		return tag
	}
	return markOpening(linkOpen, tag)
}

func markOpening(re *regexp.Regexp, tag string) string {
	return re.ReplaceAllString(tag, "${1} "+DevModeAttr+"${2}")
}

// AnnotateDocument marks a fully rendered page: tags printed for closure handles and
// elements matched by the dev-mode rules.
func (a *Annotator) AnnotateDocument(html string) (string, error) {
	if !a.amp {
		return html, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("error parsing document: %w", err)
	}

	doc.Find("script[id]").Each(func(_ int, s *goquery.Selection) {
		if a.scripts.HasAny(handlesFromID(s, scriptIDSuffixes)...) {
			s.SetAttr(DevModeAttr, "")
		}
	})
	doc.Find("link[id], style[id]").Each(func(_ int, s *goquery.Selection) {
		if a.styles.HasAny(handlesFromID(s, styleIDSuffixes)...) {
			s.SetAttr(DevModeAttr, "")
		}
	})
	for _, r := range a.rules {
		r.Select(doc).SetAttr(DevModeAttr, "")
	}

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("error rendering document: %w", err)
	}
	return out, nil
}

// handlesFromID returns every handle the element id can name, one per matching suffix.
// "qm-inline-css" yields both "qm-inline" and "qm".
func handlesFromID(s *goquery.Selection, suffixes []string) []deps.Handle {
	id, _ := s.Attr("id")
	var out []deps.Handle
	for _, suf := range suffixes {
		if h := strings.TrimSuffix(id, suf); h != id && h != "" {
			out = append(out, h)
		}
	}
	return out
}
