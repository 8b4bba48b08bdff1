package proxiedamp

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// devModeXPaths match the inline scripts the debugging toolbar prints.
var devModeXPaths = []string{
	`//script[ contains( text(), "qm_number_format" ) ]`,
	`//script[ contains( text(), "QM_i18n" ) ]`,
	`//script[ contains( text(), "query-monitor-" ) ]`,
}

// DevModeXPaths returns xpaths with the toolbar rules and any configured extras appended.
// The input slice is not modified.
func (p *Plugin) DevModeXPaths(xpaths []string) []string {
	out := make([]string, 0, len(xpaths)+len(devModeXPaths)+len(p.cfg.ExtraXPaths))
	out = append(out, xpaths...)
	out = append(out, devModeXPaths...)
	for _, x := range p.cfg.ExtraXPaths {
		if x = strings.TrimSpace(x); x != "" {
			out = append(out, x)
		}
	}

	if p.xpathFilter != nil {
		out = p.xpathFilter(out)
	}
	return out
}

// Rule is the subset of XPath understood here: an element whose text contains Needle.
type Rule struct {
	Tag    string
	Needle string
}

var xpathContains = regexp.MustCompile(`^//([A-Za-z][A-Za-z0-9-]*)\[\s*contains\(\s*text\(\)\s*,\s*(?:"([^"]*)"|'([^']*)')\s*\)\s*\]$`)

// ParseXPath parses expressions of the form //tag[ contains( text(), "needle" ) ].
func ParseXPath(expr string) (Rule, error) {
	m := xpathContains.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return Rule{}, fmt.Errorf("unsupported xpath expression: %s", expr)
	}
	needle := m[2]
	if needle == "" {
		needle = m[3]
	}
	return Rule{Tag: strings.ToLower(m[1]), Needle: needle}, nil
}

// String renders r back as an XPath expression.
func (r Rule) String() string {
	return fmt.Sprintf(`//%s[ contains( text(), "%s" ) ]`, r.Tag, r.Needle)
}

// Select returns the elements of doc matched by r.
func (r Rule) Select(doc *goquery.Document) *goquery.Selection {
	return doc.Find(r.Tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), r.Needle)
	})
}

// devModeRules parses the effective XPath list, skipping expressions outside the
// supported subset.
func (p *Plugin) devModeRules() []Rule {
	xpaths := p.DevModeXPaths(nil)
	rules := make([]Rule, 0, len(xpaths))
	for _, x := range xpaths {
		r, err := ParseXPath(x)
		if err != nil {
			log.Printf("WARN: Skipping dev-mode rule: %v", err)
			continue
		}
		rules = append(rules, r)
	}
	return rules
}
