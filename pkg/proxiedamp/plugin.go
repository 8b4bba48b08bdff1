// Package proxiedamp adjusts a content platform's AMP behaviour when it is served from behind a
// TLS-terminating CDN.
//
// It does three things: it sends AMP validation loopback requests over plain http while telling
// the origin the original scheme, it allow-lists the debugging toolbar's inline scripts for the
// AMP validator, and it marks the toolbar's assets and their dependencies with data-ampdevmode.
package proxiedamp

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/andesco/proxiedamp/pkg/deps"
)

// Hook documents one integration point: the host event, the function that serves it here,
// and what it changes.
type Hook struct {
	Event   string `json:"event"`
	Handler string `json:"handler"`
	Effect  string `json:"effect"`
}

// Hooks lists every host extension point this package attaches to.
var Hooks = []Hook{
	{
		Event:   "pre_http_request",
		Handler: "LoopbackTransport.RoundTrip",
		Effect:  "send same-host AMP validation requests over http with the original scheme in a header",
	},
	{
		Event:   "amp_dev_mode_element_xpaths",
		Handler: "Plugin.DevModeXPaths",
		Effect:  "exempt the toolbar's inline scripts from AMP validation",
	},
	{
		Event:   "wp_enqueue_scripts",
		Handler: "Plugin.NewAnnotator",
		Effect:  "compute the toolbar's script and style dependency closures on AMP pages",
	},
	{
		Event:   "script_loader_tag",
		Handler: "Annotator.ScriptTag",
		Effect:  "add data-ampdevmode to <script> tags of closure handles",
	},
	{
		Event:   "style_loader_tag",
		Handler: "Annotator.StyleTag",
		Effect:  "add data-ampdevmode to <link> tags of closure handles",
	},
}

// Plugin binds the behaviours to one host.
type Plugin struct {
	host Host
	cfg  Config

	schemeFilter     func(scheme string, req *http.Request) string
	headerNameFilter func(name string) string
	xpathFilter      func(xpaths []string) []string
	depsFilter       deps.Filter
	beforeSend       func(req *http.Request)
}

// Option customises a Plugin.
type Option func(*Plugin)

// WithSchemeFilter overrides the scheme announced on rewritten loopback requests.
func WithSchemeFilter(f func(scheme string, req *http.Request) string) Option {
	return func(p *Plugin) { p.schemeFilter = f }
}

// WithHeaderNameFilter overrides the header that carries the original scheme.
func WithHeaderNameFilter(f func(name string) string) Option {
	return func(p *Plugin) { p.headerNameFilter = f }
}

// WithXPathFilter post-processes the dev-mode XPath list.
func WithXPathFilter(f func(xpaths []string) []string) Option {
	return func(p *Plugin) { p.xpathFilter = f }
}

// WithDepsFilter post-processes every dependency closure.
func WithDepsFilter(f deps.Filter) Option {
	return func(p *Plugin) { p.depsFilter = f }
}

// WithBeforeSend is called with each rewritten loopback request before it is sent.
func WithBeforeSend(f func(req *http.Request)) Option {
	return func(p *Plugin) { p.beforeSend = f }
}

// Bootstrap attaches the plugin to host. A nil host behaves as one with no capabilities.
func Bootstrap(host Host, cfg Config, opts ...Option) *Plugin {
	if host == nil {
		host = noHost{}
	}
	p := &Plugin{
		host: host,
		cfg:  cfg.withDefaults(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Host returns the host the plugin is attached to.
func (p *Plugin) Host() Host { return p.host }

// Config returns the effective configuration.
func (p *Plugin) Config() Config { return p.cfg }

func (p *Plugin) scheme(req *http.Request) string {
	if p.schemeFilter == nil {
		return p.cfg.Scheme
	}
	return p.schemeFilter(p.cfg.Scheme, req)
}

func (p *Plugin) headerName() string {
	if p.headerNameFilter == nil {
		return p.cfg.HeaderName
	}
	return p.headerNameFilter(p.cfg.HeaderName)
}

// AssetKind selects one of the host's asset registries.
type AssetKind string

const (
	KindScripts AssetKind = "scripts"
	KindStyles  AssetKind = "styles"
)

// ErrUnknownKind is returned for an AssetKind other than scripts or styles.
var ErrUnknownKind = errors.New("unknown asset kind")

// Closure returns handle together with its transitive dependencies in the kind registry.
func (p *Plugin) Closure(kind AssetKind, handle deps.Handle) (deps.Set, error) {
	switch kind {
	case KindScripts:
		return deps.Closure(p.host.Scripts(), p.depsFilter, handle), nil
	case KindStyles:
		return deps.Closure(p.host.Styles(), p.depsFilter, handle), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
