package proxiedamp

import (
	"fmt"
	"net/http"
	"os"

	"github.com/andesco/proxiedamp/pkg/deps"
	"gopkg.in/yaml.v3"
)

// Host is the read-only view of the content platform this layer patches.
type Host interface {
	// HomeURL is the public URL of the site.
	HomeURL() string
	// ValidationAvailable reports whether the AMP validation subsystem is loaded.
	ValidationAvailable() bool
	// IsAMP reports whether r is rendered as an AMP page.
	IsAMP(r *http.Request) bool
	Scripts() deps.Registry
	Styles() deps.Registry
	ScriptEnqueued(h deps.Handle) bool
	StyleEnqueued(h deps.Handle) bool
}

// noHost stands in for a missing host: every capability is absent.
type noHost struct{}

func (noHost) HomeURL() string                 { return "" }
func (noHost) ValidationAvailable() bool       { return false }
func (noHost) IsAMP(*http.Request) bool        { return false }
func (noHost) Scripts() deps.Registry          { return deps.Map{} }
func (noHost) Styles() deps.Registry           { return deps.Map{} }
func (noHost) ScriptEnqueued(deps.Handle) bool { return false }
func (noHost) StyleEnqueued(deps.Handle) bool  { return false }

// Assets is one asset registry together with the handles queued for output.
type Assets struct {
	Registered deps.Map      `yaml:"registered,omitempty"`
	Enqueued   []deps.Handle `yaml:"enqueued,omitempty"`
}

func (a Assets) enqueued(h deps.Handle) bool {
	for _, e := range a.Enqueued {
		if e == h {
			return true
		}
	}
	return false
}

// StaticHost is a Host described by a fixed snapshot, typically loaded from YAML.
type StaticHost struct {
	Home       string `yaml:"home_url"`
	Validation bool   `yaml:"validation"`
	// AMP forces every request to be treated as AMP.
	AMP bool `yaml:"amp,omitempty"`
	// AMPQueryVar marks a request as AMP when present in its query string.
	AMPQueryVar  string `yaml:"amp_query_var,omitempty"`
	ScriptAssets Assets `yaml:"scripts,omitempty"`
	StyleAssets  Assets `yaml:"styles,omitempty"`
}

// LoadStaticHost reads a StaticHost snapshot from a YAML file.
func LoadStaticHost(path string) (*StaticHost, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read host file '%s': %w", path, err)
	}

	h := &StaticHost{}
	if err := yaml.Unmarshal(raw, h); err != nil {
		return nil, fmt.Errorf("syntax error in host file '%s': %w", path, err)
	}
	if h.AMPQueryVar == "" {
		h.AMPQueryVar = "amp"
	}
	return h, nil
}

func (h *StaticHost) HomeURL() string           { return h.Home }
func (h *StaticHost) ValidationAvailable() bool { return h.Validation }

func (h *StaticHost) IsAMP(r *http.Request) bool {
	if h.AMP {
		return true
	}
	if r == nil || r.URL == nil || h.AMPQueryVar == "" {
		return false
	}
	_, ok := r.URL.Query()[h.AMPQueryVar]
	return ok
}

func (h *StaticHost) Scripts() deps.Registry { return registry(h.ScriptAssets.Registered) }
func (h *StaticHost) Styles() deps.Registry  { return registry(h.StyleAssets.Registered) }

func (h *StaticHost) ScriptEnqueued(handle deps.Handle) bool {
	return h.ScriptAssets.enqueued(handle)
}

func (h *StaticHost) StyleEnqueued(handle deps.Handle) bool {
	return h.StyleAssets.enqueued(handle)
}

func registry(m deps.Map) deps.Registry {
	if m == nil {
		return deps.Map{}
	}
	return m
}
