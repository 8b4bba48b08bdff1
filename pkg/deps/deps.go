// Package deps resolves the transitive dependencies of registered front-end assets.
//
// The registry is owned by the host. This package only reads it and never caches a result:
// every call to Resolve walks the registry again.
package deps

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Handle names a registered script or stylesheet.
type Handle = string

// Registry is a read-only view of the host's asset registry.
//
// Deps returns the direct dependencies of h. ok is false when h is not registered,
// in which case h is treated as a leaf.
type Registry interface {
	Deps(h Handle) (deps []Handle, ok bool)
}

// Map is a Registry backed by a plain map.
type Map map[Handle][]Handle

// Deps implements Registry.
func (m Map) Deps(h Handle) ([]Handle, bool) {
	d, ok := m[h]
	return d, ok
}

// LoadMap reads a YAML file of the form
//
//	query-monitor: [jquery]
//	jquery: [jquery-core, jquery-migrate]
func LoadMap(path string) (Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file '%s': %w", path, err)
	}

	var m Map
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("syntax error in registry file '%s': %w", path, err)
	}
	if m == nil {
		m = Map{}
	}
	return m, nil
}

// Set is an unordered set of handles.
type Set map[Handle]struct{}

// NewSet returns a set holding hs.
func NewSet(hs ...Handle) Set {
	s := make(Set, len(hs))
	for _, h := range hs {
		s[h] = struct{}{}
	}
	return s
}

// Has reports whether h is in the set.
func (s Set) Has(h Handle) bool {
	_, ok := s[h]
	return ok
}

// HasAny reports whether any of hs is in the set.
func (s Set) HasAny(hs ...Handle) bool {
	for _, h := range hs {
		if s.Has(h) {
			return true
		}
	}
	return false
}

// Add inserts h and reports whether it was not already present.
func (s Set) Add(h Handle) bool {
	if _, ok := s[h]; ok {
		return false
	}
	s[h] = struct{}{}
	return true
}

// Union returns a new set with the members of s and other.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for h := range s {
		out[h] = struct{}{}
	}
	for h := range other {
		out[h] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []Handle {
	out := make([]Handle, 0, len(s))
	for h := range s {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
