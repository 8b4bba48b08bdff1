package proxiedamp

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
)

// RewriteLoopback returns a copy of req aimed at the plain http origin, with the original
// scheme announced in the configured header. ok is false, and req is returned untouched, when
// req is not a same-host AMP validation request over a secure scheme.
func (p *Plugin) RewriteLoopback(req *http.Request) (*http.Request, bool) {
	if !p.isLoopback(req) {
		return req, false
	}

	scheme := p.scheme(req)
	headerName := p.headerName()

	out := req.Clone(req.Context())
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	if p.cfg.LogRequests {
		log.Printf("DEBUG: loopback request headers for %s: %v", req.URL.Redacted(), out.Header)
	}
	out.Header.Set(headerName, scheme)
	out.URL.Scheme = "http"

	if p.beforeSend != nil {
		p.beforeSend(out)
	}
	return out, true
}

// isLoopback reports whether req is a same-host AMP validation request over a secure scheme.
func (p *Plugin) isLoopback(req *http.Request) bool {
	if req == nil || req.URL == nil {
		return false
	}
	if !p.host.ValidationAvailable() {
		return false
	}
	if !strings.Contains(req.URL.String(), p.cfg.ValidateQueryVar) {
		return false
	}
	if req.URL.Scheme == "http" {
		return false
	}
	return sameHost(req.URL, p.host.HomeURL())
}

func sameHost(u *url.URL, home string) bool {
	h, err := url.Parse(home)
	if err != nil {
		log.Printf("WARN: Could not parse home URL '%s': %v", home, err)
		return false
	}
	return strings.EqualFold(u.Hostname(), h.Hostname())
}

// LoopbackTransport rewrites AMP validation loopback requests before handing them to Next.
type LoopbackTransport struct {
	Plugin *Plugin
	// Next defaults to http.DefaultTransport.
	Next http.RoundTripper
}

// RoundTrip implements http.RoundTripper. The rewritten request goes straight to Next.
// Redirect hops come back through RoundTrip; use Plugin.Client to stop them being rewritten
// again.
func (t *LoopbackTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.Next
	if next == nil {
		next = http.DefaultTransport
	}
	if t.Plugin != nil {
		if out, ok := t.Plugin.RewriteLoopback(req); ok {
			return next.RoundTrip(out)
		}
	}
	return next.RoundTrip(req)
}

// Client returns a copy of base whose transport applies RewriteLoopback.
// A nil base is treated as http.DefaultClient.
//
// A loopback request is rewritten once: when it is redirected to another loopback URL the
// redirect response is returned instead of being followed.
func (p *Plugin) Client(base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	c := *base
	c.Transport = &LoopbackTransport{Plugin: p, Next: base.Transport}

	checkRedirect := base.CheckRedirect
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) > 0 && p.isLoopback(via[0]) && p.isLoopback(req) {
			return http.ErrUseLastResponse
		}
		if checkRedirect != nil {
			return checkRedirect(req, via)
		}
		if len(via) >= maxRedirects {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}
	return &c
}

// maxRedirects matches the net/http client default.
const maxRedirects = 10
