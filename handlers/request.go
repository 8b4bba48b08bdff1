package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// httpRequest rebuilds the incoming request as a *http.Request so the host collaborator can
// inspect it.
func httpRequest(c *fiber.Ctx) (*http.Request, error) {
	// FullURI handles both origin-form and absolute-form request targets.
	target := string(c.Request().URI().FullURI())
	req, err := http.NewRequestWithContext(c.UserContext(), c.Method(), target, nil)
	if err != nil {
		return nil, fmt.Errorf("error building request for '%s': %w", target, err)
	}

	// Convert Fiber headers to http.Header
	c.Request().Header.VisitAll(func(key, value []byte) {
		req.Header.Add(string(key), string(value))
	})
	req.Host = c.Hostname()
	return req, nil
}
