package handlers

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/andesco/proxiedamp/pkg/proxiedamp"
)

// DevMode is a Fiber middleware that marks the debugging toolbar's markup on AMP pages.
// Non-HTML responses and non-AMP requests pass through untouched.
func DevMode(p *proxiedamp.Plugin) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}

		contentType := string(c.Response().Header.ContentType())
		if !strings.HasPrefix(contentType, fiber.MIMETextHTML) {
			return nil
		}

		req, err := httpRequest(c)
		if err != nil {
			log.Println("ERROR:", err)
			return nil
		}

		a := p.NewAnnotator(req)
		if !a.Active() {
			return nil
		}

		body, err := a.AnnotateDocument(string(c.Response().Body()))
		if err != nil {
			log.Printf("WARN: Could not annotate %s: %v", c.OriginalURL(), err)
			return nil
		}
		if os.Getenv("LOG_URLS") == "true" {
			log.Printf("annotated AMP page '%s'", c.OriginalURL())
		}

		c.Response().SetBodyString(body)
		return nil
	}
}
