package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/andesco/proxiedamp/pkg/proxiedamp"
)

// Closure serves GET /deps/:kind/:handle with the handle's dependency closure.
func Closure(p *proxiedamp.Plugin) fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind := proxiedamp.AssetKind(c.Params("kind"))
		handle := c.Params("handle")

		set, err := p.Closure(kind, handle)
		if errors.Is(err, proxiedamp.ErrUnknownKind) {
			return c.Status(fiber.StatusNotFound).SendString(err.Error())
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}

		return c.JSON(fiber.Map{
			"kind":    kind,
			"handle":  handle,
			"handles": set.Sorted(),
		})
	}
}

// XPaths serves the dev-mode XPath rules handed to the AMP validator.
func XPaths(p *proxiedamp.Plugin) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(p.DevModeXPaths(nil))
	}
}

// Hooks serves the list of host extension points.
func Hooks(c *fiber.Ctx) error {
	return c.JSON(proxiedamp.Hooks)
}

// Register mounts the API routes on app.
func Register(app *fiber.App, p *proxiedamp.Plugin) {
	api := app.Group("/_proxiedamp")
	api.Get("/deps/:kind/:handle", Closure(p))
	api.Get("/xpaths", XPaths(p))
	api.Get("/hooks", Hooks)
}
