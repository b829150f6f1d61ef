package internal

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	v1 "github.com/stape-io/awin-conversion-api-tag/api/v1"
	"github.com/stape-io/awin-conversion-api-tag/internal/http/middleware"
	"github.com/stape-io/awin-conversion-api-tag/internal/version"
)

// publicCORSConfig is the CORS setup for the public event endpoint; the
// event request may come straight from a browser context.
var publicCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent, trace-id",
}

// mountRoutes mounts the health check and the event ingestion endpoint.
func (a *Application) mountRoutes() {
	a.fiber.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"version": version.Current(a.cfg),
		})
	})

	api := a.fiber.Group("/api/v1",
		cors.New(publicCORSConfig),
		middleware.InboundAPIKeyAuth(a.cfg.InboundAPIKey, a.logger),
	)
	api.Post("/events", v1.TrackEventHandler(a.cfg, a.pipeline, a.logger))
}
