package v1

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/stape-io/awin-conversion-api-tag/internal/config"
	"github.com/stape-io/awin-conversion-api-tag/internal/event"
	"github.com/stape-io/awin-conversion-api-tag/internal/pipeline"
)

const (
	msgEventAccepted = "Event accepted"
	errInvalidBody   = "Invalid request body"
	errEventRejected = "Event rejected"
)

// TrackEventHandler receives one tracking event, runs it through the
// pipeline and applies any resulting cookie writes to the response.
func TrackEventHandler(cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger.Info("Received tracking event",
			slog.String("method", c.Method()), slog.String("path", c.Path()))

		env, err := event.DecodeEnvelope(c.Body())
		if err != nil {
			logger.Debug("Failed to decode event request", slog.Any("error", err))
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": errInvalidBody,
				"code":  "INVALID_REQUEST",
			})
		}

		tag, err := cfg.TagFor(env.Config)
		if err != nil {
			logger.Debug("Failed to apply config overrides", slog.Any("error", err))
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid config overrides",
				"code":  "INVALID_CONFIG",
			})
		}

		traceID := c.Get("trace-id")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ev := event.BuildContext(env, traceID, c.Get("Referer"), requestCookies(c))

		result := p.Handle(c.UserContext(), tag, ev)
		for _, cookie := range result.Cookies {
			c.Cookie(cookie)
		}

		switch result.Outcome {
		case pipeline.OutcomeSuccess:
			logger.Info("Event processed successfully", slog.String("trace_id", traceID))
			return c.Status(http.StatusAccepted).JSON(fiber.Map{
				"message": msgEventAccepted,
				"status":  http.StatusAccepted,
			})
		case pipeline.OutcomeUpstreamFailure:
			logger.Info("Upstream delivery failed", slog.String("trace_id", traceID))
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{
				"error": "Upstream delivery failed",
				"code":  "UPSTREAM_FAILED",
			})
		default:
			logger.Info("Event rejected", slog.String("trace_id", traceID))
			return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": errEventRejected,
				"code":  "EVENT_REJECTED",
			})
		}
	}
}

// requestCookies snapshots the inbound cookie jar.
func requestCookies(c *fiber.Ctx) map[string]string {
	jar := make(map[string]string)
	c.Request().Header.VisitAllCookie(func(key, value []byte) {
		jar[string(key)] = string(value)
	})
	return jar
}
