package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/openlearn-vn/openlearn-api/internal/config"
	"github.com/openlearn-vn/openlearn-api/internal/utils"
)

// HealthResponse is the payload returned by the health endpoint. Uptime is
// measured from process start so deploy tooling can detect restarts.
type HealthResponse struct {
	Status      string    `json:"status"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      string    `json:"uptime"`
}

var startedAt = time.Now()

// HealthCheck reports liveness. It deliberately touches no downstream
// dependency; readiness of postgres/redis/NATS is the orchestrator's
// concern.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Timestamp:   time.Now().UTC(),
			Uptime:      time.Since(startedAt).Round(time.Second).String(),
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
