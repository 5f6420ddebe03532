package handlers

import (
	"context"
	"time"

	"github.com/inventory-system/api/internal/api/pipeline"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db           Pinger
	probeTimeout time.Duration
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, probeTimeout: 3 * time.Second}
}

// Liveness godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /health [get]
func (h *HealthHandler) Liveness(c *pipeline.Context) (any, error) {
	return "server is running", nil
}

// Readiness godoc
// @Summary      Readiness probe
// @Description  Checks that the database answers a ping.
// @Tags         health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /health/ready [get]
func (h *HealthHandler) Readiness(c *pipeline.Context) (any, error) {
	ctx, cancel := context.WithTimeout(c.Context(), h.probeTimeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		return nil, err
	}
	return map[string]string{"status": "ready"}, nil
}
