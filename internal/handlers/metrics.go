package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"github.com/KevinVandy/pointmystory-sub000/internal/services"
)

// HandleMetrics returns push-layer counters and process stats.
func HandleMetrics(metrics *services.Metrics) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, metrics.Snapshot())
	}
}

// HandleHealth is a lightweight liveness probe.
func HandleHealth(metrics *services.Metrics) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		snapshot := metrics.Snapshot()
		return e.JSON(http.StatusOK, map[string]interface{}{
			"status":             "ok",
			"active_connections": snapshot.ActiveConnections,
			"active_rooms":       snapshot.ActiveRooms,
			"uptime_seconds":     snapshot.UptimeSeconds,
		})
	}
}
