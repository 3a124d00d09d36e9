package handlers

import (
	"net/http"

	"github.com/bitagora/paywatch/internal/config"
	"github.com/bitagora/paywatch/internal/httputil"
	"github.com/bitagora/paywatch/internal/monitor"
)

// HealthHandler returns a handler for GET /api/health. Always open.
func HealthHandler(cfg *config.Config, m *monitor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":          "ok",
			"network":         cfg.Network,
			"active_sessions": m.ActiveCount(),
		})
	}
}
