package http

import (
	nethttp "net/http"

	"go-template-trends-ui/internal/config"
)

// settingsHandler reports the effective non-secret runtime settings.
func settingsHandler(cfg config.Config) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"data": map[string]any{
				"backend_url":               cfg.BackendURL,
				"backend_timeout":           cfg.BackendTimeout.String(),
				"max_upload_mb":             cfg.MaxUploadMB,
				"health_poll_interval":      cfg.HealthPollInterval.String(),
				"health_history_max_points": cfg.HealthHistoryMaxPoints,
				"activity_store":            cfg.ActivityStore,
			},
		})
	}
}
