package http

import (
	"context"
	nethttp "net/http"
	"time"

	"go-template-trends-ui/internal/connectors/activity"
	"go-template-trends-ui/internal/dashboard"
)

func servicesStatusHandler(dash *dashboard.Dashboard, store activity.Store, storeKind string) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
		defer cancel()

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"generated_at": time.Now().UTC(),
			"services": map[string]any{
				"backend":      backendStatus(ctx, dash),
				"activity_log": activityStatus(ctx, store, storeKind),
			},
		})
	}
}

func backendStatus(ctx context.Context, dash *dashboard.Dashboard) map[string]any {
	badge, elapsed, err := dash.Health.Check(ctx)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "badge": badge.Text, "error": err.Error()}
	}
	return map[string]any{
		"enabled":    true,
		"ok":         true,
		"badge":      badge.Text,
		"latency_ms": elapsed.Milliseconds(),
	}
}

func activityStatus(ctx context.Context, store activity.Store, kind string) map[string]any {
	if _, ok := store.(activity.Nop); ok || store == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "activity log disabled (set APP_ACTIVITY_STORE)"}
	}

	start := time.Now()
	if _, err := store.Recent(ctx, 1); err != nil {
		return map[string]any{"enabled": true, "ok": false, "store": kind, "error": err.Error()}
	}
	return map[string]any{"enabled": true, "ok": true, "store": kind, "latency_ms": time.Since(start).Milliseconds()}
}
