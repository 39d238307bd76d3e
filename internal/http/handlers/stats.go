package handlers

import (
	"net/http"
)

// StatsSummary reports the in-process counters, and when a database is
// wired, the persisted totals next to them.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"live_sessions": a.Studio.Len(),
		"runtime":       a.Studio.Metrics().Snapshot(),
	}
	if a.History != nil {
		totals, err := a.History.Totals(r.Context())
		if err != nil {
			a.error(w, r, http.StatusInternalServerError, "internal", "failed to load stored totals")
			return
		}
		payload["store"] = map[string]any{
			"sessions":        totals.Sessions,
			"renders_ok":      totals.RendersOK,
			"renders_blocked": totals.RendersBlocked,
			"renders_failed":  totals.RendersFailed,
		}
	}
	a.json(w, http.StatusOK, payload)
}
