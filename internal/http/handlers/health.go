package handlers

import (
	"net/http"
	"time"
)

var startedAt = time.Now()

// Health reports liveness. It deliberately touches no backend: the API keeps
// serving try-ons even when postgres or redis are down.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(startedAt).Round(time.Second).String(),
	})
}
