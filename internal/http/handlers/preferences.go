package handlers

import (
	"net/http"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
)

func (a *App) PreferenceCatalog(w http.ResponseWriter, r *http.Request) {
	items := make([]map[string]any, 0, len(domain.Preferences))
	for _, pref := range domain.Preferences {
		items = append(items, map[string]any{
			"value":     pref,
			"label":     pref.Label(),
			"directive": domain.SeverityDirectives[pref],
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
