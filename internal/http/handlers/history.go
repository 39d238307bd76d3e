package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/store"

	"github.com/go-chi/chi/v5"
)

func historySessionItem(record store.SessionRecord) map[string]any {
	item := map[string]any{
		"id":         record.ID,
		"locale":     record.Locale,
		"face_shape": record.FaceShape,
		"hairstyles": record.Hairstyles,
		"created_at": record.CreatedAt,
		"updated_at": record.UpdatedAt,
	}
	if record.HairLength != "" {
		item["original_hair_length"] = record.HairLength
	}
	return item
}

func (a *App) HistoryRecent(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, r, http.StatusServiceUnavailable, "history_disabled", "history requires a database")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := a.History.Recent(r.Context(), limit)
	if err != nil {
		a.error(w, r, http.StatusInternalServerError, "internal", "failed to load history")
		return
	}

	items := make([]map[string]any, 0, len(records))
	for _, record := range records {
		items = append(items, historySessionItem(record))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) HistorySession(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, r, http.StatusServiceUnavailable, "history_disabled", "history requires a database")
		return
	}

	id := chi.URLParam(r, "id")
	record, renders, err := a.History.Session(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, r, http.StatusNotFound, "not_found", "no stored session with that id")
		return
	}
	if err != nil {
		a.error(w, r, http.StatusInternalServerError, "internal", "failed to load session")
		return
	}

	items := make([]map[string]any, 0, len(renders))
	for _, render := range renders {
		item := map[string]any{
			"run_id":     render.RunID,
			"preference": render.Preference,
			"hairstyle":  render.Hairstyle,
			"status":     render.Status,
			"created_at": render.CreatedAt,
		}
		if render.Caption != "" {
			item["caption"] = render.Caption
		}
		if render.ErrorMessage != "" {
			item["error"] = render.ErrorMessage
		}
		if render.StorageKey != "" {
			item["storage_key"] = render.StorageKey
		}
		items = append(items, item)
	}

	payload := historySessionItem(*record)
	payload["renders"] = items
	a.json(w, http.StatusOK, payload)
}
