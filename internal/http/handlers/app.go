package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/infra"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/middleware"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/storage"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/store"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/studio"

	"github.com/go-chi/chi/v5"
)

// HistoryStore is the slice of the persistence layer the read endpoints use.
type HistoryStore interface {
	Recent(ctx context.Context, limit int) ([]store.SessionRecord, error)
	Session(ctx context.Context, id string) (*store.SessionRecord, []store.RenderRecord, error)
	Totals(ctx context.Context) (store.Totals, error)
}

// App bundles everything the HTTP handlers need. History and Files are
// optional: without a database the history endpoints report themselves
// disabled, and without a storage path settled images only live as long as
// their session.
type App struct {
	Config  *infra.Config
	Logger  zerolog.Logger
	Studio  *studio.Manager
	History HistoryStore
	Files   *storage.FileStore
	Country middleware.CountryLookup
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	a.json(w, status, map[string]any{"error": errorBody{
		Code:      code,
		Message:   message,
		RequestID: middleware.RequestIDFromContext(r.Context()),
	}})
}

// session resolves the {id} route parameter. On a miss it writes the 404
// itself and returns nil.
func (a *App) session(w http.ResponseWriter, r *http.Request) *studio.Session {
	id := chi.URLParam(r, "id")
	sess, err := a.Studio.Get(id)
	if err != nil {
		a.error(w, r, http.StatusNotFound, "not_found", "session not found")
		return nil
	}
	return sess
}
