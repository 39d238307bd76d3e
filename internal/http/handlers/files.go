package handlers

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/storage"

	"github.com/go-chi/chi/v5"
)

// FileDownload serves a persisted render by its storage key, as reported in
// history entries.
func (a *App) FileDownload(w http.ResponseWriter, r *http.Request) {
	if a.Files == nil {
		a.error(w, r, http.StatusServiceUnavailable, "storage_disabled", "file storage is not configured")
		return
	}

	key := chi.URLParam(r, "*")
	data, err := a.Files.Read(key)
	if errors.Is(err, storage.ErrNotFound) {
		a.error(w, r, http.StatusNotFound, "not_found", "no file under that key")
		return
	}
	if err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "file key rejected")
		return
	}

	w.Header().Set("Content-Type", contentTypeForKey(key))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}
