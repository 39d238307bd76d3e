package handlers

import (
	"fmt"
	"net/http"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/pkg/zip"

	"github.com/go-chi/chi/v5"
)

// OutcomeImage serves the rendered photo for one hairstyle of the current
// run as raw bytes. The style segment accepts the hairstyle name or its slug.
func (a *App) OutcomeImage(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}

	style := chi.URLParam(r, "style")
	outcome, ok := sess.Outcome(style)
	if !ok {
		a.error(w, r, http.StatusNotFound, "not_found", "no such hairstyle in the current run")
		return
	}
	if outcome.Pending {
		a.error(w, r, http.StatusConflict, "not_ready", "this rendering has not settled yet")
		return
	}
	if outcome.Image == nil {
		message := "this hairstyle produced no image"
		if outcome.ErrorMessage != "" {
			message = outcome.ErrorMessage
		}
		a.error(w, r, http.StatusNotFound, "no_image", message)
		return
	}

	data, err := outcome.Image.Decode()
	if err != nil {
		a.error(w, r, http.StatusInternalServerError, "internal", "stored image is not decodable")
		return
	}
	w.Header().Set("Content-Type", outcome.Image.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s%s", domain.Slug(outcome.Hairstyle), outcome.Image.Ext()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// SessionArchive bundles every settled image of the current run into one zip
// download.
func (a *App) SessionArchive(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}

	snap := sess.Snapshot()
	var entries []zip.Entry
	for _, outcome := range snap.Outcomes {
		if outcome.Image == nil {
			continue
		}
		data, err := outcome.Image.Decode()
		if err != nil {
			continue
		}
		entries = append(entries, zip.Entry{
			Filename: domain.Slug(outcome.Hairstyle) + outcome.Image.Ext(),
			Data:     data,
		})
	}
	if len(entries) == 0 {
		a.error(w, r, http.StatusNotFound, "no_images", "no settled images to download")
		return
	}

	archive, err := zip.Archive(entries)
	if err != nil {
		a.error(w, r, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=tryon-%s.zip", snap.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
