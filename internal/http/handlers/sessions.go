package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/imaging"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/middleware"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/studio"

	"github.com/go-chi/chi/v5"
)

// maxSelfieBytes caps uploads well above what a phone camera produces while
// keeping the whole photo comfortably inside one model request.
const maxSelfieBytes = 8 << 20

type outcomePayload struct {
	Hairstyle  string `json:"hairstyle"`
	Slug       string `json:"slug"`
	Status     string `json:"status"`
	Caption    string `json:"caption,omitempty"`
	Error      string `json:"error,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	StorageKey string `json:"storage_key,omitempty"`
}

type sessionPayload struct {
	ID         string               `json:"id"`
	State      string               `json:"state"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
	Locale     string               `json:"locale,omitempty"`
	SelfieMIME string               `json:"selfie_mime,omitempty"`
	Analysis   *domain.FaceAnalysis `json:"analysis,omitempty"`
	Preference string               `json:"preference,omitempty"`
	RunID      string               `json:"run_id,omitempty"`
	Outcomes   []outcomePayload     `json:"outcomes,omitempty"`
	LastError  string               `json:"last_error,omitempty"`
}

func outcomeStatus(o domain.GenerationOutcome) string {
	switch {
	case o.Pending:
		return "pending"
	case o.Image != nil:
		return "ok"
	case o.Blocked:
		return "blocked"
	default:
		return "failed"
	}
}

func outcomeResponse(sessionID string, o domain.GenerationOutcome) outcomePayload {
	slug := domain.Slug(o.Hairstyle)
	payload := outcomePayload{
		Hairstyle:  o.Hairstyle,
		Slug:       slug,
		Status:     outcomeStatus(o),
		Caption:    o.Caption,
		Error:      o.ErrorMessage,
		StorageKey: o.StorageKey,
	}
	if o.Image != nil {
		payload.ImageURL = fmt.Sprintf("/v1/sessions/%s/outcomes/%s/image", sessionID, slug)
	}
	return payload
}

func sessionResponse(snap studio.Snapshot) sessionPayload {
	payload := sessionPayload{
		ID:         snap.ID,
		State:      string(snap.State),
		CreatedAt:  snap.CreatedAt,
		UpdatedAt:  snap.UpdatedAt,
		Locale:     snap.Locale,
		SelfieMIME: snap.SelfieMIME,
		Analysis:   snap.Analysis,
		Preference: string(snap.Preference),
		RunID:      snap.RunID,
		LastError:  snap.LastError,
	}
	for _, o := range snap.Outcomes {
		payload.Outcomes = append(payload.Outcomes, outcomeResponse(snap.ID, o))
	}
	return payload
}

func (a *App) SessionCreate(w http.ResponseWriter, r *http.Request) {
	sess := a.Studio.Create()
	a.json(w, http.StatusCreated, sessionResponse(sess.Snapshot()))
}

func (a *App) SessionGet(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}
	a.json(w, http.StatusOK, sessionResponse(sess.Snapshot()))
}

func (a *App) SessionDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.Studio.Delete(chi.URLParam(r, "id")); err != nil {
		a.error(w, r, http.StatusNotFound, "not_found", "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) SessionReset(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}
	a.json(w, http.StatusOK, sessionResponse(sess.Reset()))
}

// SelfieUpload accepts a multipart form with the photo under the "image"
// field. Attaching a new selfie discards any analysis and renders from the
// previous one.
func (a *App) SelfieUpload(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSelfieBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, r, http.StatusRequestEntityTooLarge, "selfie_too_large", "selfie exceeds the 8 MiB limit")
			return
		}
		a.error(w, r, http.StatusBadRequest, "bad_request", "multipart field \"image\" required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, r, http.StatusRequestEntityTooLarge, "selfie_too_large", "selfie exceeds the 8 MiB limit")
			return
		}
		a.error(w, r, http.StatusBadRequest, "bad_request", "could not read upload")
		return
	}

	img, err := imaging.Encode(data, header.Header.Get("Content-Type"))
	if err != nil {
		a.error(w, r, http.StatusBadRequest, "unsupported_image", err.Error())
		return
	}

	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, http.StatusOK, sessionResponse(sess.AttachSelfie(img, locale)))
}

func (a *App) SessionAnalyze(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}

	snap, err := sess.Analyze(r.Context())
	switch {
	case err == nil:
		a.json(w, http.StatusOK, sessionResponse(snap))
	case errors.Is(err, domain.ErrNoSelfie):
		a.error(w, r, http.StatusConflict, "no_selfie", "upload a selfie before requesting analysis")
	case errors.Is(err, domain.ErrConflict):
		a.error(w, r, http.StatusConflict, "conflict", err.Error())
	default:
		a.Logger.Warn().Err(err).Str("session", sess.ID()).Msg("analysis failed")
		a.error(w, r, http.StatusBadGateway, "analysis_failed", "face analysis failed, please try again")
	}
}

type generateRequest struct {
	Preference string `json:"preference"`
}

// SessionGenerate starts one render per suggested hairstyle and returns
// immediately; pass ?wait=1 to block until the whole run settles.
func (a *App) SessionGenerate(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	pref, err := domain.ParseCutPreference(req.Preference)
	if err != nil {
		a.error(w, r, http.StatusBadRequest, "invalid_preference", "preference must be one of light_trim, medium, short, very_short")
		return
	}

	snap, err := sess.Generate(pref)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoAnalysis):
		a.error(w, r, http.StatusConflict, "no_analysis", "run the analysis before generating renders")
		return
	case errors.Is(err, domain.ErrConflict):
		a.error(w, r, http.StatusConflict, "conflict", err.Error())
		return
	case errors.Is(err, domain.ErrInvalidPreference):
		a.error(w, r, http.StatusBadRequest, "invalid_preference", err.Error())
		return
	default:
		a.Logger.Error().Err(err).Str("session", sess.ID()).Msg("generate failed")
		a.error(w, r, http.StatusInternalServerError, "internal", "could not start generation")
		return
	}

	if wait := r.URL.Query().Get("wait"); wait == "1" || wait == "true" {
		if err := sess.WaitSettled(r.Context()); err != nil {
			a.error(w, r, http.StatusRequestTimeout, "timeout", "generation did not settle before the request ended")
			return
		}
		a.json(w, http.StatusOK, sessionResponse(sess.Snapshot()))
		return
	}
	a.json(w, http.StatusAccepted, sessionResponse(snap))
}
