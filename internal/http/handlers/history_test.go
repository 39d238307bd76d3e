package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/storage"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/store"
)

type fakeHistory struct {
	recent  []store.SessionRecord
	session *store.SessionRecord
	renders []store.RenderRecord
	totals  store.Totals
}

func (f *fakeHistory) Recent(ctx context.Context, limit int) ([]store.SessionRecord, error) {
	return f.recent, nil
}

func (f *fakeHistory) Session(ctx context.Context, id string) (*store.SessionRecord, []store.RenderRecord, error) {
	if f.session == nil || f.session.ID != id {
		return nil, nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
	}
	return f.session, f.renders, nil
}

func (f *fakeHistory) Totals(ctx context.Context) (store.Totals, error) {
	return f.totals, nil
}

func TestHistoryDisabledWithoutDatabase(t *testing.T) {
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.HistoryRecent(rec, httptest.NewRequest("GET", "/v1/history", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "history_disabled" {
		t.Fatalf("error code = %q", code)
	}
}

func TestHistoryRecentListsSessions(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	app := newTestApp(t, func(a *App) {
		a.History = &fakeHistory{recent: []store.SessionRecord{
			{
				ID:         "sess-1",
				Locale:     "id",
				FaceShape:  "round",
				HairLength: "long",
				Hairstyles: []domain.HairstyleSuggestion{{Name: "Quiff"}},
				CreatedAt:  now,
				UpdatedAt:  now,
			},
		}}
	})

	rec := httptest.NewRecorder()
	app.HistoryRecent(rec, httptest.NewRequest("GET", "/v1/history?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var payload struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Items) != 1 {
		t.Fatalf("items = %d", len(payload.Items))
	}
	item := payload.Items[0]
	if item["id"] != "sess-1" || item["face_shape"] != "round" || item["original_hair_length"] != "long" {
		t.Fatalf("item = %#v", item)
	}
}

func TestHistorySessionWithRenders(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	app := newTestApp(t, func(a *App) {
		a.History = &fakeHistory{
			session: &store.SessionRecord{ID: "sess-2", Locale: "en", FaceShape: "oval", CreatedAt: now, UpdatedAt: now},
			renders: []store.RenderRecord{
				{RunID: "run-1", Preference: "short", Hairstyle: "Buzz Cut", Status: "ok", Caption: "fresh", StorageKey: "sessions/sess-2/run-1/buzz-cut.png", CreatedAt: now},
				{RunID: "run-1", Preference: "short", Hairstyle: "Side Part", Status: "blocked", ErrorMessage: "image blocked: IMAGE_SAFETY", CreatedAt: now},
			},
		}
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/history/sess-2", nil)
	app.HistorySession(rec, withURLParams(req, "id", "sess-2"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var payload map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	renders, ok := payload["renders"].([]any)
	if !ok || len(renders) != 2 {
		t.Fatalf("renders = %#v", payload["renders"])
	}
	first := renders[0].(map[string]any)
	if first["status"] != "ok" || first["storage_key"] != "sessions/sess-2/run-1/buzz-cut.png" {
		t.Fatalf("first render = %#v", first)
	}
	second := renders[1].(map[string]any)
	if second["status"] != "blocked" || second["error"] != "image blocked: IMAGE_SAFETY" {
		t.Fatalf("second render = %#v", second)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/v1/history/missing", nil)
	app.HistorySession(rec, withURLParams(req, "id", "missing"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing session status = %d", rec.Code)
	}
}

func TestStatsSummaryWithAndWithoutStore(t *testing.T) {
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.StatsSummary(rec, httptest.NewRequest("GET", "/v1/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var bare map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&bare); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if _, ok := bare["runtime"]; !ok {
		t.Fatalf("payload missing runtime: %#v", bare)
	}
	if _, ok := bare["store"]; ok {
		t.Fatalf("store totals present without a database: %#v", bare)
	}

	app.History = &fakeHistory{totals: store.Totals{Sessions: 7, RendersOK: 15, RendersBlocked: 2, RendersFailed: 4}}
	rec = httptest.NewRecorder()
	app.StatsSummary(rec, httptest.NewRequest("GET", "/v1/stats", nil))
	var withStore map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&withStore); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	totals, ok := withStore["store"].(map[string]any)
	if !ok {
		t.Fatalf("store totals missing: %#v", withStore)
	}
	if totals["sessions"] != float64(7) || totals["renders_blocked"] != float64(2) {
		t.Fatalf("totals = %#v", totals)
	}
}

func TestFileDownload(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/v1/files/sessions/abc/run/buzz-cut.png", nil)
	rec := httptest.NewRecorder()
	app.FileDownload(rec, withURLParams(req, "*", "sessions/abc/run/buzz-cut.png"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("no storage status = %d", rec.Code)
	}

	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := files.Save("sessions/abc/run/buzz-cut.png", []byte("png-bytes")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	app.Files = files

	rec = httptest.NewRecorder()
	app.FileDownload(rec, withURLParams(req, "*", "sessions/abc/run/buzz-cut.png"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	if rec.Body.String() != "png-bytes" {
		t.Fatalf("body = %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	app.FileDownload(rec, withURLParams(req, "*", "sessions/abc/run/missing.png"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing file status = %d", rec.Code)
	}
}
