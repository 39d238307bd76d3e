// Package store persists try-on history to PostgreSQL. It is optional at
// runtime: without a configured database the API simply runs without the
// history and stored-stats routes.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/infra"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/sqlinline"
)

const defaultListLimit = 20

// SessionRecord is one row of the history listing.
type SessionRecord struct {
	ID         string
	Locale     string
	FaceShape  string
	HairLength string
	Hairstyles []domain.HairstyleSuggestion
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RenderRecord is one persisted render outcome.
type RenderRecord struct {
	RunID        string
	Preference   string
	Hairstyle    string
	Status       string
	Caption      string
	ErrorMessage string
	StorageKey   string
	CreatedAt    time.Time
}

// Totals aggregates the persisted history for the stats endpoint.
type Totals struct {
	Sessions       int64
	RendersOK      int64
	RendersBlocked int64
	RendersFailed  int64
}

// History reads and writes the tryon_sessions and tryon_renders tables.
// Query logging happens in the SQLRunner underneath.
type History struct {
	db infra.SQLExecutor
}

func NewHistory(db infra.SQLExecutor) *History {
	return &History{db: db}
}

// RecordAnalysis upserts the session row with its analysis result. Re-running
// the analysis on the same session refreshes the row in place.
func (h *History) RecordAnalysis(ctx context.Context, sessionID, locale string, analysis *domain.FaceAnalysis) error {
	suggestions, err := json.Marshal(analysis.Hairstyles)
	if err != nil {
		return fmt.Errorf("encode suggestions: %w", err)
	}
	_, err = h.db.Exec(ctx, sqlinline.QUpsertTryonSession,
		sessionID, locale, analysis.FaceShape, analysis.OriginalHairLength, suggestions)
	return err
}

// RecordRun inserts one row per settled outcome of a generation run.
func (h *History) RecordRun(ctx context.Context, sessionID, runID string, preference domain.CutPreference, outcomes []domain.GenerationOutcome) error {
	for _, outcome := range outcomes {
		if _, err := h.db.Exec(ctx, sqlinline.QInsertTryonRender,
			sessionID, runID, string(preference), outcome.Hairstyle,
			renderStatus(outcome), outcome.Caption, outcome.ErrorMessage, outcome.StorageKey,
		); err != nil {
			return fmt.Errorf("insert render %q: %w", outcome.Hairstyle, err)
		}
	}
	return nil
}

func renderStatus(outcome domain.GenerationOutcome) string {
	switch {
	case outcome.Image != nil:
		return "ok"
	case outcome.Blocked:
		return "blocked"
	default:
		return "failed"
	}
}

// Recent lists the most recently touched sessions, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultListLimit
	}
	rows, err := h.db.Query(ctx, sqlinline.QRecentTryonSessions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Session fetches one session with every render recorded for it.
func (h *History) Session(ctx context.Context, id string) (*SessionRecord, []RenderRecord, error) {
	record, err := scanSession(h.db.QueryRow(ctx, sqlinline.QTryonSessionByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
		}
		return nil, nil, err
	}

	rows, err := h.db.Query(ctx, sqlinline.QTryonRendersBySession, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var renders []RenderRecord
	for rows.Next() {
		var render RenderRecord
		if err := rows.Scan(
			&render.RunID, &render.Preference, &render.Hairstyle, &render.Status,
			&render.Caption, &render.ErrorMessage, &render.StorageKey, &render.CreatedAt,
		); err != nil {
			return nil, nil, err
		}
		renders = append(renders, render)
	}
	return &record, renders, rows.Err()
}

// Totals aggregates the stored history.
func (h *History) Totals(ctx context.Context) (Totals, error) {
	var totals Totals
	err := h.db.QueryRow(ctx, sqlinline.QTryonStatsTotals).
		Scan(&totals.Sessions, &totals.RendersOK, &totals.RendersBlocked, &totals.RendersFailed)
	return totals, err
}

func scanSession(row pgx.Row) (SessionRecord, error) {
	var record SessionRecord
	var suggestions []byte
	if err := row.Scan(
		&record.ID, &record.Locale, &record.FaceShape, &record.HairLength,
		&suggestions, &record.CreatedAt, &record.UpdatedAt,
	); err != nil {
		return SessionRecord{}, err
	}
	if len(suggestions) > 0 {
		if err := json.Unmarshal(suggestions, &record.Hairstyles); err != nil {
			return SessionRecord{}, fmt.Errorf("decode suggestions: %w", err)
		}
	}
	return record, nil
}
