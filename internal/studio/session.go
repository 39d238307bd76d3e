// Package studio orchestrates one user's try-on flow: attach a selfie, run
// the face analysis, then fan a generation run out across the suggested
// hairstyles and collect the results.
package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/imaging"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/hairstyle"
)

// State names one step of the try-on flow.
type State string

const (
	StateInitial       State = "initial"
	StateImageUploaded State = "image_uploaded"
	StateAnalyzing     State = "analyzing"
	StateAnalyzed      State = "analyzed"
	StateGenerating    State = "generating"
	StateComplete      State = "complete"
	StateError         State = "error"
)

// Recorder persists analysis results and settled generation runs for the
// history API. Calls happen off the user path; failures are logged and
// swallowed.
type Recorder interface {
	RecordAnalysis(ctx context.Context, sessionID, locale string, analysis *domain.FaceAnalysis) error
	RecordRun(ctx context.Context, sessionID, runID string, preference domain.CutPreference, outcomes []domain.GenerationOutcome) error
}

// ImageSink receives a copy of every settled image, keyed by a relative
// path. Save returns the key the image ended up under, which may differ from
// the requested one after normalization.
type ImageSink interface {
	Save(key string, data []byte) (string, error)
}

// Snapshot is a deep copy of the observable session state, safe to hold
// after the session moves on.
type Snapshot struct {
	ID         string
	State      State
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Locale     string
	SelfieMIME string
	Analysis   *domain.FaceAnalysis
	Preference domain.CutPreference
	RunID      string
	Outcomes   []domain.GenerationOutcome
	LastError  string
}

// Session is one user's flow. All state lives behind the mutex; the slow
// provider calls run unlocked and re-validate against the run and analysis
// tokens before writing anything back.
type Session struct {
	id      string
	created time.Time
	deps    *deps

	mu            sync.Mutex
	state         State
	updated       time.Time
	locale        string
	selfie        imaging.EncodedImage
	analysis      *domain.FaceAnalysis
	analysisToken string
	preference    domain.CutPreference
	runID         string
	order         []string
	outcomes      map[string]*domain.GenerationOutcome
	runDone       chan struct{}
	lastError     string
}

func newSession(deps *deps) *Session {
	now := time.Now().UTC()
	return &Session{
		id:      uuid.NewString(),
		created: now,
		updated: now,
		state:   StateInitial,
		deps:    deps,
	}
}

// ID returns the session's immutable identifier.
func (s *Session) ID() string { return s.id }

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// AttachSelfie stores a new source photo and rewinds the flow to
// image_uploaded. Any previous analysis and outcomes are discarded and an
// in-flight run is orphaned; its late results will no longer match the run
// token and get dropped.
func (s *Session) AttachSelfie(img imaging.EncodedImage, locale string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearDownstreamLocked()
	s.selfie = img
	if locale != "" {
		s.locale = locale
	}
	s.setStateLocked(StateImageUploaded)
	return s.snapshotLocked()
}

// Reset discards everything and returns the session to initial. In-flight
// provider calls keep running; their results are ignored.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearDownstreamLocked()
	s.selfie = imaging.EncodedImage{}
	s.setStateLocked(StateInitial)
	return s.snapshotLocked()
}

// Analyze classifies the attached selfie and stores the hairstyle
// suggestions. It is allowed from image_uploaded, and from error while a
// selfie is still attached so a failed analysis can be retried. The provider
// call runs unlocked; if the session was reset or re-uploaded meanwhile the
// result is discarded.
func (s *Session) Analyze(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.selfie.IsZero() {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, domain.ErrNoSelfie
	}
	if s.state != StateImageUploaded && s.state != StateError {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, fmt.Errorf("%w: cannot analyze while %s", domain.ErrConflict, snap.State)
	}
	token := uuid.NewString()
	s.analysisToken = token
	s.lastError = ""
	s.setStateLocked(StateAnalyzing)
	selfie, locale := s.selfie, s.locale
	s.mu.Unlock()

	result, err := s.deps.analyzer.Analyze(ctx, selfie, locale)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analysisToken != token {
		return s.snapshotLocked(), fmt.Errorf("%w: analysis superseded by a newer upload", domain.ErrConflict)
	}
	if err != nil {
		s.deps.metrics.AnalysesFailed.Add(1)
		s.lastError = err.Error()
		s.setStateLocked(StateError)
		return s.snapshotLocked(), err
	}

	s.deps.metrics.AnalysesSucceeded.Add(1)
	s.analysis = result
	s.setStateLocked(StateAnalyzed)
	s.recordAnalysisLocked(result)
	return s.snapshotLocked(), nil
}

// Generate starts a fresh generation run at the given severity and returns
// immediately. One render call per suggested hairstyle runs concurrently on
// the process base context; a supervisor flips the session to complete once
// every outcome has settled. Re-selecting a preference replaces the whole
// outcome map, and results from the replaced run are dropped on arrival.
func (s *Session) Generate(pref domain.CutPreference) (Snapshot, error) {
	if _, ok := domain.SeverityDirectives[pref]; !ok {
		return s.Snapshot(), fmt.Errorf("%w: %q", domain.ErrInvalidPreference, pref)
	}

	s.mu.Lock()
	switch s.state {
	case StateAnalyzed, StateGenerating, StateComplete:
	default:
		snap := s.snapshotLocked()
		s.mu.Unlock()
		if snap.Analysis == nil {
			return snap, domain.ErrNoAnalysis
		}
		return snap, fmt.Errorf("%w: cannot generate while %s", domain.ErrConflict, snap.State)
	}
	if s.analysis == nil || len(s.analysis.Hairstyles) == 0 {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, domain.ErrNoAnalysis
	}

	runID := uuid.NewString()
	s.runID = runID
	s.preference = pref
	s.runDone = make(chan struct{})
	s.order = s.order[:0]
	s.outcomes = make(map[string]*domain.GenerationOutcome, len(s.analysis.Hairstyles))
	requests := make([]hairstyle.RenderRequest, 0, len(s.analysis.Hairstyles))
	for _, suggestion := range s.analysis.Hairstyles {
		s.order = append(s.order, suggestion.Name)
		s.outcomes[suggestion.Name] = &domain.GenerationOutcome{Hairstyle: suggestion.Name, Pending: true}
		requests = append(requests, hairstyle.RenderRequest{
			Selfie:             s.selfie,
			Hairstyle:          suggestion.Name,
			OriginalHairLength: s.analysis.OriginalHairLength,
			Preference:         pref,
			Locale:             s.locale,
		})
	}
	done := s.runDone
	s.setStateLocked(StateGenerating)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, req := range requests {
		wg.Add(1)
		go s.renderOne(&wg, runID, req)
	}
	go s.superviseRun(&wg, runID, done)
	return snap, nil
}

func (s *Session) renderOne(wg *sync.WaitGroup, runID string, req hairstyle.RenderRequest) {
	defer wg.Done()
	outcome := domain.GenerationOutcome{Hairstyle: req.Hairstyle}

	result, err := s.deps.renderer.Render(s.deps.baseCtx, req)
	if err != nil {
		var blocked *domain.BlockedError
		switch {
		case errors.As(err, &blocked):
			outcome.Blocked = true
			s.deps.metrics.RendersBlocked.Add(1)
		default:
			s.deps.metrics.RendersFailed.Add(1)
		}
		s.deps.logger.Warn().
			Err(err).
			Str("session", s.id).
			Str("hairstyle", req.Hairstyle).
			Msg("render failed")
		outcome.ErrorMessage = err.Error()
		s.applyOutcome(runID, outcome)
		return
	}

	s.deps.metrics.RendersSucceeded.Add(1)
	img := result.Image
	outcome.Image = &img
	outcome.Caption = result.Caption
	if s.deps.images != nil && s.runActive(runID) {
		outcome.StorageKey = s.saveImage(runID, req.Hairstyle, result.Image)
	}
	s.applyOutcome(runID, outcome)
}

// saveImage writes a settled image to the optional sink. Failures only cost
// the on-disk copy, so they are logged and the outcome keeps an empty key.
func (s *Session) saveImage(runID, hairstyleName string, img imaging.EncodedImage) string {
	data, err := img.Decode()
	if err != nil {
		s.deps.logger.Warn().Err(err).Str("session", s.id).Msg("settled image not decodable")
		return ""
	}
	key := fmt.Sprintf("sessions/%s/%s/%s%s", s.id, runID, domain.Slug(hairstyleName), img.Ext())
	stored, err := s.deps.images.Save(key, data)
	if err != nil {
		s.deps.logger.Warn().Err(err).Str("session", s.id).Str("key", key).Msg("image store write failed")
		return ""
	}
	return stored
}

// applyOutcome settles one slot of the current run. Writes from a run that
// is no longer current are dropped, and a slot settles at most once.
func (s *Session) applyOutcome(runID string, outcome domain.GenerationOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runID != runID {
		return
	}
	slot, ok := s.outcomes[outcome.Hairstyle]
	if !ok || !slot.Pending {
		return
	}
	*slot = outcome
	s.updated = time.Now().UTC()
}

func (s *Session) superviseRun(wg *sync.WaitGroup, runID string, done chan struct{}) {
	wg.Wait()
	s.finishRun(runID)
	close(done)
}

// finishRun flips generating to complete once every slot of the current run
// has settled, then hands the run to the recorder. A run that was replaced
// or reset mid-flight changes nothing.
func (s *Session) finishRun(runID string) {
	s.mu.Lock()
	if s.runID != runID {
		s.mu.Unlock()
		return
	}
	s.setStateLocked(StateComplete)
	pref := s.preference
	outcomes := s.orderedOutcomesLocked()
	s.mu.Unlock()

	s.deps.logger.Info().
		Str("session", s.id).
		Str("run", runID).
		Str("preference", string(pref)).
		Int("outcomes", len(outcomes)).
		Msg("generation run settled")

	if s.deps.recorder != nil {
		if err := s.deps.recorder.RecordRun(s.deps.baseCtx, s.id, runID, pref, outcomes); err != nil {
			s.deps.logger.Warn().Err(err).Str("session", s.id).Msg("record run failed")
		}
	}
}

// WaitSettled blocks until the current generation run settles. With no run
// in flight it returns immediately.
func (s *Session) WaitSettled(ctx context.Context) error {
	s.mu.Lock()
	done := s.runDone
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Outcome finds a slot of the current run by hairstyle name or slug.
func (s *Session) Outcome(style string) (domain.GenerationOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, slot := range s.outcomes {
		if name == style || domain.Slug(name) == style {
			return slot.Clone(), true
		}
	}
	return domain.GenerationOutcome{}, false
}

func (s *Session) runActive(runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID == runID
}

func (s *Session) recordAnalysisLocked(result *domain.FaceAnalysis) {
	if s.deps.recorder == nil {
		return
	}
	copied := result.Clone()
	sessionID, locale := s.id, s.locale
	go func() {
		if err := s.deps.recorder.RecordAnalysis(s.deps.baseCtx, sessionID, locale, copied); err != nil {
			s.deps.logger.Warn().Err(err).Str("session", sessionID).Msg("record analysis failed")
		}
	}()
}

// clearDownstreamLocked wipes everything derived from the current selfie.
// The run id change orphans any in-flight run.
func (s *Session) clearDownstreamLocked() {
	s.analysis = nil
	s.analysisToken = ""
	s.preference = ""
	s.runID = ""
	s.order = nil
	s.outcomes = nil
	s.runDone = nil
	s.lastError = ""
}

func (s *Session) setStateLocked(state State) {
	s.state = state
	s.updated = time.Now().UTC()
}

func (s *Session) orderedOutcomesLocked() []domain.GenerationOutcome {
	out := make([]domain.GenerationOutcome, 0, len(s.order))
	for _, name := range s.order {
		if slot, ok := s.outcomes[name]; ok {
			out = append(out, slot.Clone())
		}
	}
	return out
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:         s.id,
		State:      s.state,
		CreatedAt:  s.created,
		UpdatedAt:  s.updated,
		Locale:     s.locale,
		SelfieMIME: s.selfie.MIME,
		Analysis:   s.analysis.Clone(),
		Preference: s.preference,
		RunID:      s.runID,
		Outcomes:   s.orderedOutcomesLocked(),
		LastError:  s.lastError,
	}
}
