package studio

import "sync/atomic"

// Metrics counts what the orchestrator has done since the process started.
// Counters are atomic so render goroutines can bump them without taking any
// session lock.
type Metrics struct {
	SessionsStarted   atomic.Int64
	AnalysesSucceeded atomic.Int64
	AnalysesFailed    atomic.Int64
	RendersSucceeded  atomic.Int64
	RendersBlocked    atomic.Int64
	RendersFailed     atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	SessionsStarted   int64 `json:"sessions_started"`
	AnalysesSucceeded int64 `json:"analyses_succeeded"`
	AnalysesFailed    int64 `json:"analyses_failed"`
	RendersSucceeded  int64 `json:"renders_succeeded"`
	RendersBlocked    int64 `json:"renders_blocked"`
	RendersFailed     int64 `json:"renders_failed"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		SessionsStarted:   m.SessionsStarted.Load(),
		AnalysesSucceeded: m.AnalysesSucceeded.Load(),
		AnalysesFailed:    m.AnalysesFailed.Load(),
		RendersSucceeded:  m.RendersSucceeded.Load(),
		RendersBlocked:    m.RendersBlocked.Load(),
		RendersFailed:     m.RendersFailed.Load(),
	}
}
