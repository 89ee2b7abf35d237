// Package session holds the analysis workflow state: one uploaded dataset,
// its schema, the analysis configuration, and the results of the last run.
// The store is created once and injected into every page handler; nothing
// here is package-level mutable state.
package session

import (
	"sync"

	"femstat/internal"
	"femstat/internal/mapping"
	"femstat/models"
)

// Phase is the workflow state machine position.
type Phase string

const (
	PhaseNoSession    Phase = "no_session"
	PhaseSchemaLoaded Phase = "schema_loaded"
	PhaseConfigured   Phase = "configured"
	PhaseResultsReady Phase = "results_ready"
)

// rank orders phases for guard checks.
func (p Phase) rank() int {
	switch p {
	case PhaseSchemaLoaded:
		return 1
	case PhaseConfigured:
		return 2
	case PhaseResultsReady:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether the phase has reached the given stage.
func (p Phase) AtLeast(min Phase) bool {
	return p.rank() >= min.rank()
}

// Severity selects how an error is surfaced: a dismissible banner or a
// modal overlay. One error, one presentation, chosen by the caller.
type Severity string

const (
	SeverityBanner Severity = "banner"
	SeverityModal  Severity = "modal"
)

// ErrorState is the single current error. No history: the last error wins.
type ErrorState struct {
	Message  string
	Severity Severity
}

// Snapshot is an observer's copy of the store. Schema and results are
// shared pointers treated as immutable once set; settings are copied.
type Snapshot struct {
	Phase     Phase
	SessionID string
	Schema    *models.SchemaResponse
	Settings  models.AnalysisSettings
	Results   *models.AnalysisResponse
	Loading   bool
	Err       *ErrorState
}

// Store is the single source of truth for the workflow. Handlers run on
// arbitrary goroutines, so unlike a browser event loop every access is
// mutex-guarded.
type Store struct {
	mu        sync.Mutex
	phase     Phase
	sessionID string
	schema    *models.SchemaResponse
	settings  models.AnalysisSettings
	results   *models.AnalysisResponse
	loading   bool
	err       *ErrorState

	subs    map[int]chan Snapshot
	nextSub int

	logger *internal.Logger
}

// NewStore creates an empty store in PhaseNoSession.
func NewStore(logger *internal.Logger) *Store {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Store{
		phase:  PhaseNoSession,
		subs:   make(map[int]chan Snapshot),
		logger: logger.WithPrefix("[Store]"),
	}
}

// SetSessionID records the backend session handle. An empty id resets the
// whole workflow.
func (s *Store) SetSessionID(id string) {
	s.mu.Lock()
	if id == "" {
		s.resetLocked()
		s.mu.Unlock()
		s.notify()
		return
	}
	s.sessionID = id
	s.mu.Unlock()
	s.notify()
}

// SetSchema replaces the dataset wholesale: previous settings, results and
// error state are discarded, defaults are seeded here and nowhere else,
// and the workflow enters PhaseSchemaLoaded.
func (s *Store) SetSchema(schema *models.SchemaResponse) {
	s.mu.Lock()
	if schema == nil {
		s.resetLocked()
		s.mu.Unlock()
		s.notify()
		return
	}
	s.schema = schema
	if schema.SessionID != "" {
		s.sessionID = schema.SessionID
	}
	s.settings = mapping.ApplyDefaults(schema, models.AnalysisSettings{})
	s.results = nil
	s.err = nil
	s.phase = PhaseSchemaLoaded
	s.logger.Info("schema loaded: session=%s columns=%d", s.sessionID, len(schema.Schema))
	s.mu.Unlock()
	s.notify()
}

// SetAnalysisSettings overwrites the configuration. Results of a previous
// run are kept: a failed resubmission must not lose them, and a successful
// one replaces them through SetAnalysisResults.
func (s *Store) SetAnalysisSettings(settings models.AnalysisSettings) {
	s.mu.Lock()
	s.settings = settings
	if s.phase == PhaseSchemaLoaded {
		s.phase = PhaseConfigured
	}
	s.mu.Unlock()
	s.notify()
}

// SetAnalysisResults stores the server-computed results. Passing nil is
// the explicit "no results" reset used when navigating away; it returns
// the phase to Configured so the analysis can be rerun.
func (s *Store) SetAnalysisResults(results *models.AnalysisResponse) {
	s.mu.Lock()
	s.results = results
	switch {
	case results == nil:
		if s.phase == PhaseResultsReady {
			s.phase = PhaseConfigured
		}
	case s.sessionID == "":
		s.logger.Warn("results set without a session; phase kept at %s", s.phase)
	default:
		s.phase = PhaseResultsReady
	}
	s.mu.Unlock()
	s.notify()
}

// SetLoading flips the busy latch. It is advisory: templates disable
// submit controls while set, the store itself does not block writes.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	s.notify()
}

// SetError records the current error. The last error wins; the phase and
// any results stay untouched so the user can retry from where they are.
func (s *Store) SetError(message string, severity Severity) {
	s.mu.Lock()
	s.err = &ErrorState{Message: message, Severity: severity}
	s.logger.Warn("error surfaced (%s): %s", severity, message)
	s.mu.Unlock()
	s.notify()
}

// ClearError dismisses the current error.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
	s.notify()
}

// Reset drops everything and returns to PhaseNoSession.
func (s *Store) Reset() {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) resetLocked() {
	s.phase = PhaseNoSession
	s.sessionID = ""
	s.schema = nil
	s.settings = models.AnalysisSettings{}
	s.results = nil
	s.loading = false
	s.err = nil
}

// Phase returns the current state machine position.
func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Snapshot returns a render-safe copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:     s.phase,
		SessionID: s.sessionID,
		Schema:    s.schema,
		Settings:  copySettings(s.settings),
		Results:   s.results,
		Loading:   s.loading,
	}
	if s.err != nil {
		e := *s.err
		snap.Err = &e
	}
	return snap
}

// Subscribe registers for state change notifications. The returned cancel
// must be called to release the subscription. The channel is never closed:
// notify holds a copy of the channel list outside the lock, so closing on
// cancel would race a concurrent send. After cancel the channel receives
// at most the notifications already in flight and then stays silent;
// consumers exit on their own context instead of waiting for a close.
// Slow subscribers drop updates rather than blocking writers.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 8)
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return ch, cancel
}

// notify fans the committed state out to subscribers outside the lock.
func (s *Store) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	targets := make([]chan Snapshot, 0, len(s.subs))
	for _, ch := range s.subs {
		targets = append(targets, ch)
	}
	s.mu.Unlock()

	for _, ch := range targets {
		select {
		case ch <- snap:
		default:
		}
	}
}

func copySettings(in models.AnalysisSettings) models.AnalysisSettings {
	out := in
	out.GenderMap = append([]models.GenderMapping(nil), in.GenderMap...)
	out.CategoriesOrder = append([]string(nil), in.CategoriesOrder...)
	out.VarsContinuous = append([]string(nil), in.VarsContinuous...)
	out.VarsCategorical = append([]string(nil), in.VarsCategorical...)
	return out
}
