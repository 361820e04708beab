// Package session holds the state of one interactive analysis: the loaded dataset,
// the active filters and the insights generated for that dataset.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/mediaintel-cli/internal/dataset"
	"github.com/KaramelBytes/mediaintel-cli/internal/filter"
	"github.com/KaramelBytes/mediaintel-cli/internal/insight"
	"github.com/KaramelBytes/mediaintel-cli/internal/views"
)

// ErrNoDataset is returned by operations that need a loaded dataset.
var ErrNoDataset = errors.New("no dataset loaded")

// ErrStale is returned when an insight was computed for a dataset that has since been replaced.
var ErrStale = errors.New("dataset changed while the insight was generated")

type insightKey struct {
	chart   views.ChartKey
	persona string
}

// Session is safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	log      *zap.Logger
	data     *dataset.Dataset
	version  string
	loadedAt time.Time
	criteria filter.Criteria
	insights map[insightKey]insight.Insight
	summary  *insight.Insight
	postIdea *insight.Insight
}

func New(log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{log: log, insights: map[insightKey]insight.Insight{}}
}

// Snapshot is a consistent read-only view of the session.
type Snapshot struct {
	Dataset  *dataset.Dataset
	Version  string
	LoadedAt time.Time
	Criteria filter.Criteria
	Insights []insight.Insight
	Summary  *insight.Insight
	PostIdea *insight.Insight
}

// Loaded reports whether the snapshot holds a dataset.
func (s Snapshot) Loaded() bool { return s.Dataset != nil }

// Filtered applies the snapshot's criteria to its dataset.
func (s Snapshot) Filtered() *dataset.Dataset {
	return filter.Apply(s.Dataset, s.Criteria)
}

// Load replaces the dataset and invalidates everything derived from the previous one.
// It returns the new dataset version.
func (s *Session) Load(ds *dataset.Dataset) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.version
	s.data = ds
	s.version = uuid.NewString()
	s.loadedAt = time.Now().UTC()
	s.criteria = filter.Criteria{}
	s.clearDerived()
	s.log.Info("dataset loaded",
		zap.String("source", ds.Source),
		zap.Int("rows", ds.Len()),
		zap.Int("skipped", ds.Skipped),
		zap.String("version", s.version),
		zap.String("previous", prev))
	return s.version
}

// Reset clears the dataset, filters and insights.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	s.version = ""
	s.loadedAt = time.Time{}
	s.criteria = filter.Criteria{}
	s.clearDerived()
	s.log.Info("session reset")
}

func (s *Session) clearDerived() {
	s.insights = map[insightKey]insight.Insight{}
	s.summary = nil
	s.postIdea = nil
}

// SetCriteria replaces the active filters.
func (s *Session) SetCriteria(c filter.Criteria) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return ErrNoDataset
	}
	s.criteria = c
	return nil
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Dataset:  s.data,
		Version:  s.version,
		LoadedAt: s.loadedAt,
		Criteria: s.criteria,
		Summary:  s.summary,
		PostIdea: s.postIdea,
	}
	for _, k := range views.Keys {
		for _, p := range insight.Personas() {
			if in, ok := s.insights[insightKey{k, p.ID}]; ok {
				snap.Insights = append(snap.Insights, in)
			}
		}
		if in, ok := s.insights[insightKey{k, insight.Default.ID}]; ok {
			snap.Insights = append(snap.Insights, in)
		}
	}
	return snap
}

// Current returns the dataset snapshot for a request, or ErrNoDataset.
func (s *Session) Current() (Snapshot, error) {
	snap := s.Snapshot()
	if !snap.Loaded() {
		return snap, ErrNoDataset
	}
	return snap, nil
}

// Store records a generated insight unless the dataset was replaced since in.Version.
func (s *Session) Store(in insight.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil || in.Version != s.version {
		s.log.Debug("discarding stale insight",
			zap.String("kind", string(in.Kind)),
			zap.String("version", in.Version),
			zap.String("current", s.version))
		return ErrStale
	}
	switch in.Kind {
	case insight.KindSummary:
		s.summary = &in
	case insight.KindPostIdea:
		s.postIdea = &in
	case insight.KindChart:
		s.insights[insightKey{in.Chart, in.Persona}] = in
	}
	return nil
}

// Insight returns a stored chart insight.
func (s *Session) Insight(chart views.ChartKey, persona string) (insight.Insight, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.insights[insightKey{chart, insight.Canonical(persona)}]
	return in, ok
}
