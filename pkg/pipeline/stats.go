package pipeline

import (
	"sync"
	"time"
)

// CollectionProgress tracks one collection of a run
type CollectionProgress struct {
	Name  string `json:"name"`
	Stage string `json:"stage"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// Stats holds the progress of the current run and the report of the last one
type Stats struct {
	mu          sync.RWMutex
	isRunning   bool
	output      string
	startedAt   time.Time
	collections []CollectionProgress
	last        *Report
}

// StatsSnapshot is a copy of Stats safe to serialize
type StatsSnapshot struct {
	IsRunning   bool                 `json:"isRunning"`
	Output      string               `json:"output"`
	StartedAt   *time.Time           `json:"startedAt,omitempty"`
	Collections []CollectionProgress `json:"collections"`
	Last        *Report              `json:"last,omitempty"`
}

var stats = &Stats{}

// GetStats returns a copy of the current pipeline stats
func GetStats() StatsSnapshot {
	return stats.Snapshot()
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := StatsSnapshot{
		IsRunning:   s.isRunning,
		Output:      s.output,
		Collections: append([]CollectionProgress{}, s.collections...),
		Last:        s.last,
	}
	if !s.startedAt.IsZero() {
		started := s.startedAt
		snapshot.StartedAt = &started
	}
	return snapshot
}

// StartRun resets the progress for a new run writing to output
func (s *Stats) StartRun(output string, collections []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isRunning = true
	s.output = output
	s.startedAt = time.Now()
	s.collections = make([]CollectionProgress, len(collections))
	for i, name := range collections {
		s.collections[i] = CollectionProgress{Name: name, Stage: "pending"}
	}
}

// UpdateStage records the stage a collection has reached
func (s *Stats) UpdateStage(collection, stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.collections {
		if s.collections[i].Name == collection {
			s.collections[i].Stage = stage
		}
	}
}

// EndCollection marks a collection as finished, err being its fatal error
func (s *Stats) EndCollection(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.collections {
		if s.collections[i].Name != collection {
			continue
		}
		s.collections[i].Done = true
		s.collections[i].Stage = "done"
		if err != nil {
			s.collections[i].Error = err.Error()
		}
	}
}

// EndRun marks the run as completed and keeps its report
func (s *Stats) EndRun(report *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isRunning = false
	s.collections = nil
	s.startedAt = time.Time{}
	s.last = report
}
