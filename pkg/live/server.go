package live

import (
	"context"
	"math"
	"time"
)

// MaxLevel is the highest base level reached, by the first character listed
// at that level. Others counts the remaining characters sharing it.
type MaxLevel struct {
	Level     int    `json:"level"`
	Character string `json:"character"`
	Others    int    `json:"others"`
}

// ServerStats are server-wide aggregates of one ranking snapshot
type ServerStats struct {
	Accounts   int       `json:"accounts"`
	Characters int       `json:"characters"`
	TotalZeny  int64     `json:"totalZeny"`
	AvgZeny    int64     `json:"avgZeny"`
	AvgLevel   int       `json:"avgLevel"`
	MaxLevel   MaxLevel  `json:"maxLevel"`
	Timestamp  time.Time `json:"timestamp"`
}

// BuildServerStats aggregates the accounts and the overall character list.
// Averages are per character and rounded.
func BuildServerStats(r Rankings) ServerStats {
	stats := ServerStats{
		Accounts:   len(r.Accounts),
		Characters: len(r.Overall),
	}
	for _, a := range r.Accounts {
		stats.TotalZeny += a.TotalZeny
	}

	totalLevel := 0
	for _, c := range r.Overall {
		totalLevel += c.BaseLevel
		switch {
		case c.BaseLevel > stats.MaxLevel.Level:
			stats.MaxLevel = MaxLevel{Level: c.BaseLevel, Character: c.Name}
		case c.BaseLevel == stats.MaxLevel.Level && c.BaseLevel > 0:
			stats.MaxLevel.Others++
		}
	}

	if n := len(r.Overall); n > 0 {
		stats.AvgZeny = int64(math.Round(float64(stats.TotalZeny) / float64(n)))
		stats.AvgLevel = int(math.Round(float64(totalLevel) / float64(n)))
	}
	return stats
}

// LatestServerStats aggregates the most recent ranking export, ErrNoSnapshot
// when none was pushed
func (s *Store) LatestServerStats(ctx context.Context) (*ServerStats, error) {
	snapshot, err := s.LatestRankings(ctx)
	if err != nil {
		return nil, err
	}
	stats := BuildServerStats(snapshot.Data.Data())
	stats.Timestamp = snapshot.Timestamp
	return &stats, nil
}
