package live

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"
)

const (
	// BoardSize is the number of entries kept per board
	BoardSize = 10

	// DiamondZeny is the zeny value of one diamond
	DiamondZeny int64 = 500000000
)

// BoardEntry is one line of a leaderboard
type BoardEntry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	UserID string `json:"userid"`
	Value  int64  `json:"value"`
}

// Boards are the leaderboards derived from one ranking snapshot
type Boards struct {
	Zeny      []BoardEntry            `json:"zeny"`
	Cards     []BoardEntry            `json:"cards"`
	MVPCards  []BoardEntry            `json:"mvpCards"`
	Logins    []BoardEntry            `json:"logins"`
	BaseExp   []BoardEntry            `json:"baseExp"`
	Fame      map[string][]BoardEntry `json:"fame"`
	Timestamp time.Time               `json:"timestamp"`
}

// BuildBoards ranks every board in descending order, keeps the top BoardSize
// entries and then removes the ones with a value of 0 or less.
func BuildBoards(r Rankings) Boards {
	accountBoard := func(value func(Account) int64) []BoardEntry {
		return board(r.Accounts, value, func(a Account) (string, string) { return a.UserID, a.UserID })
	}
	characterBoard := func(chars []Character, value func(Character) int64) []BoardEntry {
		return board(chars, value, func(c Character) (string, string) { return c.Name, c.UserID })
	}

	b := Boards{
		Zeny:     accountBoard(func(a Account) int64 { return a.TotalZeny + a.TotalDiamonds*DiamondZeny }),
		Cards:    accountBoard(func(a Account) int64 { return a.TotalCards }),
		MVPCards: accountBoard(func(a Account) int64 { return a.TotalMVPCards }),
		Logins:   accountBoard(func(a Account) int64 { return a.LoginCount }),
		BaseExp:  characterBoard(r.Overall, func(c Character) int64 { return c.BaseExp }),
		Fame:     make(map[string][]BoardEntry, len(r.ByClass)),
	}
	for class, chars := range r.ByClass {
		b.Fame[class] = characterBoard(chars, func(c Character) int64 { return c.Fame })
	}
	return b
}

func board[T any](rows []T, value func(T) int64, label func(T) (string, string)) []BoardEntry {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return cmp.Compare(value(b), value(a))
	})
	sorted = sorted[:min(len(sorted), BoardSize)]

	entries := make([]BoardEntry, 0, len(sorted))
	for i, row := range sorted {
		v := value(row)
		if v <= 0 {
			continue
		}
		name, userID := label(row)
		entries = append(entries, BoardEntry{Rank: i + 1, Name: name, UserID: userID, Value: v})
	}
	return entries
}

// boardCache holds the boards of the latest snapshot
type boardCache struct {
	mu     sync.RWMutex
	boards *Boards
}

// CachedBoards returns the cached boards if available, nil otherwise
func (s *Store) CachedBoards() *Boards {
	if !s.boards.mu.TryRLock() {
		return nil
	}
	defer s.boards.mu.RUnlock()

	return s.boards.boards
}

// ComputeBoards builds the boards of the latest snapshot and caches them.
// Without force it gives up when another computation holds the cache.
func (s *Store) ComputeBoards(ctx context.Context, force bool) *Boards {
	if force {
		s.boards.mu.Lock()
	} else if !s.boards.mu.TryLock() {
		return nil
	}
	defer s.boards.mu.Unlock()

	snapshot, err := s.LatestRankings(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			slog.Error("Cannot compute boards", "error", err)
		}
		return nil
	}

	boards := BuildBoards(snapshot.Data.Data())
	boards.Timestamp = snapshot.Timestamp
	s.boards.boards = &boards
	return s.boards.boards
}

// InvalidateBoards drops the cached boards so the next access recomputes them
func (s *Store) InvalidateBoards() {
	s.boards.mu.Lock()
	defer s.boards.mu.Unlock()
	s.boards.boards = nil
}
