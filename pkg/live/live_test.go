package live

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	return s
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.LatestStatus(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	now := time.Now().UTC()
	require.NoError(t, s.PushStatus(ctx, &StatusSnapshot{
		VPN: "Online", Server: "Offline", Players: 3, Timestamp: now.Add(-time.Hour),
	}))
	require.NoError(t, s.PushStatus(ctx, &StatusSnapshot{
		VPN: "Online", Server: "Online", EventName: "Poring Day", EventDate: "2026-10-20",
		Players: 42, Ping: 18, Timestamp: now,
	}))

	latest, err := s.LatestStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Online", latest.Server)
	assert.Equal(t, "Poring Day", latest.EventName)
	assert.Equal(t, 42, latest.Players)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", latest.ID.String())
}

func TestStatusDefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	status := &StatusSnapshot{VPN: "Offline", Server: "Offline"}
	require.NoError(t, s.PushStatus(ctx, status))
	assert.False(t, status.Timestamp.IsZero())
}

func testRankings() Rankings {
	return Rankings{
		Accounts: []Account{
			{AccountID: 1, UserID: "alice", TotalZeny: 100, TotalDiamonds: 1, TotalCards: 4, LoginCount: 10},
			{AccountID: 2, UserID: "bob", TotalZeny: 1000, TotalCards: 9, TotalMVPCards: 1, LoginCount: 3},
			{AccountID: 3, UserID: "carol", LoginCount: 0},
		},
		ByClass: map[string][]Character{
			"4001": {
				{Name: "Knight A", UserID: "alice", Fame: 5},
				{Name: "Knight B", UserID: "bob", Fame: 0},
				{Name: "Knight C", UserID: "carol", Fame: 9},
			},
		},
		Overall: []Character{
			{Name: "Knight A", UserID: "alice", BaseExp: 1000},
			{Name: "Acolyte", UserID: "bob", BaseExp: 5000},
		},
	}
}

func TestBuildBoards(t *testing.T) {
	b := BuildBoards(testRankings())

	require.Len(t, b.Zeny, 2)
	assert.Equal(t, BoardEntry{Rank: 1, Name: "alice", UserID: "alice", Value: 500000100}, b.Zeny[0])
	assert.Equal(t, BoardEntry{Rank: 2, Name: "bob", UserID: "bob", Value: 1000}, b.Zeny[1])

	require.Len(t, b.Cards, 2)
	assert.Equal(t, "bob", b.Cards[0].UserID)

	require.Len(t, b.MVPCards, 1)
	assert.Equal(t, "bob", b.MVPCards[0].UserID)

	require.Len(t, b.Logins, 2)
	assert.Equal(t, int64(10), b.Logins[0].Value)

	require.Len(t, b.Fame["4001"], 2)
	assert.Equal(t, "Knight C", b.Fame["4001"][0].Name)
	assert.Equal(t, "Knight A", b.Fame["4001"][1].Name)

	require.Len(t, b.BaseExp, 2)
	assert.Equal(t, "Acolyte", b.BaseExp[0].Name)
}

func TestBuildBoardsTopTen(t *testing.T) {
	var r Rankings
	for i := range 12 {
		r.Accounts = append(r.Accounts, Account{UserID: fmt.Sprintf("user%d", i), LoginCount: int64(i + 1)})
	}

	b := BuildBoards(r)
	require.Len(t, b.Logins, BoardSize)
	assert.Equal(t, int64(12), b.Logins[0].Value)
	assert.Equal(t, int64(3), b.Logins[9].Value)
	assert.Equal(t, 10, b.Logins[9].Rank)
	assert.Empty(t, b.Zeny)
}

func TestBuildBoardsKeepsOrderOnTies(t *testing.T) {
	r := Rankings{Accounts: []Account{
		{UserID: "first", TotalCards: 2},
		{UserID: "second", TotalCards: 2},
	}}

	b := BuildBoards(r)
	require.Len(t, b.Cards, 2)
	assert.Equal(t, "first", b.Cards[0].UserID)
	assert.Equal(t, "second", b.Cards[1].UserID)
}

func TestRankingsAndBoardCache(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.LatestRankings(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.Nil(t, s.CachedBoards())
	assert.Nil(t, s.ComputeBoards(ctx, false))

	snapshot, err := s.PushRankings(ctx, testRankings())
	require.NoError(t, err)

	latest, err := s.LatestRankings(ctx)
	require.NoError(t, err)
	assert.Equal(t, snapshot.ID, latest.ID)
	assert.Equal(t, testRankings(), latest.Data.Data())

	boards := s.ComputeBoards(ctx, false)
	require.NotNil(t, boards)
	assert.Same(t, boards, s.CachedBoards())
	assert.Equal(t, "alice", boards.Zeny[0].UserID)

	_, err = s.PushRankings(ctx, Rankings{Accounts: []Account{{UserID: "dave", TotalZeny: 7}}})
	require.NoError(t, err)
	assert.Nil(t, s.CachedBoards())

	boards = s.ComputeBoards(ctx, true)
	require.NotNil(t, boards)
	require.Len(t, boards.Zeny, 1)
	assert.Equal(t, "dave", boards.Zeny[0].UserID)
}

func TestBuilds(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	last, err := s.LastBuild(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	wait, err := s.NextBuild(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, wait)

	start := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, s.RecordBuild(ctx, &Build{Date: start, Items: 10, Mobs: 5, Complete: true}))
	require.NoError(t, s.RecordBuild(ctx, &Build{Date: start.Add(time.Second), Items: 10, Failed: 1}))

	last, err = s.LastBuild(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 1, last.Failed)

	complete, err := s.LastCompleteBuild(ctx)
	require.NoError(t, err)
	require.NotNil(t, complete)
	assert.Equal(t, 5, complete.Mobs)

	wait, err = s.NextBuild(ctx, time.Hour)
	require.NoError(t, err)
	assert.Greater(t, wait, 50*time.Minute)
}

func TestBuildServerStats(t *testing.T) {
	stats := BuildServerStats(Rankings{
		Accounts: []Account{{UserID: "alice", TotalZeny: 100}, {UserID: "bob", TotalZeny: 201}},
		Overall: []Character{
			{Name: "Knight", BaseLevel: 99},
			{Name: "Acolyte", BaseLevel: 50},
			{Name: "Priest", BaseLevel: 99},
		},
	})

	assert.Equal(t, 2, stats.Accounts)
	assert.Equal(t, 3, stats.Characters)
	assert.Equal(t, int64(301), stats.TotalZeny)
	assert.Equal(t, int64(100), stats.AvgZeny)
	assert.Equal(t, 83, stats.AvgLevel)
	assert.Equal(t, MaxLevel{Level: 99, Character: "Knight", Others: 1}, stats.MaxLevel)

	assert.Equal(t, ServerStats{}, BuildServerStats(Rankings{}))
}

func TestLatestServerStats(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.LatestServerStats(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	snapshot, err := s.PushRankings(ctx, testRankings())
	require.NoError(t, err)

	stats, err := s.LatestServerStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Accounts)
	assert.Equal(t, 2, stats.Characters)
	assert.Equal(t, int64(1100), stats.TotalZeny)
	assert.Equal(t, int64(550), stats.AvgZeny)
	assert.True(t, snapshot.Timestamp.Equal(stats.Timestamp))
}
