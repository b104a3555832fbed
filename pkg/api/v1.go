package routing

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/iziplay/rodb/pkg/live"
	"github.com/iziplay/rodb/pkg/pipeline"
)

type PlainOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type StatusOutput struct {
	Body live.StatusSnapshot
}

type PushStatusInput struct {
	Body struct {
		VPN       string `json:"vpn" doc:"VPN status, e.g. Online or Offline"`
		Server    string `json:"server" doc:"Game server status, e.g. Online or Offline"`
		EventName string `json:"event-name,omitempty" doc:"Name of the running event"`
		EventDate string `json:"event-date,omitempty" doc:"Date of the running event"`
		Players   int    `json:"players" minimum:"0" doc:"Number of players online"`
		Ping      int    `json:"ping,omitempty" minimum:"0" doc:"Server latency in milliseconds"`
	}
}

type RankingsBody struct {
	ID        uuid.UUID     `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Data      live.Rankings `json:"data"`
}

type RankingsOutput struct {
	Body RankingsBody
}

type PushRankingsInput struct {
	Body live.Rankings
}

type BoardsOutput struct {
	Body live.Boards
}

type PipelineStatsOutput struct {
	Body pipeline.StatsSnapshot
}

type ServerStatsOutput struct {
	Body live.ServerStats
}

type BuildInput struct {
	Complete bool `query:"complete" doc:"Only consider builds that completed without failures"`
}

type BuildOutput struct {
	Body live.Build
}

var pushSecurity = []map[string][]string{{bearerAuth: {}}}

func rankingsBody(s *live.RankingSnapshot) RankingsBody {
	return RankingsBody{ID: s.ID, Timestamp: s.Timestamp, Data: s.Data.Data()}
}

// Setup registers the live API operations backed by store
func Setup(api huma.API, store *live.Store) {
	api.UseMiddleware(authMiddleware(api))

	huma.Register(api, huma.Operation{
		OperationID: "HealthCheck",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
		Description: "Check if the API and its database are running",
		Tags:        []string{"Health"},
	}, func(ctx context.Context, input *struct{}) (*PlainOutput, error) {
		if err := store.Ping(ctx); err != nil {
			return nil, huma.Error503ServiceUnavailable("database unavailable", err)
		}
		return &PlainOutput{
			ContentType: "text/plain",
			Body:        []byte("OK"),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetStatus",
		Method:      http.MethodGet,
		Path:        "/v1/status",
		Summary:     "Get server status",
		Description: "Get the latest status reported by the game server",
		Tags:        []string{"Status"},
	}, func(ctx context.Context, input *struct{}) (*StatusOutput, error) {
		status, err := store.LatestStatus(ctx)
		if errors.Is(err, live.ErrNoSnapshot) {
			return nil, huma.Error404NotFound("no status reported yet")
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to read status", err)
		}
		return &StatusOutput{Body: *status}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "PushStatus",
		Method:        http.MethodPost,
		Path:          "/v1/status",
		Summary:       "Push server status",
		Description:   "Store a new status report, sent by the game server",
		Tags:          []string{"Status"},
		Security:      pushSecurity,
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *PushStatusInput) (*StatusOutput, error) {
		status := &live.StatusSnapshot{
			VPN:       input.Body.VPN,
			Server:    input.Body.Server,
			EventName: input.Body.EventName,
			EventDate: input.Body.EventDate,
			Players:   input.Body.Players,
			Ping:      input.Body.Ping,
		}
		if err := store.PushStatus(ctx, status); err != nil {
			return nil, huma.Error500InternalServerError("failed to store status", err)
		}
		return &StatusOutput{Body: *status}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetRankings",
		Method:      http.MethodGet,
		Path:        "/v1/rankings",
		Summary:     "Get rankings",
		Description: "Get the latest ranking export",
		Tags:        []string{"Rankings"},
	}, func(ctx context.Context, input *struct{}) (*RankingsOutput, error) {
		snapshot, err := store.LatestRankings(ctx)
		if errors.Is(err, live.ErrNoSnapshot) {
			return nil, huma.Error404NotFound("no rankings pushed yet")
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to read rankings", err)
		}
		return &RankingsOutput{Body: rankingsBody(snapshot)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "PushRankings",
		Method:        http.MethodPost,
		Path:          "/v1/rankings",
		Summary:       "Push rankings",
		Description:   "Store a new ranking export, sent by the game server",
		Tags:          []string{"Rankings"},
		Security:      pushSecurity,
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *PushRankingsInput) (*RankingsOutput, error) {
		snapshot, err := store.PushRankings(ctx, input.Body)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to store rankings", err)
		}
		go store.ComputeBoards(context.Background(), false)
		return &RankingsOutput{Body: rankingsBody(snapshot)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetBoards",
		Method:      http.MethodGet,
		Path:        "/v1/rankings/boards",
		Summary:     "Get leaderboards",
		Description: "Get the top entries of every leaderboard of the latest ranking export",
		Tags:        []string{"Rankings"},
	}, func(ctx context.Context, input *struct{}) (*BoardsOutput, error) {
		boards := store.CachedBoards()
		if boards == nil {
			go store.ComputeBoards(context.Background(), false)
			return nil, huma.Error503ServiceUnavailable("boards are being computed or no rankings were pushed, please retry later")
		}
		return &BoardsOutput{Body: *boards}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetPipelineStatistics",
		Method:      http.MethodGet,
		Path:        "/v1/statistics/pipeline",
		Summary:     "Get pipeline statistics",
		Description: "Get the progress of the running artifact build and the report of the last one",
		Tags:        []string{"Statistics"},
	}, func(ctx context.Context, input *struct{}) (*PipelineStatsOutput, error) {
		return &PipelineStatsOutput{Body: pipeline.GetStats()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetServerStatistics",
		Method:      http.MethodGet,
		Path:        "/v1/statistics/server",
		Summary:     "Get server statistics",
		Description: "Get account, character, zeny and level aggregates of the latest ranking export",
		Tags:        []string{"Statistics"},
	}, func(ctx context.Context, input *struct{}) (*ServerStatsOutput, error) {
		stats, err := store.LatestServerStats(ctx)
		if errors.Is(err, live.ErrNoSnapshot) {
			return nil, huma.Error404NotFound("no rankings pushed yet")
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to read rankings", err)
		}
		return &ServerStatsOutput{Body: *stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetLastBuild",
		Method:      http.MethodGet,
		Path:        "/v1/statistics/build",
		Summary:     "Get last build",
		Description: "Get the last recorded artifact build, or the last complete one",
		Tags:        []string{"Statistics"},
	}, func(ctx context.Context, input *BuildInput) (*BuildOutput, error) {
		last := store.LastBuild
		if input.Complete {
			last = store.LastCompleteBuild
		}
		build, err := last(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to read builds", err)
		}
		if build == nil {
			return nil, huma.Error404NotFound("artifacts were never built")
		}
		return &BuildOutput{Body: *build}, nil
	})
}
