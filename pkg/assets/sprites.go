package assets

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultLookupDelay spaces consecutive calls to the external sprite lookup
const DefaultLookupDelay = 500 * time.Millisecond

// SpriteRef identifies a mob whose sprite has to be found
type SpriteRef struct {
	ID     string
	Sprite string
}

// SpriteResolver finds the sprite image of each mob in Dir. When neither the
// id nor the sprite name matches a file, Lookup is asked once for an alternate
// name. Lookup may be nil.
type SpriteResolver struct {
	Dir     string
	Lookup  Lookup
	Delay   time.Duration
	Batcher *Batcher
}

// Resolve batches the sprites of mobs in the given order. Mobs without a
// sprite are returned in missing; no failure aborts the run.
func (r *SpriteResolver) Resolve(ctx context.Context, mobs []SpriteRef) (*Result, []string) {
	builder := r.Batcher.NewBuilder()
	missing := []string{}

	if _, err := os.Stat(r.Dir); err != nil {
		slog.Error("Cannot read sprite directory", "dir", r.Dir, "error", err)
	}

	delay := r.Delay
	if delay <= 0 {
		delay = DefaultLookupDelay
	}
	// every lookup, the first one included, waits delay
	limiter := rate.NewLimiter(rate.Every(delay), 1)
	limiter.Reserve()

	lookups := 0
	for _, mob := range mobs {
		path := r.find(mob.ID, mob.Sprite)

		if path == "" && r.Lookup != nil && ctx.Err() == nil {
			if err := limiter.Wait(ctx); err != nil {
				slog.Warn("Sprite lookup cancelled", "id", mob.ID, "error", err)
			} else {
				lookups++
				alternate, err := r.Lookup.Resolve(ctx, mob)
				if err != nil {
					slog.Warn("Sprite lookup failed", "id", mob.ID, "sprite", mob.Sprite, "error", err)
				} else {
					path = r.find(alternate)
				}
			}
		}

		if path == "" {
			missing = append(missing, mob.ID)
			continue
		}
		if err := builder.Add(mob.ID, path); err != nil {
			slog.Warn("Cannot batch sprite", "id", mob.ID, "file", path, "error", err)
			missing = append(missing, mob.ID)
		}
	}

	result := builder.Result()
	slog.Info("Resolved mob sprites", "found", len(result.IDToBatch), "missing", len(missing), "lookups", lookups)
	return result, missing
}

// find returns the first existing image file named after one of names
func (r *SpriteResolver) find(names ...string) string {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || strings.ContainsAny(name, `/\`) {
			continue
		}
		for _, candidate := range []string{name, strings.ToLower(name)} {
			for _, ext := range Extensions {
				path := filepath.Join(r.Dir, candidate+ext)
				if info, err := os.Stat(path); err == nil && !info.IsDir() {
					return path
				}
			}
		}
	}
	return ""
}
