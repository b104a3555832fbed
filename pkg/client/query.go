package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/iziplay/rodb/pkg/artifacts"
	"github.com/iziplay/rodb/pkg/records"
	"golang.org/x/sync/errgroup"
)

// PageSize is the number of entries per result page
const PageSize = 10

var ErrPageOutOfRange = errors.New("page out of range")

// Filters narrow a query. Within a facet any listed value matches, facets
// combine with AND. Types applies to items, the rest to mobs.
type Filters struct {
	Types    []int
	Races    []int
	Elements []int
	Sizes    []int
	Boss     *bool
}

type Query struct {
	Term    string
	Filters Filters
}

// Entry is one resolved result with its images, Placeholder when missing
type Entry struct {
	ID           string        `json:"id"`
	Item         *records.Item `json:"item,omitempty"`
	Mob          *records.Mob  `json:"mob,omitempty"`
	Image        string        `json:"image"`
	Illustration string        `json:"illustration,omitempty"`
}

// Session holds the candidate ids of one query. Pages re-slice them without
// querying again.
type Session struct {
	engine *Engine
	ids    []string
}

// Search computes the candidate list of q, loading the engine if needed.
//
// A numeric term is an id lookup and only requires the record to exist.
// Other terms go through the search index, best score first, keeping
// displayable records. An empty term lists every displayable record in id
// order.
func (e *Engine) Search(ctx context.Context, q Query) (*Session, error) {
	e.Load(ctx)
	defer e.begin()()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	term := strings.TrimSpace(q.Term)
	var ids []string
	switch {
	case term == "":
		ids = slices.Clone(e.valid)
	case records.IsNumericID(term):
		if e.exists(term) {
			ids = []string{term}
		}
	case e.searcher != nil:
		for _, r := range e.searcher.Search(term) {
			if e.displayable(r.Ref) {
				ids = append(ids, r.Ref)
			}
		}
	}

	return &Session{engine: e, ids: e.filter(ids, q.Filters)}, nil
}

func (e *Engine) filter(ids []string, f Filters) []string {
	var categories []int
	switch e.kind {
	case KindItems:
		categories = f.Types
	case KindMobs:
		categories = f.Races
	}

	var allowed *roaring.Bitmap
	if len(categories) > 0 {
		bms := make([]*roaring.Bitmap, 0, len(categories))
		for _, c := range categories {
			if bm, ok := e.categories[c]; ok {
				bms = append(bms, bm)
			}
		}
		allowed = roaring.FastOr(bms...)
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if allowed != nil {
			n, ok := bitmapID(id)
			if !ok || !allowed.Contains(n) {
				continue
			}
		}
		if e.kind == KindMobs && !mobMatches(e.mobs[id], f) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func mobMatches(mob *records.Mob, f Filters) bool {
	if mob == nil {
		return false
	}
	if len(f.Elements) > 0 && !slices.Contains(f.Elements, mob.Element) {
		return false
	}
	if len(f.Sizes) > 0 && !slices.Contains(f.Sizes, mob.Size) {
		return false
	}
	if f.Boss != nil && mob.Boss != *f.Boss {
		return false
	}
	return true
}

// IDs returns the candidate ids in result order
func (s *Session) IDs() []string {
	return s.ids
}

func (s *Session) Total() int {
	return len(s.ids)
}

// Pages is the number of result pages, ceil(total / PageSize)
func (s *Session) Pages() int {
	return (len(s.ids) + PageSize - 1) / PageSize
}

// PageIDs returns the ids shown on page n, counting from 0
func (s *Session) PageIDs(n int) ([]string, error) {
	if n == 0 && len(s.ids) == 0 {
		return []string{}, nil
	}
	if n < 0 || n >= s.Pages() {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, n, s.Pages())
	}
	start := n * PageSize
	return s.ids[start:min(start+PageSize, len(s.ids))], nil
}

// Page resolves the records and images of page n. Only the image batches
// needed by this page are fetched.
func (s *Session) Page(ctx context.Context, n int) ([]Entry, error) {
	ids, err := s.PageIDs(n)
	if err != nil {
		return nil, err
	}

	e := s.engine
	defer e.begin()()

	entries := make([]Entry, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			entries[i] = e.entry(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (e *Engine) entry(ctx context.Context, id string) Entry {
	entry := Entry{ID: id}
	switch e.kind {
	case KindMobs:
		entry.Mob = e.mobs[id]
		entry.Image = e.images.resolve(ctx, artifacts.MobSpriteBatchPrefix, e.descriptors[artifacts.MobSpriteBatchPrefix], id)
	default:
		entry.Item = e.items[id]
		entry.Image = e.images.resolve(ctx, artifacts.IconBatchPrefix, e.descriptors[artifacts.IconBatchPrefix], id)
		entry.Illustration = e.images.resolve(ctx, artifacts.IllustrationPrefix, e.descriptors[artifacts.IllustrationPrefix], id)
	}
	return entry
}
