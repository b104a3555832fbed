package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring"
	"github.com/iziplay/rodb/pkg/artifacts"
	"github.com/iziplay/rodb/pkg/records"
	"github.com/iziplay/rodb/pkg/search"
	"golang.org/x/sync/errgroup"
)

// Kind selects the collection an Engine serves
type Kind string

const (
	KindItems Kind = "items"
	KindMobs  Kind = "mobs"
)

// State of an Engine. Loading is also reported while a query or page is
// being resolved.
type State int32

const (
	Idle State = iota
	Loading
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

var ErrUnknownKind = errors.New("unknown collection kind")

// Engine answers queries for one collection from the artifacts a Fetcher
// provides. It only ever reads artifacts.
type Engine struct {
	kind    Kind
	fetcher Fetcher
	index   search.Engine
	images  *imageCache

	loadMu sync.Mutex
	loaded bool
	stage  atomic.Int32
	busy   atomic.Int32

	// populated once by Load, read-only afterwards
	items       map[string]*records.Item
	mobs        map[string]*records.Mob
	categories  map[int]*roaring.Bitmap
	descriptors map[string]map[string]int
	searcher    search.Searcher
	valid       []string
}

func NewEngine(kind Kind, fetcher Fetcher) (*Engine, error) {
	if kind != KindItems && kind != KindMobs {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return &Engine{
		kind:    kind,
		fetcher: fetcher,
		index:   search.NewBM25(),
		images:  newImageCache(fetcher),
	}, nil
}

func (e *Engine) Kind() Kind {
	return e.kind
}

func (e *Engine) State() State {
	stage := State(e.stage.Load())
	if stage == Ready && e.busy.Load() > 0 {
		return Loading
	}
	return stage
}

func (e *Engine) begin() func() {
	e.busy.Add(1)
	return func() { e.busy.Add(-1) }
}

type artifactSet struct {
	records    string
	categories string
	descriptor string
	index      string
}

func (e *Engine) artifactSet() artifactSet {
	if e.kind == KindMobs {
		return artifactSet{artifacts.Mobs, artifacts.MobRaces, artifacts.MobDescriptor, artifacts.MobSearchIndex}
	}
	return artifactSet{artifacts.Items, artifacts.ItemTypes, artifacts.ItemDescriptor, artifacts.ItemSearchIndex}
}

// Load fetches the startup artifacts concurrently and prepares the engine.
// It runs once; a failure is logged and leaves the engine ready with no data.
// A load interrupted by ctx leaves the engine idle and the next call retries.
func (e *Engine) Load(ctx context.Context) {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	if e.loaded {
		return
	}

	e.stage.Store(int32(Loading))
	if err := e.load(ctx); err != nil {
		e.reset()
		if ctx.Err() != nil {
			slog.Warn("Collection load interrupted", "kind", e.kind, "error", err)
			e.stage.Store(int32(Idle))
			return
		}
		slog.Error("Cannot load collection", "kind", e.kind, "error", err)
	} else {
		slog.Info("Collection loaded", "kind", e.kind, "records", e.Len(), "displayable", len(e.valid))
	}
	e.loaded = true
	e.stage.Store(int32(Ready))
}

func (e *Engine) load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	set := e.artifactSet()
	var recordsData, categoriesData, descriptorData, indexData []byte

	g, gctx := errgroup.WithContext(ctx)
	fetch := func(name string, dst *[]byte) {
		g.Go(func() error {
			data, err := e.fetcher.Fetch(gctx, name)
			if err != nil {
				return err
			}
			*dst = data
			return nil
		})
	}
	fetch(set.records, &recordsData)
	fetch(set.categories, &categoriesData)
	fetch(set.descriptor, &descriptorData)
	fetch(set.index, &indexData)
	if err := g.Wait(); err != nil {
		return err
	}

	switch e.kind {
	case KindItems:
		if err := json.Unmarshal(recordsData, &e.items); err != nil {
			return fmt.Errorf("failed to decode %s: %w", set.records, err)
		}
		var descriptor struct {
			Icons         map[string]int `json:"icons"`
			Illustrations map[string]int `json:"illustrations"`
		}
		if err := json.Unmarshal(descriptorData, &descriptor); err != nil {
			return fmt.Errorf("failed to decode %s: %w", set.descriptor, err)
		}
		e.descriptors = map[string]map[string]int{
			artifacts.IconBatchPrefix:    descriptor.Icons,
			artifacts.IllustrationPrefix: descriptor.Illustrations,
		}
	case KindMobs:
		if err := json.Unmarshal(recordsData, &e.mobs); err != nil {
			return fmt.Errorf("failed to decode %s: %w", set.records, err)
		}
		var descriptor map[string]int
		if err := json.Unmarshal(descriptorData, &descriptor); err != nil {
			return fmt.Errorf("failed to decode %s: %w", set.descriptor, err)
		}
		e.descriptors = map[string]map[string]int{artifacts.MobSpriteBatchPrefix: descriptor}
	}

	var categories map[string][]string
	if err := json.Unmarshal(categoriesData, &categories); err != nil {
		return fmt.Errorf("failed to decode %s: %w", set.categories, err)
	}
	e.categories = bitmaps(categories)

	searcher, err := e.index.Load(indexData)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", set.index, err)
	}
	e.searcher = searcher

	for _, id := range e.ids() {
		if e.displayable(id) {
			e.valid = append(e.valid, id)
		}
	}
	return nil
}

func (e *Engine) reset() {
	e.items = nil
	e.mobs = nil
	e.categories = nil
	e.descriptors = nil
	e.searcher = nil
	e.valid = nil
}

// bitmaps turns a category index into one bitmap of ids per category.
// Non-numeric ids and category keys cannot be represented and are dropped.
func bitmaps(categories map[string][]string) map[int]*roaring.Bitmap {
	out := make(map[int]*roaring.Bitmap, len(categories))
	for key, ids := range categories {
		category, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		bm := roaring.New()
		for _, id := range ids {
			if n, ok := bitmapID(id); ok {
				bm.Add(n)
			}
		}
		out[category] = bm
	}
	return out
}

func bitmapID(id string) (uint32, bool) {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// Len is the number of records in the store
func (e *Engine) Len() int {
	if e.kind == KindMobs {
		return len(e.mobs)
	}
	return len(e.items)
}

// ids returns every record id in id order
func (e *Engine) ids() []string {
	if e.kind == KindMobs {
		return records.SortedIDs(e.mobs)
	}
	return records.SortedIDs(e.items)
}

func (e *Engine) exists(id string) bool {
	if e.kind == KindMobs {
		_, ok := e.mobs[id]
		return ok
	}
	_, ok := e.items[id]
	return ok
}

func (e *Engine) displayable(id string) bool {
	switch e.kind {
	case KindMobs:
		mob, ok := e.mobs[id]
		_, sprite := e.descriptors[artifacts.MobSpriteBatchPrefix][id]
		return ok && mob.Displayable(sprite)
	default:
		item, ok := e.items[id]
		_, icon := e.descriptors[artifacts.IconBatchPrefix][id]
		return ok && item.Displayable(icon)
	}
}
