package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iziplay/rodb/pkg/artifacts"
	"github.com/iziplay/rodb/pkg/records"
	"github.com/iziplay/rodb/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFetcher records how often each artifact is fetched
type countingFetcher struct {
	Fetcher
	delay time.Duration

	mu    sync.Mutex
	calls map[string]int
}

func (f *countingFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	f.mu.Unlock()
	time.Sleep(f.delay)
	return f.Fetcher.Fetch(ctx, name)
}

func (f *countingFetcher) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func writeItemFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	w := artifacts.NewWriter(dir)

	items := artifacts.Ordered[*records.Item]{}
	types := map[int][]string{}
	icons := artifacts.Ordered[int]{}
	iconBatches := []artifacts.Ordered[string]{{}, {}, {}}
	var docs []search.Document

	for i := 1; i <= 25; i++ {
		id := strconv.Itoa(i)
		item := &records.Item{ID: id, Name: "Jellopy", Description: "A small jewel", SearchText: "a small jewel", Type: (i % 2) * 4}
		switch i {
		case 1:
			item.Name, item.Description, item.SearchText = "Red Potion", "A potion", "a potion"
		case 2:
			item.Name, item.Description, item.SearchText = "Potion", "A ^FF0000red^000000 liquid", "a red liquid"
		}
		items[id] = item
		types[item.Type] = append(types[item.Type], id)
		icons[id] = (i - 1) / 10
		iconBatches[(i-1)/10][id] = "data:image/png;base64,icon" + id
		docs = append(docs, search.Document{Ref: id, Fields: map[string]string{"name": item.Name, "description": item.SearchText}})
	}
	// no icon
	items["26"] = &records.Item{ID: "26", Name: "Red Herb", Description: "A red herb", SearchText: "a red herb"}
	// no description
	items["501"] = &records.Item{ID: "501", Name: "Red Gemstone"}
	docs = append(docs,
		search.Document{Ref: "26", Fields: map[string]string{"name": "Red Herb", "description": "a red herb"}},
		search.Document{Ref: "501", Fields: map[string]string{"name": "Red Gemstone"}},
	)

	index, err := search.NewBM25().Build(docs)
	require.NoError(t, err)

	require.NoError(t, w.WriteJSON(artifacts.Items, items))
	require.NoError(t, w.WriteJSON(artifacts.ItemTypes, artifacts.IntKeys(types)))
	require.NoError(t, w.WriteJSON(artifacts.ItemDescriptor, artifacts.ItemImages{
		Icons:         icons,
		Illustrations: artifacts.Ordered[int]{"1": 0},
	}))
	require.NoError(t, w.WriteFile(artifacts.ItemSearchIndex, index))
	// the last icon batch is never written
	for n, batch := range iconBatches[:2] {
		require.NoError(t, w.WriteJSON(artifacts.BatchFile(artifacts.IconBatchPrefix, n), batch))
	}
	require.NoError(t, w.WriteJSON(artifacts.BatchFile(artifacts.IllustrationPrefix, 0), map[string]string{"1": "data:image/png;base64,illu1"}))
	return dir
}

func newItemEngine(t *testing.T) (*Engine, *countingFetcher) {
	t.Helper()
	fetcher := &countingFetcher{Fetcher: &DirFetcher{Root: writeItemFixture(t)}}
	engine, err := NewEngine(KindItems, fetcher)
	require.NoError(t, err)
	return engine, fetcher
}

func ids(from, to int) []string {
	var out []string
	for i := from; i <= to; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}

func TestEngineStates(t *testing.T) {
	engine, _ := newItemEngine(t)
	assert.Equal(t, Idle, engine.State())

	engine.Load(context.Background())
	assert.Equal(t, Ready, engine.State())
	assert.Equal(t, 27, engine.Len())
	assert.Equal(t, "ready", engine.State().String())

	_, err := NewEngine("skills", &DirFetcher{})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestEmptyTermPagination(t *testing.T) {
	engine, _ := newItemEngine(t)
	ctx := context.Background()

	session, err := engine.Search(ctx, Query{})
	require.NoError(t, err)

	assert.Equal(t, ids(1, 25), session.IDs())
	assert.Equal(t, 3, session.Pages())

	first, err := session.PageIDs(0)
	require.NoError(t, err)
	assert.Equal(t, ids(1, 10), first)

	last, err := session.PageIDs(2)
	require.NoError(t, err)
	assert.Equal(t, ids(21, 25), last)

	_, err = session.PageIDs(3)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
	_, err = session.Page(ctx, -1)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestNumericLookup(t *testing.T) {
	engine, _ := newItemEngine(t)
	ctx := context.Background()

	session, err := engine.Search(ctx, Query{Term: " 501 "})
	require.NoError(t, err)
	assert.Equal(t, []string{"501"}, session.IDs())

	session, err = engine.Search(ctx, Query{Term: "999"})
	require.NoError(t, err)
	assert.Empty(t, session.IDs())
	assert.Equal(t, 0, session.Pages())

	page, err := session.Page(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestTextSearchFiltersInvalid(t *testing.T) {
	engine, _ := newItemEngine(t)

	session, err := engine.Search(context.Background(), Query{Term: "red"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, session.IDs())
}

func TestTypeFilter(t *testing.T) {
	engine, _ := newItemEngine(t)
	ctx := context.Background()

	session, err := engine.Search(ctx, Query{Filters: Filters{Types: []int{4}}})
	require.NoError(t, err)
	assert.Len(t, session.IDs(), 13)
	for _, id := range session.IDs() {
		n, _ := strconv.Atoi(id)
		assert.Equal(t, 1, n%2, id)
	}

	session, err = engine.Search(ctx, Query{Filters: Filters{Types: []int{0, 4}}})
	require.NoError(t, err)
	assert.Len(t, session.IDs(), 25)

	session, err = engine.Search(ctx, Query{Term: "potion", Filters: Filters{Types: []int{0}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, session.IDs())

	session, err = engine.Search(ctx, Query{Filters: Filters{Types: []int{7}}})
	require.NoError(t, err)
	assert.Empty(t, session.IDs())
}

func TestPageImages(t *testing.T) {
	engine, fetcher := newItemEngine(t)
	ctx := context.Background()

	session, err := engine.Search(ctx, Query{})
	require.NoError(t, err)

	page, err := session.Page(ctx, 0)
	require.NoError(t, err)
	require.Len(t, page, 10)

	assert.Equal(t, "1", page[0].ID)
	assert.Equal(t, "Red Potion", page[0].Item.Name)
	assert.Equal(t, "data:image/png;base64,icon1", page[0].Image)
	assert.Equal(t, "data:image/png;base64,illu1", page[0].Illustration)
	assert.Equal(t, Placeholder, page[1].Illustration)

	// only the batches this page needs
	assert.Equal(t, 1, fetcher.count("icons_batch_0.json"))
	assert.Equal(t, 0, fetcher.count("icons_batch_1.json"))
	assert.Equal(t, 1, fetcher.count("illustrations_batch_0.json"))

	_, err = session.Page(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.count("icons_batch_0.json"))

	// the third batch is missing on disk
	page, err = session.Page(ctx, 2)
	require.NoError(t, err)
	require.Len(t, page, 5)
	for _, entry := range page {
		assert.Equal(t, Placeholder, entry.Image)
	}
	assert.Equal(t, Ready, engine.State())
}

func TestMissingDescriptorIsPlaceholder(t *testing.T) {
	engine, _ := newItemEngine(t)
	ctx := context.Background()

	session, err := engine.Search(ctx, Query{Term: "501"})
	require.NoError(t, err)

	page, err := session.Page(ctx, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, Placeholder, page[0].Image)
	assert.Equal(t, Placeholder, page[0].Illustration)
}

func TestCancelledLoadIsRetried(t *testing.T) {
	engine, _ := newItemEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.Search(ctx, Query{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Idle, engine.State())
	assert.Equal(t, 0, engine.Len())

	session, err := engine.Search(context.Background(), Query{Term: "potions"})
	require.NoError(t, err)
	assert.Equal(t, Ready, engine.State())
	assert.Equal(t, 27, engine.Len())
	assert.ElementsMatch(t, []string{"1", "2"}, session.IDs())
}

func TestLoadFailureLeavesNoData(t *testing.T) {
	engine, err := NewEngine(KindItems, &DirFetcher{Root: t.TempDir()})
	require.NoError(t, err)

	session, err := engine.Search(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, Ready, engine.State())
	assert.Equal(t, 0, engine.Len())
	assert.Empty(t, session.IDs())

	session, err = engine.Search(context.Background(), Query{Term: "potion"})
	require.NoError(t, err)
	assert.Empty(t, session.IDs())
}

func TestBatchFetchIsShared(t *testing.T) {
	fetcher := &countingFetcher{Fetcher: &DirFetcher{Root: writeItemFixture(t)}, delay: 20 * time.Millisecond}
	cache := newImageCache(fetcher)
	descriptor := map[string]int{"1": 0, "2": 0, "3": 0}

	var wg sync.WaitGroup
	var resolved atomic.Int32
	for range 8 {
		for id := range descriptor {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if cache.resolve(context.Background(), artifacts.IconBatchPrefix, descriptor, id) != Placeholder {
					resolved.Add(1)
				}
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, int32(24), resolved.Load())
	assert.Equal(t, 1, fetcher.count("icons_batch_0.json"))
	assert.Equal(t, 1, cache.cached())
}

func writeMobFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	w := artifacts.NewWriter(dir)

	mobs := map[string]*records.Mob{
		"1002": {ID: "1002", Name: "Poring", Name2: "Poring", Race: 3, Element: 1, Size: 1},
		"1038": {ID: "1038", Name: "Osiris", Name2: "Osiris", Race: 1, Element: 9, Size: 1, Boss: true},
		"1039": {ID: "1039", Name: "Baphomet", Name2: "Baphomet", Race: 6, Element: 7, Size: 2, Boss: true},
		"1113": {ID: "1113", Name: "Drops", Name2: "Drops", Race: 3, Element: 3, Size: 1},
		"1090": {ID: "1090", Name: "Mastering", Name2: "Mastering", Race: 3, Element: 1, Size: 1},
	}
	races := map[int][]string{}
	var docs []search.Document
	for _, id := range records.SortedIDs(mobs) {
		races[mobs[id].Race] = append(races[mobs[id].Race], id)
		docs = append(docs, search.Document{Ref: id, Fields: map[string]string{"name": mobs[id].Name, "description": mobs[id].Name2}})
	}
	index, err := search.NewBM25().Build(docs)
	require.NoError(t, err)

	require.NoError(t, w.WriteJSON(artifacts.Mobs, artifacts.Ordered[*records.Mob](mobs)))
	require.NoError(t, w.WriteJSON(artifacts.MobRaces, artifacts.IntKeys(races)))
	// 1090 has no sprite
	require.NoError(t, w.WriteJSON(artifacts.MobDescriptor, map[string]int{"1002": 0, "1038": 0, "1039": 0, "1113": 0}))
	require.NoError(t, w.WriteFile(artifacts.MobSearchIndex, index))
	require.NoError(t, w.WriteJSON(artifacts.BatchFile(artifacts.MobSpriteBatchPrefix, 0), map[string]string{
		"1002": "data:image/gif;base64,poring", "1038": "data:image/gif;base64,osiris",
		"1039": "data:image/gif;base64,bapho", "1113": "data:image/gif;base64,drops",
	}))
	return dir
}

func TestMobFacets(t *testing.T) {
	engine, err := NewEngine(KindMobs, &DirFetcher{Root: writeMobFixture(t)})
	require.NoError(t, err)
	ctx := context.Background()
	boss, notBoss := true, false

	cases := []struct {
		filters Filters
		want    []string
	}{
		{Filters{}, []string{"1002", "1038", "1039", "1113"}},
		{Filters{Races: []int{3}}, []string{"1002", "1113"}},
		{Filters{Boss: &boss}, []string{"1038", "1039"}},
		{Filters{Boss: &notBoss, Elements: []int{3}}, []string{"1113"}},
		{Filters{Sizes: []int{2}}, []string{"1039"}},
		{Filters{Races: []int{1, 6}, Elements: []int{7}}, []string{"1039"}},
		{Filters{Types: []int{4}}, []string{"1002", "1038", "1039", "1113"}},
	}
	for i, c := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			session, err := engine.Search(ctx, Query{Filters: c.filters})
			require.NoError(t, err)
			assert.Equal(t, c.want, session.IDs())
		})
	}

	session, err := engine.Search(ctx, Query{Term: "1090"})
	require.NoError(t, err)
	page, err := session.Page(ctx, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Mastering", page[0].Mob.Name)
	assert.Equal(t, Placeholder, page[0].Image)

	session, err = engine.Search(ctx, Query{Term: "osi*"})
	require.NoError(t, err)
	page, err = session.Page(ctx, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "data:image/gif;base64,osiris", page[0].Image)
	assert.Empty(t, page[0].Illustration)
}

func TestHTTPFetcher(t *testing.T) {
	dir := writeItemFixture(t)
	var requests atomic.Int32
	srv := httptest.NewServer(http.StripPrefix(DataPath, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.FileServer(http.Dir(dir)).ServeHTTP(w, r)
	})))
	defer srv.Close()

	fetcher := NewFetcher(srv.URL + "/")
	require.IsType(t, &HTTPFetcher{}, fetcher)

	_, err := fetcher.Fetch(context.Background(), "nope.json")
	assert.ErrorIs(t, err, ErrNotFound)

	engine, err := NewEngine(KindItems, fetcher)
	require.NoError(t, err)
	session, err := engine.Search(context.Background(), Query{Term: "potion"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, session.IDs())
	assert.GreaterOrEqual(t, requests.Load(), int32(5))
}

func TestDirFetcherRejectsPaths(t *testing.T) {
	f := &DirFetcher{Root: t.TempDir()}
	_, err := f.Fetch(context.Background(), "../secret.json")
	assert.Error(t, err)
	_, err = f.Fetch(context.Background(), "items.json")
	assert.ErrorIs(t, err, ErrNotFound)
}
