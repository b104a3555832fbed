package pipeline

import (
	"context"

	"github.com/iziplay/rodb/pkg/artifacts"
	"github.com/iziplay/rodb/pkg/assets"
	"github.com/iziplay/rodb/pkg/normalize"
	"github.com/iziplay/rodb/pkg/records"
	"github.com/iziplay/rodb/pkg/search"
	"github.com/iziplay/rodb/pkg/table"
)

func (r *runner) mobs(ctx context.Context) (CollectionReport, []artifact, error) {
	src := r.cfg.Mobs

	var names map[string]string
	if src.Names != "" {
		names = table.LoadNames(src.Names)
	}

	dump, err := readDump(src.Dump)
	if err != nil {
		return CollectionReport{}, nil, err
	}
	catalog, err := records.BuildMobs(dump, names)
	if err != nil {
		return CollectionReport{}, nil, err
	}

	stats.UpdateStage(CollectionMobs, "indexing")
	docs := mobDocuments(catalog)
	index, err := r.buildIndex(docs)
	if err != nil {
		return CollectionReport{}, nil, err
	}

	stats.UpdateStage(CollectionMobs, "resolving sprites")
	ids := records.SortedIDs(catalog.Records)
	refs := make([]assets.SpriteRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, assets.SpriteRef{ID: id, Sprite: catalog.Records[id].Sprite})
	}
	resolver := &assets.SpriteResolver{
		Dir:     src.Sprites,
		Lookup:  r.lookup,
		Delay:   src.LookupDelay,
		Batcher: r.cfg.batcher(),
	}
	sprites, missing := resolver.Resolve(ctx, refs)

	outputs := []artifact{
		{artifacts.Mobs, artifacts.Ordered[*records.Mob](catalog.Records)},
		{artifacts.MobRaces, artifacts.IntKeys(catalog.Races)},
		{artifacts.MobSearchIndex, index},
		{artifacts.MobNameDesc, catalog.NameDesc()},
		{artifacts.MobDescriptor, artifacts.Ordered[int](sprites.IDToBatch)},
		{artifacts.MissingSprites, missing},
	}
	outputs = append(outputs, batchArtifacts(artifacts.MobSpriteBatchPrefix, sprites)...)

	return CollectionReport{
		Records: len(catalog.Records),
		Indexed: len(docs),
		Images:  len(sprites.IDToBatch),
		Batches: len(sprites.Batches),
		Missing: len(missing),
	}, outputs, nil
}

// mobDocuments indexes named mobs, the secondary name as body text
func mobDocuments(catalog *records.MobCatalog) []search.Document {
	docs := []search.Document{}
	for _, id := range records.SortedIDs(catalog.Records) {
		mob := catalog.Records[id]
		if mob.Name == "" {
			continue
		}
		docs = append(docs, search.Document{
			Ref: id,
			Fields: map[string]string{
				"name":        normalize.Name(mob.Name),
				"description": normalize.Name(mob.Name2),
			},
		})
	}
	return docs
}

func (r *runner) emptyMobs() []artifact {
	return []artifact{
		{artifacts.Mobs, artifacts.Ordered[*records.Mob]{}},
		{artifacts.MobRaces, artifacts.Ordered[[]string]{}},
		{artifacts.MobSearchIndex, emptyIndex(r.index)},
		{artifacts.MobNameDesc, []records.NameDesc{}},
		{artifacts.MobDescriptor, artifacts.Ordered[int]{}},
		{artifacts.MissingSprites, []string{}},
	}
}
