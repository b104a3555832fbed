package pipeline

import (
	"context"

	"github.com/iziplay/rodb/pkg/artifacts"
	"github.com/iziplay/rodb/pkg/normalize"
	"github.com/iziplay/rodb/pkg/records"
	"github.com/iziplay/rodb/pkg/search"
	"github.com/iziplay/rodb/pkg/table"
)

func (r *runner) items(ctx context.Context) (CollectionReport, []artifact, error) {
	src := r.cfg.Items

	names := table.LoadNames(src.Names)
	descriptions := table.LoadDescriptions(src.Descriptions)

	dump, err := readDump(src.Dump)
	if err != nil {
		return CollectionReport{}, nil, err
	}
	catalog, err := records.BuildItems(dump, names, descriptions)
	if err != nil {
		return CollectionReport{}, nil, err
	}

	stats.UpdateStage(CollectionItems, "indexing")
	docs := itemDocuments(catalog)
	index, err := r.buildIndex(docs)
	if err != nil {
		return CollectionReport{}, nil, err
	}

	stats.UpdateStage(CollectionItems, "batching")
	batcher := r.cfg.batcher()
	icons, err := batcher.Batch(src.Icons)
	if err != nil {
		return CollectionReport{}, nil, err
	}
	illustrations, err := batcher.Batch(src.Illustrations)
	if err != nil {
		return CollectionReport{}, nil, err
	}

	nameDesc := catalog.NameDesc()
	outputs := []artifact{
		{artifacts.Items, artifacts.Ordered[*records.Item](catalog.Records)},
		{artifacts.ItemTypes, artifacts.IntKeys(catalog.Types)},
		{artifacts.ItemSearchIndex, index},
		{artifacts.NameDesc, nameDesc},
		{artifacts.ItemNameDesc, nameDesc},
		{artifacts.ItemDescriptor, artifacts.ItemImages{
			Icons:         icons.IDToBatch,
			Illustrations: illustrations.IDToBatch,
		}},
	}
	outputs = append(outputs, batchArtifacts(artifacts.IconBatchPrefix, icons)...)
	outputs = append(outputs, batchArtifacts(artifacts.IllustrationPrefix, illustrations)...)

	return CollectionReport{
		Records: len(catalog.Records),
		Indexed: len(docs),
		Images:  len(icons.IDToBatch) + len(illustrations.IDToBatch),
		Batches: len(icons.Batches) + len(illustrations.Batches),
	}, outputs, nil
}

// itemDocuments indexes the items having both a name and a description
func itemDocuments(catalog *records.ItemCatalog) []search.Document {
	docs := []search.Document{}
	for _, id := range records.SortedIDs(catalog.Records) {
		item := catalog.Records[id]
		if item.Name == "" || item.SearchText == "" {
			continue
		}
		docs = append(docs, search.Document{
			Ref: id,
			Fields: map[string]string{
				"name":        normalize.Name(item.Name),
				"description": item.SearchText,
			},
		})
	}
	return docs
}

func (r *runner) emptyItems() []artifact {
	return []artifact{
		{artifacts.Items, artifacts.Ordered[*records.Item]{}},
		{artifacts.ItemTypes, artifacts.Ordered[[]string]{}},
		{artifacts.ItemSearchIndex, emptyIndex(r.index)},
		{artifacts.NameDesc, []records.NameDesc{}},
		{artifacts.ItemNameDesc, []records.NameDesc{}},
		{artifacts.ItemDescriptor, artifacts.ItemImages{Icons: artifacts.Ordered[int]{}, Illustrations: artifacts.Ordered[int]{}}},
	}
}
