package search

import "encoding/json"

// Searcher answers free-text queries with ranked entity ids
type Searcher interface {
	Search(query string) []Result
}

// Engine builds a serialized index from documents and loads it back into a
// Searcher, so callers do not depend on the index layout.
type Engine interface {
	Build(docs []Document) ([]byte, error)
	Load(data []byte) (Searcher, error)
}

// BM25 is the default Engine, an inverted index scored with BM25 per field
type BM25 struct {
	Fields []Field
}

func NewBM25() *BM25 {
	return &BM25{Fields: DefaultFields}
}

func (e *BM25) Build(docs []Document) ([]byte, error) {
	return json.Marshal(Build(docs, e.Fields))
}

func (e *BM25) Load(data []byte) (Searcher, error) {
	idx, err := Load(data)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

var _ Engine = (*BM25)(nil)
