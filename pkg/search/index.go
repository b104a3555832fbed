package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// IndexVersion tags the serialized index layout
const IndexVersion = "rodb-bm25-1"

// BM25 parameters
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// NameBoost weights name matches over body matches
const NameBoost = 10

// Fields indexed for both collections: the display name and a body text
// (normalized description for items, secondary name for mobs).
var DefaultFields = []Field{
	{Name: "name", Boost: NameBoost},
	{Name: "description", Boost: 1},
}

var ErrInvalidIndex = errors.New("invalid search index")

type Field struct {
	Name  string  `json:"name"`
	Boost float64 `json:"boost"`
}

// Document is one entity handed to the index, Ref is the entity id
type Document struct {
	Ref    string
	Fields map[string]string
}

type Result struct {
	Ref   string  `json:"ref"`
	Score float64 `json:"score"`
}

// Posting records how often a term occurs in one document, Doc being the
// insertion position of the document.
type Posting struct {
	Doc  int `json:"d"`
	Freq int `json:"f"`
}

// Index is an inverted BM25 index over a few weighted fields. It serializes
// to JSON and can be queried after Load without the source documents.
type Index struct {
	Version  string                          `json:"version"`
	Fields   []Field                         `json:"fields"`
	Refs     []string                        `json:"refs"`
	Lengths  map[string][]int                `json:"lengths"`
	Postings map[string]map[string][]Posting `json:"postings"`

	avgLength map[string]float64
	terms     map[string][]string
}

// Build indexes docs over fields. Documents keep their order, which breaks
// score ties at query time.
func Build(docs []Document, fields []Field) *Index {
	idx := &Index{
		Version:  IndexVersion,
		Fields:   slices.Clone(fields),
		Refs:     make([]string, 0, len(docs)),
		Lengths:  make(map[string][]int, len(fields)),
		Postings: make(map[string]map[string][]Posting, len(fields)),
	}
	for _, f := range fields {
		idx.Lengths[f.Name] = make([]int, 0, len(docs))
		idx.Postings[f.Name] = map[string][]Posting{}
	}

	for i, doc := range docs {
		idx.Refs = append(idx.Refs, doc.Ref)
		for _, f := range fields {
			terms := Tokenize(doc.Fields[f.Name])
			idx.Lengths[f.Name] = append(idx.Lengths[f.Name], len(terms))

			freq := map[string]int{}
			for _, term := range terms {
				freq[term]++
			}
			for term, n := range freq {
				idx.Postings[f.Name][term] = append(idx.Postings[f.Name][term], Posting{Doc: i, Freq: n})
			}
		}
	}

	idx.prepare()
	return idx
}

// Load decodes an index serialized with json.Marshal
func Load(data []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	}
	if idx.Version != IndexVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidIndex, idx.Version)
	}
	for _, f := range idx.Fields {
		if len(idx.Lengths[f.Name]) != len(idx.Refs) {
			return nil, fmt.Errorf("%w: field %q has %d lengths for %d documents", ErrInvalidIndex, f.Name, len(idx.Lengths[f.Name]), len(idx.Refs))
		}
		if idx.Postings[f.Name] == nil {
			idx.Postings[f.Name] = map[string][]Posting{}
		}
		for term, postings := range idx.Postings[f.Name] {
			for _, p := range postings {
				if p.Doc < 0 || p.Doc >= len(idx.Refs) || p.Freq <= 0 {
					return nil, fmt.Errorf("%w: field %q term %q has posting %+v for %d documents", ErrInvalidIndex, f.Name, term, p, len(idx.Refs))
				}
			}
		}
	}

	idx.prepare()
	return &idx, nil
}

func (idx *Index) prepare() {
	idx.avgLength = make(map[string]float64, len(idx.Fields))
	idx.terms = make(map[string][]string, len(idx.Fields))

	for _, f := range idx.Fields {
		total := 0
		for _, l := range idx.Lengths[f.Name] {
			total += l
		}
		if len(idx.Refs) > 0 {
			idx.avgLength[f.Name] = float64(total) / float64(len(idx.Refs))
		}

		terms := make([]string, 0, len(idx.Postings[f.Name]))
		for term := range idx.Postings[f.Name] {
			terms = append(terms, term)
		}
		slices.Sort(terms)
		idx.terms[f.Name] = terms
	}
}

// Len is the number of indexed documents
func (idx *Index) Len() int {
	return len(idx.Refs)
}

// expand returns the indexed terms of field a clause term stands for
func (idx *Index) expand(field string, c clause) []string {
	if c.edits > 0 {
		var out []string
		for _, term := range idx.terms[field] {
			if withinEdits(c.term, term, c.edits) {
				out = append(out, term)
			}
		}
		return out
	}
	if !c.wildcard {
		if _, ok := idx.Postings[field][c.term]; ok {
			return []string{c.term}
		}
		return nil
	}

	terms := idx.terms[field]
	start := sort.SearchStrings(terms, c.term)
	end := start
	for end < len(terms) && strings.HasPrefix(terms[end], c.term) {
		end++
	}
	return terms[start:end]
}

// withinEdits reports whether b is at most n edits away from a. Swapping two
// adjacent characters counts as a single edit.
func withinEdits(a, b string, n int) bool {
	diff := utf8.RuneCountInString(a) - utf8.RuneCountInString(b)
	if diff > n || -diff > n {
		return false
	}
	if levenshtein.ComputeDistance(a, b) <= n {
		return true
	}
	runes := []rune(a)
	for i := 0; i+1 < len(runes); i++ {
		if runes[i] == runes[i+1] {
			continue
		}
		runes[i], runes[i+1] = runes[i+1], runes[i]
		swapped := string(runes)
		runes[i], runes[i+1] = runes[i+1], runes[i]
		if levenshtein.ComputeDistance(swapped, b) <= n-1 {
			return true
		}
	}
	return false
}

func (idx *Index) score(field Field, term string, p Posting) float64 {
	n := float64(len(idx.Refs))
	df := float64(len(idx.Postings[field.Name][term]))
	idf := math.Log(1 + (n-df+0.5)/(df+0.5))

	tf := float64(p.Freq)
	norm := 1.0
	if avg := idx.avgLength[field.Name]; avg > 0 {
		norm = 1 - bm25B + bm25B*float64(idx.Lengths[field.Name][p.Doc])/avg
	}
	return idf * tf * (bm25K1 + 1) / (tf + bm25K1*norm) * field.Boost
}

// Search runs a query and returns matches by descending score, ties in
// document order.
//
// Terms are optional by default; a leading + makes one required and a
// leading - excludes documents matching it. A trailing * matches any term
// with that prefix, term~N any term within N edits, and field:term limits a
// term to one field. Terms are stemmed, so "potions" finds "potion".
func (idx *Index) Search(query string) []Result {
	clauses := idx.parse(query)

	scores := map[int]float64{}
	matched := map[int]int{}
	excluded := map[int]bool{}
	nRequired := 0

	for _, c := range clauses {
		hits := map[int]float64{}
		for _, f := range idx.Fields {
			if c.field != "" && c.field != f.Name {
				continue
			}
			for _, term := range idx.expand(f.Name, c) {
				for _, p := range idx.Postings[f.Name][term] {
					hits[p.Doc] += idx.score(f, term, p)
				}
			}
		}

		switch c.presence {
		case prohibited:
			for doc := range hits {
				excluded[doc] = true
			}
		case required:
			nRequired++
			for doc, s := range hits {
				matched[doc]++
				scores[doc] += s
			}
		default:
			for doc, s := range hits {
				scores[doc] += s
			}
		}
	}

	docs := make([]int, 0, len(scores))
	for doc := range scores {
		if excluded[doc] || matched[doc] < nRequired {
			continue
		}
		docs = append(docs, doc)
	}
	slices.Sort(docs)
	sort.SliceStable(docs, func(i, j int) bool {
		return scores[docs[i]] > scores[docs[j]]
	})

	results := make([]Result, 0, len(docs))
	for _, doc := range docs {
		results = append(results, Result{Ref: idx.Refs[doc], Score: scores[doc]})
	}
	return results
}
