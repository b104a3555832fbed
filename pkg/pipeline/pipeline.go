package pipeline

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/iziplay/rodb/pkg/artifacts"
	"github.com/iziplay/rodb/pkg/assets"
	"github.com/iziplay/rodb/pkg/search"
)

const (
	CollectionItems = "items"
	CollectionMobs  = "mobs"
)

// CollectionReport summarizes what one collection produced
type CollectionReport struct {
	Records int    `json:"records"`
	Indexed int    `json:"indexed"`
	Images  int    `json:"images"`
	Batches int    `json:"batches"`
	Missing int    `json:"missing"`
	Error   string `json:"error,omitempty"`
}

// Report is the outcome of a pipeline run
type Report struct {
	Started  time.Time         `json:"started"`
	Finished time.Time         `json:"finished"`
	Output   string            `json:"output"`
	Items    CollectionReport  `json:"items"`
	Mobs     CollectionReport  `json:"mobs"`
	Written  []string          `json:"written"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// Complete reports whether both collections built and every artifact was written
func (r *Report) Complete() bool {
	return r.Items.Error == "" && r.Mobs.Error == "" && len(r.Failed) == 0
}

type artifact struct {
	name  string
	value any
}

type runner struct {
	cfg    *Config
	writer *artifacts.Writer
	index  search.Engine
	lookup assets.Lookup
}

// Run builds the items collection and then the mobs collection into
// cfg.Output. A collection whose dump cannot be read or parsed is written out
// empty and the run goes on. The returned error covers artifacts that could
// not be written and cancellation.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	stats.StartRun(cfg.Output, []string{CollectionItems, CollectionMobs})

	r := &runner{
		cfg:    cfg,
		writer: artifacts.NewWriter(cfg.Output),
		index:  search.NewBM25(),
	}
	if cfg.Mobs.LookupURL != "" {
		r.lookup = assets.NewHTTPLookup(cfg.Mobs.LookupURL)
	}

	report := &Report{Started: time.Now().UTC(), Output: cfg.Output}
	slog.Info("Starting pipeline", "output", cfg.Output)

	report.Items = r.collection(ctx, CollectionItems, r.items, r.emptyItems)
	report.Mobs = r.collection(ctx, CollectionMobs, r.mobs, r.emptyMobs)

	report.Finished = time.Now().UTC()
	report.Written = r.writer.Written()

	err := r.writer.Err()
	var we *artifacts.Error
	if errors.As(err, &we) {
		report.Failed = make(map[string]string, len(we.Failed))
		for name, e := range we.Failed {
			report.Failed[name] = e.Error()
		}
	}

	stats.EndRun(report)
	slog.Info("Pipeline finished",
		"items", report.Items.Records,
		"mobs", report.Mobs.Records,
		"written", len(report.Written),
		"failed", len(report.Failed),
		"took", report.Finished.Sub(report.Started),
	)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return report, errors.Join(ctxErr, err)
	}
	return report, err
}

type buildFunc func(ctx context.Context) (CollectionReport, []artifact, error)

// collection builds one collection and writes its artifacts. A build error or
// panic replaces the artifacts with empty ones.
func (r *runner) collection(ctx context.Context, name string, build buildFunc, empty func() []artifact) CollectionReport {
	stats.UpdateStage(name, "building")

	report, outputs, err := safeBuild(ctx, build)
	if err != nil {
		slog.Error("Cannot build collection, writing empty outputs", "collection", name, "error", err)
		report = CollectionReport{Error: err.Error()}
		outputs = empty()
	}

	stats.UpdateStage(name, "writing")
	for _, a := range outputs {
		_ = r.writer.WriteJSON(a.name, a.value)
	}

	stats.EndCollection(name, err)
	return report
}

func safeBuild(ctx context.Context, build buildFunc) (report CollectionReport, outputs []artifact, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return build(ctx)
}

// readDump reads a database dump, gunzipping it when the name ends in .gz
func readDump(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read database dump: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("cannot read database dump %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	dump, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read database dump %s: %w", path, err)
	}
	return dump, nil
}

func (r *runner) buildIndex(docs []search.Document) (json.RawMessage, error) {
	data, err := r.index.Build(docs)
	if err != nil {
		return nil, fmt.Errorf("cannot build search index: %w", err)
	}
	return data, nil
}

// batchArtifacts lists the batch files of an image kind
func batchArtifacts(prefix string, result *assets.Result) []artifact {
	out := make([]artifact, 0, len(result.Batches))
	for n, batch := range result.Batches {
		out = append(out, artifact{artifacts.BatchFile(prefix, n), artifacts.Ordered[string](batch)})
	}
	return out
}

func emptyIndex(e search.Engine) json.RawMessage {
	data, err := e.Build(nil)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
