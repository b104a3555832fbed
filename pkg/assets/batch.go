package assets

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultBatchSize is the number of images sealed into one batch file
const DefaultBatchSize = 1000

var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Extensions lists the image extensions picked up by the batcher, in lookup order
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// Batch maps an entity id to its image data URL
type Batch map[string]string

// Result is a batched asset kind: the batches in creation order and the
// descriptor telling which batch holds each id.
type Result struct {
	Batches   []Batch
	IDToBatch map[string]int
}

// Batcher packs image files into fixed-size batches.
//
// Directory order is kept as-is unless Sorted is set, so batch membership
// follows the filesystem listing of the source directory.
type Batcher struct {
	Size   int
	Sorted bool
}

// IsImage reports whether name carries one of the accepted image extensions
func IsImage(name string) bool {
	_, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// DataURL reads an image file and encodes it as a base64 data URL
func DataURL(path string) (string, error) {
	mime, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("unsupported image extension: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (b *Batcher) size() int {
	if b == nil || b.Size <= 0 {
		return DefaultBatchSize
	}
	return b.Size
}

// NewBuilder starts an empty result that images can be appended to one by one
func (b *Batcher) NewBuilder() *Builder {
	return &Builder{
		size:   b.size(),
		result: &Result{Batches: []Batch{}, IDToBatch: map[string]int{}},
	}
}

// Batch reads every image of dir into batches. A missing or unreadable
// directory is logged and gives an empty result.
func (b *Batcher) Batch(dir string) (*Result, error) {
	builder := b.NewBuilder()

	f, err := os.Open(dir)
	if err != nil {
		slog.Error("Cannot open asset directory", "dir", dir, "error", err)
		return builder.Result(), nil
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		slog.Error("Cannot list asset directory", "dir", dir, "error", err)
		return builder.Result(), nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsImage(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	if b != nil && b.Sorted {
		slices.Sort(names)
	}

	for _, name := range names {
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if err := builder.Add(id, filepath.Join(dir, name)); err != nil {
			slog.Warn("Skipping asset", "file", name, "error", err)
		}
	}

	result := builder.Result()
	slog.Info("Batched assets", "dir", dir, "images", len(result.IDToBatch), "batches", len(result.Batches))
	return result, nil
}

// Builder accumulates images into batches, sealing one every size entries
type Builder struct {
	size    int
	current Batch
	result  *Result
}

// Add encodes the image at path under id. An id already batched is rejected
// so that every id lives in exactly one batch.
func (b *Builder) Add(id, path string) error {
	if _, dup := b.result.IDToBatch[id]; dup {
		return fmt.Errorf("duplicate asset id %q", id)
	}
	url, err := DataURL(path)
	if err != nil {
		return err
	}

	if b.current == nil {
		b.current = make(Batch, b.size)
		b.result.Batches = append(b.result.Batches, b.current)
	}
	b.current[id] = url
	b.result.IDToBatch[id] = len(b.result.Batches) - 1

	if len(b.current) >= b.size {
		b.current = nil
	}
	return nil
}

// Result returns what has been batched so far
func (b *Builder) Result() *Result {
	return b.result
}
