package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/iziplay/rodb/pkg/records"
)

// Artifact file names, relative to the data root
const (
	Items                = "items.json"
	ItemTypes            = "types.json"
	ItemDescriptor       = "images_descriptor.json"
	ItemSearchIndex      = "search-index.json"
	ItemNameDesc         = "item-namedesc.json"
	NameDesc             = "namedesc.json"
	Mobs                 = "mobs.json"
	MobRaces             = "mob-races.json"
	MobDescriptor        = "mob_images_descriptor.json"
	MobSearchIndex       = "mob-search-index.json"
	MobNameDesc          = "mob-namedesc.json"
	MissingSprites       = "missing_sprites.json"
	IconBatchPrefix      = "icons"
	IllustrationPrefix   = "illustrations"
	MobSpriteBatchPrefix = "mob_sprites"
)

// BatchFile names the Nth batch file of an asset kind, e.g. icons_batch_0.json
func BatchFile(prefix string, n int) string {
	return prefix + "_batch_" + strconv.Itoa(n) + ".json"
}

// ItemImages is the item descriptor, one id to batch map per image kind
type ItemImages struct {
	Icons         Ordered[int] `json:"icons"`
	Illustrations Ordered[int] `json:"illustrations"`
}

// Error reports the artifacts that could not be written
type Error struct {
	Failed map[string]error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to write %d artifact(s)", len(e.Failed))
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		errs = append(errs, err)
	}
	return errs
}

// Writer persists artifacts under Dir. Each file is written to a temporary
// sibling and renamed into place so a failure leaves the previous version.
type Writer struct {
	Dir string

	failed  map[string]error
	written []string
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, failed: map[string]error{}}
}

// WriteJSON encodes v to Dir/name. The error is also recorded for Err.
func (w *Writer) WriteJSON(name string, v any) error {
	err := w.writeJSON(name, v)
	if err != nil {
		if w.failed == nil {
			w.failed = map[string]error{}
		}
		w.failed[name] = err
		slog.Error("Cannot write artifact", "file", name, "error", err)
		return err
	}
	w.written = append(w.written, name)
	slog.Debug("Wrote artifact", "file", name)
	return nil
}

func (w *Writer) writeJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return w.WriteFile(name, data)
}

// WriteFile atomically replaces Dir/name with data
func (w *Writer) WriteFile(name string, data []byte) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(w.Dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(w.Dir, name)); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	return nil
}

// Written lists the artifacts written successfully, in write order
func (w *Writer) Written() []string {
	return w.written
}

// Err returns an *Error covering every failed write, or nil
func (w *Writer) Err() error {
	if len(w.failed) == 0 {
		return nil
	}
	failed := make(map[string]error, len(w.failed))
	for name, err := range w.failed {
		failed[name] = err
	}
	return &Error{Failed: failed}
}

// Ordered is a map encoded as a JSON object with keys in id order, numeric
// keys by value so "2" comes before "10".
type Ordered[V any] map[string]V

func (o Ordered[V]) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range records.SortedIDs(map[string]V(o)) {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(o[key])
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// IntKeys converts a category index to an Ordered map keyed by the category id
func IntKeys[V any](m map[int]V) Ordered[V] {
	out := make(Ordered[V], len(m))
	for k, v := range m {
		out[strconv.Itoa(k)] = v
	}
	return out
}

// IsWriteError reports whether err came from a failed artifact write
func IsWriteError(err error) bool {
	var we *Error
	return errors.As(err, &we)
}
