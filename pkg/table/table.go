package table

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/iziplay/rodb/pkg/normalize"
)

// Description holds a description block as shipped by the client and its search form
type Description struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
}

// readLines calls fn for every line of r without its line terminator.
// Read errors end the scan early, whatever was read so far is kept.
func readLines(r io.Reader, fn func(line string)) {
	reader := bufio.NewReaderSize(r, 1024*1024)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			fn(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Warn("Table read stopped early", "error", err)
			}
			return
		}
	}
}

// ParseNames parses "id#name#" lines. Lines without an id or a name are skipped.
func ParseNames(r io.Reader) map[string]string {
	names := make(map[string]string)
	readLines(r, func(line string) {
		if strings.TrimSpace(line) == "" {
			return
		}
		fields := strings.Split(line, "#")
		if len(fields) < 2 {
			return
		}
		id := strings.TrimSpace(fields[0])
		name := strings.TrimSpace(fields[1])
		if id == "" || name == "" {
			return
		}
		names[id] = name
	})
	return names
}

func isID(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ParseDescriptions parses blocks of the form
//
//	501#
//	A potion made from grinded Red Herbs.
//	#
//
// A block still open at the end of input, or when the next id line starts, is
// kept as long as it has content.
func ParseDescriptions(r io.Reader) map[string]Description {
	descriptions := make(map[string]Description)

	var currentID string
	var current []string
	flush := func() {
		if currentID != "" && len(current) > 0 {
			raw := strings.Join(current, "\n")
			descriptions[currentID] = Description{
				Raw:        raw,
				Normalized: normalize.Description(raw),
			}
		}
		current = nil
	}

	readLines(r, func(line string) {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "#":
			flush()
			currentID = ""
		case strings.HasSuffix(trimmed, "#") && isID(strings.TrimSpace(strings.TrimSuffix(trimmed, "#"))):
			flush()
			currentID = strings.TrimSpace(strings.TrimSuffix(trimmed, "#"))
		case currentID != "" && trimmed != "":
			current = append(current, trimmed)
		}
	})
	flush()

	return descriptions
}

// LoadNames reads a name table from disk. A missing or unreadable file yields an empty table.
func LoadNames(path string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("Failed to open name table", "path", path, "error", err)
		return map[string]string{}
	}
	defer f.Close()

	names := ParseNames(f)
	slog.Info("Loaded name table", "path", path, "count", len(names))
	return names
}

// LoadDescriptions reads a description table from disk. A missing or unreadable file yields an empty table.
func LoadDescriptions(path string) map[string]Description {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("Failed to open description table", "path", path, "error", err)
		return map[string]Description{}
	}
	defer f.Close()

	descriptions := ParseDescriptions(f)
	slog.Info("Loaded description table", "path", path, "count", len(descriptions))
	return descriptions
}
