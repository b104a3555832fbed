package records

import (
	"cmp"
	"maps"
	"slices"
	"strings"
)

// CompareIDs orders numeric ids by value ("2" before "10"), anything else after
// them in lexical order.
func CompareIDs(a, b string) int {
	na, nb := isNumeric(a), isNumeric(b)
	switch {
	case na && nb:
		ta, tb := strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if c := cmp.Compare(len(ta), len(tb)); c != 0 {
			return c
		}
		if c := strings.Compare(ta, tb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case na:
		return -1
	case nb:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func isNumeric(s string) bool {
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

// IsNumericID reports whether s is a bare numeric id like "501"
func IsNumericID(s string) bool {
	return isNumeric(s)
}

// SortedIDs returns the keys of m in CompareIDs order
func SortedIDs[V any](m map[string]V) []string {
	ids := slices.Collect(maps.Keys(m))
	slices.SortFunc(ids, CompareIDs)
	return ids
}
