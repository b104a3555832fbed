package records

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iziplay/rodb/pkg/normalize"
	"github.com/tidwall/gjson"
)

// ErrInvalidDump is returned when a database dump is not parseable JSON or has an unknown shape
var ErrInvalidDump = errors.New("invalid database dump")

// entities returns the list of raw entities of a dump: either a bare array or
// an object wrapping the array under one of the given keys.
func entities(dump []byte, wrappers ...string) ([]gjson.Result, error) {
	if !gjson.ValidBytes(dump) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidDump)
	}

	root := gjson.ParseBytes(dump)
	if root.IsArray() {
		return root.Array(), nil
	}
	for _, key := range wrappers {
		if list := root.Get(key); list.IsArray() {
			return list.Array(), nil
		}
	}
	return nil, fmt.Errorf("%w: expected an array or an object with one of %v", ErrInvalidDump, wrappers)
}

// field returns the first of keys present on obj
func field(obj gjson.Result, keys ...string) gjson.Result {
	for _, key := range keys {
		if r := obj.Get(key); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func intField(obj gjson.Result, keys ...string) int {
	return int(field(obj, keys...).Int())
}

func stringField(obj gjson.Result, keys ...string) string {
	r := field(obj, keys...)
	if r.Type == gjson.Null {
		return ""
	}
	return strings.TrimSpace(r.String())
}

func boolField(obj gjson.Result, keys ...string) bool {
	return field(obj, keys...).Bool()
}

// idField coerces numeric or string ids to their string form
func idField(obj gjson.Result, keys ...string) string {
	r := field(obj, keys...)
	switch r.Type {
	case gjson.Number:
		return strconv.FormatInt(r.Int(), 10)
	case gjson.String:
		return strings.TrimSpace(r.Str)
	default:
		return ""
	}
}

// packedValue reads a bit-flag integer. Dumps carry these as numbers, as
// "0xFFFFFFFF" strings or as -1 meaning every bit.
func packedValue(r gjson.Result) uint32 {
	switch r.Type {
	case gjson.Number:
		if r.Num < 0 {
			return uint32(int32(r.Int()))
		}
		return uint32(r.Uint())
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if v, err := strconv.ParseUint(s, 0, 64); err == nil {
			return uint32(v)
		}
		if v, err := strconv.ParseInt(s, 0, 64); err == nil {
			return uint32(int32(v))
		}
	}
	return 0
}

// bitsField decodes a packed bit-flag field into its category ids.
// Fields already given as lists are taken as-is.
func bitsField(obj gjson.Result, keys ...string) []int {
	r := field(obj, keys...)
	if !r.Exists() {
		return []int{}
	}
	if r.IsArray() {
		bits := []int{}
		for _, v := range r.Array() {
			bits = append(bits, int(v.Int()))
		}
		return bits
	}
	return normalize.Bitflags(packedValue(r))
}
