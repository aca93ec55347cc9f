package placeholder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"

	"github.com/spf13/cast"

	docerr "github.com/randalmurphal/docmerge/pkg/docmerge/errors"
)

// Record maps field names to scalar values: strings, numbers, booleans or
// nil. A nil Record means no data at all.
type Record map[string]any

// Get returns the value for name. Absent keys, nil values and nil pointers
// all report ok == false.
func (r Record) Get(name string) (any, bool) {
	v, ok := r[name]
	if !ok || isNull(v) {
		return nil, false
	}
	return v, true
}

// Clone returns a shallow copy. Cloning a nil Record yields nil.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// With returns a copy of r with key set to value. r is not modified.
func (r Record) With(key string, value any) Record {
	out := make(Record, len(r)+1)
	maps.Copy(out, r)
	out[key] = value
	return out
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// FormatValue renders a field value in its natural string form: strings
// as-is, integers in decimal, floats without exponent, booleans as
// true/false. No locale or currency formatting is applied.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return formatFloat(val, 64)
	case float32:
		return formatFloat(float64(val), 32)
	case json.Number:
		return val.String()
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// NewRecord converts a mapping with string keys into a Record.
//
// Accepts Record, map[string]any, map[string]string and any other map type
// keyed by strings. Every other shape (slices, structs, scalars) is a caller
// contract violation and returns *errors.MalformedInputError; nothing is
// coerced. A nil input yields a nil Record.
func NewRecord(v any) (Record, error) {
	switch m := v.(type) {
	case nil:
		return nil, nil
	case Record:
		return m, nil
	case map[string]any:
		return Record(m), nil
	case map[string]string:
		if m == nil {
			return nil, nil
		}
		out := make(Record, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, docerr.Malformed("record", "expected a mapping with string keys, got %T", v)
	}
	if rv.IsNil() {
		return nil, nil
	}

	out := make(Record, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}

// ParseRecordJSON decodes a JSON object into a Record. Numbers are kept as
// json.Number so they print exactly as written. JSON null yields a nil
// Record; arrays and scalars return *errors.MalformedInputError.
func ParseRecordJSON(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, docerr.Malformed("parse record", "invalid JSON: %v", err)
	}
	if dec.More() {
		return nil, docerr.Malformed("parse record", "trailing data after JSON value")
	}

	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return Record(val), nil
	default:
		return nil, docerr.Malformed("parse record", "expected a JSON object, got %s", jsonKind(v))
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
