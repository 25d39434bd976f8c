package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Document is the raw, possibly outdated, persisted configuration.
type Document map[string]any

// ParseDocument decodes raw JSON. Blank input is a fresh install and yields an empty document.
func ParseDocument(raw []byte) (Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, invalid("document", err.Error())
	}
	if doc == nil {
		return Document{}, nil
	}
	return doc, nil
}

// Version returns the document's schema version; a missing version means 0.
func (d Document) Version() (int, error) {
	v, ok := d[keyVersion]
	if !ok || v == nil {
		return 0, nil
	}
	// Integers too large for int are still versions, just newer than any release.
	if num, isNum := v.(json.Number); isNum {
		if _, err := strconv.ParseInt(num.String(), 10, 64); errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(num.String(), "-") {
			return 0, &ConfigVersionError{Stored: math.MaxInt, Supported: CurrentVersion}
		}
	}
	n, ok := asInt(v)
	if !ok || n < 0 {
		return 0, invalid(keyVersion, fmt.Sprintf("not a non-negative integer: %v", v))
	}
	return n, nil
}

// Clone deep-copies the document so migration steps never alias their input.
func (d Document) Clone() Document {
	return cloneValue(map[string]any(d)).(map[string]any)
}

func (d Document) setDefault(key string, value any) {
	if _, ok := d[key]; !ok {
		d[key] = value
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = cloneValue(inner)
		}
		return out
	case Document:
		return cloneValue(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

// asInt accepts the numeric shapes a document can hold after JSON decoding
// (json.Number), in-memory construction (int, float64), or hand editing ("7").
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func asString(v any, fallback string) string {
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	return s
}
