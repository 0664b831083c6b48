package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Normalize converts doc to plain JSON types so that documents from different sources
// compare equal.
func Normalize(doc Document) (Document, error) {
	if doc == nil {
		return Document{}, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return out, nil
}

// Lookup returns the value at a dotted path like "artist.name".
func Lookup(doc Document, path string) (any, bool) {
	var current any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// checkFilter rejects query operators. Only equality filters are supported.
func checkFilter(filter Document) error {
	for key, value := range filter {
		if strings.HasPrefix(key, "$") {
			return fmt.Errorf("%w: operator %s", ErrUnsupportedFilter, key)
		}
		if m, ok := value.(map[string]any); ok {
			for k := range m {
				if strings.HasPrefix(k, "$") {
					return fmt.Errorf("%w: operator %s on %s", ErrUnsupportedFilter, k, key)
				}
			}
		}
	}
	return nil
}

// matches reports whether doc satisfies filter. Both must be normalized. A filter value
// also matches an array field containing it.
func matches(doc, filter Document) bool {
	for path, want := range filter {
		got, ok := Lookup(doc, path)
		if !ok {
			if want == nil {
				continue
			}
			return false
		}
		if reflect.DeepEqual(got, want) {
			continue
		}
		if arr, isArr := got.([]any); isArr && containsValue(arr, want) {
			continue
		}
		return false
	}
	return true
}

func containsValue(arr []any, want any) bool {
	for _, v := range arr {
		if reflect.DeepEqual(v, want) {
			return true
		}
	}
	return false
}

// applySet writes the fields of set into doc, creating nested objects for dotted paths.
// It reports whether doc changed.
func applySet(doc, set Document) bool {
	changed := false
	for path, value := range set {
		parts := strings.Split(path, ".")
		target := doc
		for _, part := range parts[:len(parts)-1] {
			next, ok := target[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				target[part] = next
				changed = true
			}
			target = next
		}
		last := parts[len(parts)-1]
		if old, ok := target[last]; ok && reflect.DeepEqual(old, value) {
			continue
		}
		target[last] = value
		changed = true
	}
	return changed
}
