package steps

import (
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"
	"gopkg.in/yaml.v3"

	"github.com/networkteam/fogonqa/docstore"
)

// parseDocString decodes a doc string written as JSON or YAML into plain JSON types.
func parseDocString(doc *godog.DocString) (any, error) {
	if doc == nil {
		return nil, fmt.Errorf("missing doc string")
	}

	var raw any
	if err := yaml.Unmarshal([]byte(doc.Content), &raw); err != nil {
		return nil, fmt.Errorf("parsing doc string: %w", err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing doc string: %w", err)
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("parsing doc string: %w", err)
	}
	return value, nil
}

func parseObject(doc *godog.DocString) (docstore.Document, error) {
	value, err := parseDocString(doc)
	if err != nil {
		return nil, err
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("doc string must be an object, got %T", value)
	}
	return obj, nil
}

// parseDocuments accepts a single object or an array of objects.
func parseDocuments(doc *godog.DocString) ([]docstore.Document, error) {
	value, err := parseDocString(doc)
	if err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case map[string]any:
		return []docstore.Document{v}, nil
	case []any:
		docs := make([]docstore.Document, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("document %d must be an object, got %T", i, item)
			}
			docs = append(docs, obj)
		}
		return docs, nil
	}
	return nil, fmt.Errorf("doc string must be an object or an array, got %T", value)
}

// subDocument returns the object under key, or an empty document when key is absent.
func subDocument(doc docstore.Document, key string) (docstore.Document, error) {
	value, ok := doc[key]
	if !ok || value == nil {
		return docstore.Document{}, nil
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%q must be an object, got %T", key, value)
	}
	return obj, nil
}
