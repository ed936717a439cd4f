// Package schema loads JSON Schema documents from disk or URL and bundles
// them into a single document with every $ref replaced by its target.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a schema document. Names ending in .yaml or .yml are read as
// YAML; everything else as JSON. Numbers are kept as json.Number so
// re-encoding never changes their text.
func Parse(data []byte, name string) (any, error) {
	if isYAML(name) {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("schema: parse yaml %s: %w", name, err)
		}
		norm, err := normalizeYAML(raw)
		if err != nil {
			return nil, fmt.Errorf("schema: parse yaml %s: %w", name, err)
		}
		data, err = json.Marshal(norm)
		if err != nil {
			return nil, fmt.Errorf("schema: parse yaml %s: %w", name, err)
		}
	}
	doc, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("schema: parse json %s: %w", name, err)
	}
	return doc, nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after document")
	}
	return doc, nil
}

// Encode renders doc as two-space indented JSON without HTML escaping.
// Object keys come out sorted, so equal documents encode identically.
func Encode(doc any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("schema: encode: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// normalizeYAML converts map[any]any nodes, which yaml.v3 produces for
// non-string keys, into JSON-compatible map[string]any.
func normalizeYAML(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			n, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			n, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			n, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return v, nil
	}
}
