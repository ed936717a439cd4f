package schema

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func bundleJSON(t *testing.T, l *Loader, path string) string {
	t.Helper()
	doc, err := l.Bundle(context.Background(), path)
	require.NoError(t, err)
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(data)
}

func TestBundle_NoRefs(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "schema.json", `{"type":"object","properties":{"n":{"type":"integer","maximum":1.50}}}`)

	got := bundleJSON(t, NewLoader(nil), p)
	assert.JSONEq(t, `{"type":"object","properties":{"n":{"type":"integer","maximum":1.50}}}`, got)
	assert.Contains(t, got, "1.50")
}

func TestBundle_LocalRef(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "schema.json", `{
		"definitions": {"name": {"type": "string", "minLength": 1}},
		"properties": {"first": {"$ref": "#/definitions/name"}}
	}`)

	got := bundleJSON(t, NewLoader(nil), p)
	assert.JSONEq(t, `{
		"definitions": {"name": {"type": "string", "minLength": 1}},
		"properties": {"first": {"type": "string", "minLength": 1}}
	}`, got)
}

func TestBundle_SiblingKeywordsMerged(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "schema.json", `{
		"definitions": {"name": {"type": "string", "description": "base"}},
		"properties": {"first": {"$ref": "#/definitions/name", "description": "override"}}
	}`)

	got := bundleJSON(t, NewLoader(nil), p)
	assert.JSONEq(t, `{
		"definitions": {"name": {"type": "string", "description": "base"}},
		"properties": {"first": {"type": "string", "description": "override"}}
	}`, got)
}

func TestBundle_CrossFileRef(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "common/types.json", `{
		"definitions": {
			"id": {"type": "string", "format": "uuid"},
			"ref": {"$ref": "#/definitions/id"}
		}
	}`)
	p := writeFile(t, dir, "schema.json", `{
		"properties": {
			"id": {"$ref": "common/types.json#/definitions/ref"},
			"all": {"$ref": "./common/types.json"}
		}
	}`)

	got := bundleJSON(t, NewLoader(nil), p)
	assert.JSONEq(t, `{
		"properties": {
			"id": {"type": "string", "format": "uuid"},
			"all": {"definitions": {
				"id": {"type": "string", "format": "uuid"},
				"ref": {"type": "string", "format": "uuid"}
			}}
		}
	}`, got)
}

func TestBundle_YAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "defs.yaml", "definitions:\n  count:\n    type: integer\n    minimum: 0\n")
	p := writeFile(t, dir, "schema.yml", "type: object\nproperties:\n  count:\n    $ref: defs.yaml#/definitions/count\n")

	got := bundleJSON(t, NewLoader(nil), p)
	assert.JSONEq(t, `{"type":"object","properties":{"count":{"type":"integer","minimum":0}}}`, got)
}

func TestBundle_CycleKeptAsLocalRef(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "schema.json", `{
		"definitions": {
			"node": {
				"type": "object",
				"properties": {"children": {"type": "array", "items": {"$ref": "#/definitions/node"}}}
			}
		},
		"$ref": "#/definitions/node"
	}`)

	doc, err := NewLoader(nil).Bundle(context.Background(), p)
	require.NoError(t, err)

	m := doc.(map[string]any)
	assert.Equal(t, "object", m["type"])
	children := m["properties"].(map[string]any)["children"].(map[string]any)
	assert.Equal(t, map[string]any{"$ref": "#/definitions/node"}, children["items"])
}

func TestBundle_CycleAcrossFilesPointsIntoOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"type":"object","properties":{"b":{"$ref":"b.json"}}}`)
	writeFile(t, dir, "b.json", `{"type":"object","properties":{"a":{"$ref":"a.json"}}}`)
	p := writeFile(t, dir, "schema.json", `{"$ref":"a.json"}`)

	got := bundleJSON(t, NewLoader(nil), p)
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"b": {"type": "object", "properties": {"a": {"$ref": "#"}}}
		}
	}`, got)
	assert.NotContains(t, got, "file://")
}

func TestBundle_NestedCrossFileCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"properties":{"next":{"$ref":"b.json"}}}`)
	writeFile(t, dir, "b.json", `{"items":[{"$ref":"a.json"}]}`)
	p := writeFile(t, dir, "schema.json", `{"definitions":{"a/b":{"$ref":"a.json"}}}`)

	got := bundleJSON(t, NewLoader(nil), p)
	assert.JSONEq(t, `{
		"definitions": {
			"a/b": {"properties": {"next": {"items": [{"$ref": "#/definitions/a~1b"}]}}}
		}
	}`, got)
	assert.NotContains(t, got, "file://")
}

func TestBundle_RemoteRef(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "schema.json", `{"properties":{"v":{"$ref":"https://schemas.example/v.json#/definitions/v"}}}`)

	var opened []string
	l := NewLoader(nil, WithURLOpener(func(u string) (io.ReadCloser, error) {
		opened = append(opened, u)
		return io.NopCloser(strings.NewReader(`{"definitions":{"v":{"const":1}}}`)), nil
	}))

	got := bundleJSON(t, l, p)
	assert.JSONEq(t, `{"properties":{"v":{"const":1}}}`, got)
	assert.Equal(t, []string{"https://schemas.example/v.json"}, opened)
}

func TestBundle_MissingFile(t *testing.T) {
	_, err := NewLoader(nil).Bundle(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBundle_InvalidJSON(t *testing.T) {
	p := writeFile(t, t.TempDir(), "schema.json", `{"type":`)
	_, err := NewLoader(nil).Bundle(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse json")
}

func TestBundle_BadPointer(t *testing.T) {
	p := writeFile(t, t.TempDir(), "schema.json", `{"properties":{"x":{"$ref":"#/definitions/missing"}}}`)

	_, err := NewLoader(nil).Bundle(context.Background(), p)
	require.Error(t, err)
	var re *RefError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "#/definitions/missing", re.Ref)
}

func TestBundle_MissingReferencedFile(t *testing.T) {
	p := writeFile(t, t.TempDir(), "schema.json", `{"$ref":"gone.json"}`)

	_, err := NewLoader(nil).Bundle(context.Background(), p)
	var re *RefError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBundle_Cancelled(t *testing.T) {
	p := writeFile(t, t.TempDir(), "schema.json", `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(nil).Bundle(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBundle_ReturnsFreshContainers(t *testing.T) {
	p := writeFile(t, t.TempDir(), "schema.json", `{"definitions":{"a":{"type":"string"}},"properties":{"x":{"$ref":"#/definitions/a"}}}`)
	doc, err := NewLoader(nil).Bundle(context.Background(), p)
	require.NoError(t, err)

	m := doc.(map[string]any)
	x := m["properties"].(map[string]any)["x"].(map[string]any)
	x["type"] = "number"
	assert.Equal(t, "string", m["definitions"].(map[string]any)["a"].(map[string]any)["type"])
}

func TestEncode(t *testing.T) {
	doc, err := Parse([]byte(`{"b":1,"a":{"html":"<b>"}}`), "x.json")
	require.NoError(t, err)

	out, err := Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": {\n    \"html\": \"<b>\"\n  },\n  \"b\": 1\n}", string(out))
}
