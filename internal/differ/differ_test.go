package differ

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemacheck/schemacheck-go/internal/schema"
)

func doc(t *testing.T, src string) any {
	t.Helper()
	d, err := schema.Parse([]byte(src), "x.json")
	require.NoError(t, err)
	return d
}

func TestDiff_Identical(t *testing.T) {
	x := doc(t, `{"type":"object","properties":{"a":{"type":"string"}}}`)
	text, err := NewUnified().Diff(x, x)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestDiff_KeyOrderIgnored(t *testing.T) {
	a := doc(t, `{"type":"object","title":"T"}`)
	b := doc(t, `{"title":"T","type":"object"}`)
	text, err := NewUnified().Diff(a, b)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestDiff_Changed(t *testing.T) {
	prev := doc(t, `{"type":"object","properties":{"a":{"type":"string"}}}`)
	cur := doc(t, `{"type":"object","properties":{"a":{"type":"integer"}}}`)

	text, err := NewUnified().Diff(prev, cur)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "--- previous\n+++ current\n@@ "), text)
	assert.Contains(t, text, "\n-      \"type\": \"string\"\n")
	assert.Contains(t, text, "\n+      \"type\": \"integer\"\n")
}

func TestDiff_ContextLines(t *testing.T) {
	prev := doc(t, `{"a":1,"b":2,"c":3,"d":4,"e":5,"f":6,"g":7}`)
	cur := doc(t, `{"a":1,"b":2,"c":3,"d":40,"e":5,"f":6,"g":7}`)

	u := NewUnified()
	u.Context = 0
	text, err := u.Diff(prev, cur)
	require.NoError(t, err)
	assert.NotContains(t, text, `"c": 3`)

	u.Context = 3
	text, err = u.Diff(prev, cur)
	require.NoError(t, err)
	assert.Contains(t, text, `"c": 3`)
}

func TestSummarize(t *testing.T) {
	prev := doc(t, `{"type":"object","required":["a"],"properties":{"a":{"type":"string"},"b":{"type":"string"}}}`)
	cur := doc(t, `{"type":"object","required":["a"],"properties":{"a":{"type":"integer"},"c":{"type":"string"}}}`)

	sum, err := NewUnified().Summarize(prev, cur)
	require.NoError(t, err)
	assert.False(t, sum.Empty())
	assert.Equal(t, 1, sum.Replaced)
	assert.Contains(t, sum.RemovedPaths, "/properties/b")
	assert.GreaterOrEqual(t, sum.Added, 1)
}

func TestSummarize_Identical(t *testing.T) {
	x := doc(t, `{"type":"object"}`)
	sum, err := NewUnified().Summarize(x, x)
	require.NoError(t, err)
	assert.True(t, sum.Empty())
	assert.Empty(t, sum.RemovedPaths)
}
