package isojs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONParse(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	v, err := JSONParse(ctx, `{"name": "widget", "sizes": [1, 2, 3]}`)
	require.NoError(t, err)

	obj, err := AsObject(v)
	require.NoError(t, err)
	name, err := obj.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "widget", name.String())

	sizes, err := obj.Get("sizes")
	require.NoError(t, err)
	assert.True(t, sizes.IsArray())
}

func TestJSONParseMalformed(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	_, err := JSONParse(ctx, "{nope")
	require.Error(t, err)
	jsErr, ok := err.(*JSError)
	require.True(t, ok)
	assert.Contains(t, jsErr.Message, "SyntaxError")
}

func TestJSONStringify(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	v, err := ctx.RunScript(`({a: 1, b: "two"})`, "obj.js")
	require.NoError(t, err)

	s, err := JSONStringify(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":"two"}`, s)
}

func TestJSONStringifyNilContext(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	v, err := ctx.RunScript("[1, 2]", "arr.js")
	require.NoError(t, err)

	// A nil context serializes through the value's own context.
	s, err := JSONStringify(nil, v)
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", s)
}

func TestJSONRoundTrip(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	const doc = `{"nested":{"deep":[true,null,1.5]}}`
	v, err := JSONParse(ctx, doc)
	require.NoError(t, err)
	out, err := JSONStringify(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, doc, out)
}
