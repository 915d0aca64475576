package isojs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestObject(t *testing.T, ctx *Context, source string) *Object {
	t.Helper()
	v, err := ctx.RunScript(source, "obj.js")
	require.NoError(t, err)
	obj, err := AsObject(v)
	require.NoError(t, err)
	return obj
}

func TestObjectGetSet(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	obj := newTestObject(t, ctx, "({a: 1, b: 'two'})")

	v, err := obj.Get("a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Integer())

	v, err = obj.Get("missing")
	require.NoError(t, err)
	assert.True(t, v.IsUndefined())

	val, err := NewValueString(iso, "three")
	require.NoError(t, err)
	require.NoError(t, obj.Set("c", val))
	v, err = obj.Get("c")
	require.NoError(t, err)
	assert.Equal(t, "three", v.String())
}

func TestObjectIndexed(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	obj := newTestObject(t, ctx, "['zero', 'one']")

	v, err := obj.GetIdx(1)
	require.NoError(t, err)
	assert.Equal(t, "one", v.String())

	require.NoError(t, obj.SetIdx(2, NewValueInteger(iso, 9)))
	v, err = obj.GetIdx(2)
	require.NoError(t, err)
	assert.Equal(t, int64(9), v.Integer())

	assert.True(t, obj.HasIdx(0))
	assert.False(t, obj.HasIdx(5))
	assert.True(t, obj.DeleteIdx(0))
	v, err = obj.GetIdx(0)
	require.NoError(t, err)
	assert.True(t, v.IsUndefined())
}

func TestObjectHasDelete(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	obj := newTestObject(t, ctx, "({here: 1})")

	assert.True(t, obj.Has("here"))
	assert.False(t, obj.Has("gone"))
	// Inherited properties count.
	assert.True(t, obj.Has("toString"))

	assert.True(t, obj.Delete("here"))
	assert.False(t, obj.Has("here"))
	// Deleting an absent property still reports success.
	assert.True(t, obj.Delete("never"))
}

func TestObjectSymbolKeys(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	obj := newTestObject(t, ctx, "({})")
	key := BuiltinSymbol(iso, SymbolToStringTag)
	require.NotNil(t, key)

	require.NoError(t, obj.SetAny(key, mustString(t, iso, "Tagged")))
	assert.True(t, obj.HasAny(key))

	v, err := obj.GetAny(key)
	require.NoError(t, err)
	assert.Equal(t, "Tagged", v.String())

	tagged, err := ctx.RunScript("(function(o){ return Object.prototype.toString.call(o) })", "probe.js")
	require.NoError(t, err)
	fn, err := AsFunction(tagged)
	require.NoError(t, err)
	res, err := fn.Call(nil, obj.Value)
	require.NoError(t, err)
	assert.Equal(t, "[object Tagged]", res.String())

	assert.True(t, obj.DeleteAny(key))
	assert.False(t, obj.HasAny(key))
}

func TestAsObjectRejectsPrimitive(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()

	_, err := AsObject(NewValueNumber(iso, 1))
	require.ErrorIs(t, err, ErrValueNotObject)
}

func TestObjectGetterThrowTranslates(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	obj := newTestObject(t, ctx, "({get trap() { throw new Error('no entry') }})")
	_, err := obj.Get("trap")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entry")
}

func TestObjectHasThrowingGetter(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	obj := newTestObject(t, ctx, "({get trap() { throw new Error('no entry') }})")
	key := BuiltinSymbol(iso, SymbolToStringTag)
	require.NotNil(t, key)

	assert.NotPanics(t, func() {
		assert.False(t, obj.Has("trap"))
		assert.False(t, obj.HasAny(mustString(t, iso, "trap")))
		assert.False(t, obj.HasAny(key))
	})
}

func mustString(t *testing.T, iso *Isolate, s string) *Value {
	t.Helper()
	v, err := NewValueString(iso, s)
	require.NoError(t, err)
	return v
}
