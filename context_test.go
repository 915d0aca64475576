package isojs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScript(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	tests := []struct {
		name   string
		source string
		check  func(t *testing.T, v *Value)
	}{
		{
			name:   "number",
			source: "1 + 2",
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, int64(3), v.Integer())
			},
		},
		{
			name:   "string",
			source: `"a" + "b"`,
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, "ab", v.String())
			},
		},
		{
			name:   "division by zero is Infinity",
			source: "1/0",
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, "Infinity", v.String())
			},
		},
		{
			name:   "state persists across runs",
			source: "var counter = (typeof counter === 'undefined') ? 1 : counter + 1; counter",
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, int64(1), v.Integer())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ctx.RunScript(tt.source, "test.js")
			require.NoError(t, err)
			tt.check(t, v)
		})
	}
}

func TestContextIsolation(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()

	a := NewContext(iso)
	defer a.Close()
	b := NewContext(iso)
	defer b.Close()

	_, err := a.RunScript("var who = 'a'", "setup.js")
	require.NoError(t, err)

	v, err := b.RunScript("typeof who", "probe.js")
	require.NoError(t, err)
	assert.Equal(t, "undefined", v.String())
}

func TestGlobal(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	_, err := ctx.RunScript("var answer = 42", "setup.js")
	require.NoError(t, err)

	global := ctx.Global()
	v, err := global.Get("answer")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Integer())

	str, err := NewValueString(iso, "planted")
	require.NoError(t, err)
	require.NoError(t, global.Set("fromHost", str))

	v, err = ctx.RunScript("fromHost", "read.js")
	require.NoError(t, err)
	assert.Equal(t, "planted", v.String())
}

func TestContextCloseIdempotent(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()

	ctx := NewContext(iso)
	ctx.Close()
	ctx.Close()

	var nilCtx *Context
	nilCtx.Close()
}

func TestUseAfterClosePanics(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()

	ctx := NewContext(iso)
	v, err := ctx.RunScript("'kept'", "test.js")
	require.NoError(t, err)
	ctx.Close()

	assert.Panics(t, func() { _, _ = ctx.RunScript("1", "late.js") })
	assert.Panics(t, func() { _ = v.String() })
}

func TestNewContextWithGlobalTemplate(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()

	tmpl := NewObjectTemplate(iso)
	require.NoError(t, tmpl.Set("seeded", "yes"))

	ctx := NewContext(iso, WithGlobalTemplate(tmpl))
	defer ctx.Close()

	v, err := ctx.RunScript("seeded", "probe.js")
	require.NoError(t, err)
	assert.Equal(t, "yes", v.String())
}

func TestNewContextWithUnusableGlobalTemplate(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()

	// Infinity is a non-writable, non-configurable global, so the template
	// entry cannot be defined onto a fresh global object.
	tmpl := NewObjectTemplate(iso)
	require.NoError(t, tmpl.Set("Infinity", int32(5)))

	assert.Panics(t, func() { NewContext(iso, WithGlobalTemplate(tmpl)) })
}
