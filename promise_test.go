package isojs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromiseResolver(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	res, err := NewPromiseResolver(ctx)
	require.NoError(t, err)
	prom := res.GetPromise()
	assert.Equal(t, PromiseStatePending, prom.State())
	assert.True(t, prom.IsPromise())

	val, err := NewValueString(iso, "done")
	require.NoError(t, err)
	assert.True(t, res.Resolve(val))
	assert.Equal(t, PromiseStateFulfilled, prom.State())
	assert.Equal(t, "done", prom.Result().String())

	// A settled promise cannot be settled again.
	assert.False(t, res.Resolve(val))
	assert.False(t, res.Reject(val))
}

func TestPromiseReject(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	res, err := NewPromiseResolver(ctx)
	require.NoError(t, err)

	reason, err := ctx.RunScript("new Error('failed')", "reason.js")
	require.NoError(t, err)
	assert.True(t, res.Reject(reason))

	prom := res.GetPromise()
	assert.Equal(t, PromiseStateRejected, prom.State())
	// The promise settles with the very value it was rejected with.
	assert.True(t, prom.Result().SameValue(reason))
	obj, err := AsObject(prom.Result())
	require.NoError(t, err)
	msg, err := obj.Get("message")
	require.NoError(t, err)
	assert.Equal(t, "failed", msg.String())
}

func TestPromiseResultPendingPanics(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	res, err := NewPromiseResolver(ctx)
	require.NoError(t, err)
	assert.Panics(t, func() { res.GetPromise().Result() })
}

func TestPromiseThen(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	v, err := ctx.RunScript("Promise.resolve(21)", "then.js")
	require.NoError(t, err)
	prom, err := AsPromise(v)
	require.NoError(t, err)

	var got int64
	derived, err := prom.Then(func(info *FunctionCallbackInfo) *Value {
		got = info.Args()[0].Integer()
		return NewValueInteger(iso, int32(got*2))
	})
	require.NoError(t, err)

	iso.PerformMicrotaskCheckpoint()
	assert.Equal(t, int64(21), got)
	assert.Equal(t, PromiseStateFulfilled, derived.State())
	assert.Equal(t, int64(42), derived.Result().Integer())
}

func TestPromiseThenTwoCallbacks(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	v, err := ctx.RunScript("Promise.reject(new Error('nope'))", "then2.js")
	require.NoError(t, err)
	prom, err := AsPromise(v)
	require.NoError(t, err)

	var fulfilled, rejected bool
	_, err = prom.Then(
		func(info *FunctionCallbackInfo) *Value {
			fulfilled = true
			return nil
		},
		func(info *FunctionCallbackInfo) *Value {
			rejected = true
			return nil
		},
	)
	require.NoError(t, err)

	_, err = prom.Then()
	require.Error(t, err, "Then without callbacks must fail")

	iso.PerformMicrotaskCheckpoint()
	assert.False(t, fulfilled)
	assert.True(t, rejected)
}

func TestPromiseCatch(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	v, err := ctx.RunScript("Promise.reject('reason')", "catch.js")
	require.NoError(t, err)
	prom, err := AsPromise(v)
	require.NoError(t, err)

	var got string
	_, err = prom.Catch(func(info *FunctionCallbackInfo) *Value {
		got = info.Args()[0].String()
		return nil
	})
	require.NoError(t, err)

	iso.PerformMicrotaskCheckpoint()
	assert.Equal(t, "reason", got)
}

func TestPromiseRejectWhileTerminating(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	res, err := NewPromiseResolver(ctx)
	require.NoError(t, err)

	iso.TerminateExecution()
	assert.False(t, res.Reject(NewValueNull(iso)))
	assert.Equal(t, PromiseStatePending, res.GetPromise().State())

	// Clearing the termination request makes settlement possible again.
	_, err = ctx.RunScript("1", "clear.js")
	require.NoError(t, err)
	assert.True(t, res.Resolve(NewValueNull(iso)))
}

func TestAsPromiseRejectsNonPromise(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	v, err := ctx.RunScript("({})", "not.js")
	require.NoError(t, err)
	_, err = AsPromise(v)
	require.ErrorIs(t, err, ErrValueNotPromise)
}
