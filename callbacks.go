package isojs

import (
	"github.com/dop251/goja"
)

// FunctionCallback is a host function exposed to scripts through a
// FunctionTemplate. Returning nil yields undefined to the caller.
type FunctionCallback func(info *FunctionCallbackInfo) *Value

// FunctionCallbackInfo carries the arguments of one script-to-host call.
// The receiver and arguments are tracked in the calling context and stay
// valid until that context is closed.
type FunctionCallbackInfo struct {
	ctx  *Context
	this *Value
	args []*Value
}

// Context returns the execution sandbox the call originated from.
func (i *FunctionCallbackInfo) Context() *Context { return i.ctx }

// This returns the receiver the function was invoked on.
func (i *FunctionCallbackInfo) This() *Value { return i.this }

// Args returns the call arguments in order.
func (i *FunctionCallbackInfo) Args() []*Value { return i.args }

// registerCallback stores a host callback in the isolate's callback table
// and returns its integer ref.
func (iso *Isolate) registerCallback(cb FunctionCallback) int {
	return iso.cbs.Put(cb)
}

// getCallback recovers a callback by ref.
func (iso *Isolate) getCallback(ref int) FunctionCallback {
	cb, _ := iso.cbs.Get(ref)
	return cb
}

// ThrowException raises a script-visible exception from inside a host
// callback. It never returns; the panic unwinds to the bridge entry point,
// which rethrows the value into the calling context.
func (iso *Isolate) ThrowException(v *Value) *Value {
	v.deref()
	panic(v)
}

// bridgeFunc builds the engine-side entry point for one host callback. The
// closure captures only integer refs, so a context or callback released
// while the function object is still reachable fails loudly instead of
// touching freed state.
func bridgeFunc(ctxRef, cbRef int) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		ctx, ok := contexts.Get(ctxRef)
		if !ok {
			panic("isojs: callback dispatched into a closed Context")
		}
		cb := ctx.iso.getCallback(cbRef)
		if cb == nil {
			panic("isojs: callback dispatched after its ref was released")
		}
		this := call.This
		if this == nil {
			this = goja.Undefined()
		}
		info := &FunctionCallbackInfo{
			ctx:  ctx,
			this: ctx.track(&Value{iso: ctx.iso, ctx: ctx, ref: this}),
			args: make([]*Value, len(call.Arguments)),
		}
		for i, arg := range call.Arguments {
			info.args[i] = ctx.track(&Value{iso: ctx.iso, ctx: ctx, ref: arg})
		}
		// A host throw unwinds as a *Value panic; rethrow it as a value the
		// calling runtime owns so the script-side catch sees a live object.
		defer func() {
			if r := recover(); r != nil {
				if v, ok := r.(*Value); ok {
					panic(ctx.adopt(v))
				}
				panic(r)
			}
		}()
		ret := cb(info)
		if ret == nil {
			return goja.Undefined()
		}
		return ctx.adopt(ret)
	}
}
