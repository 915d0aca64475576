package isojs

import (
	"fmt"

	"github.com/dop251/goja"
)

// PromiseState mirrors the engine's three promise states.
type PromiseState int

const (
	PromiseStatePending PromiseState = iota
	PromiseStateFulfilled
	PromiseStateRejected
)

func (s PromiseState) String() string {
	switch s {
	case PromiseStateFulfilled:
		return "fulfilled"
	case PromiseStateRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// Promise is a Value known to be a promise object.
type Promise struct {
	*Object
	p *goja.Promise
}

// AsPromise casts a value to a Promise, reporting ErrValueNotPromise for
// non-promises.
func AsPromise(v *Value) (*Promise, error) {
	p, ok := v.deref().Export().(*goja.Promise)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrValueNotPromise, v.owner().classOf(v.deref()))
	}
	obj, err := v.Object()
	if err != nil {
		return nil, err
	}
	return &Promise{Object: obj, p: p}, nil
}

// State returns the promise's current state.
func (p *Promise) State() PromiseState {
	switch p.p.State() {
	case goja.PromiseStateFulfilled:
		return PromiseStateFulfilled
	case goja.PromiseStateRejected:
		return PromiseStateRejected
	default:
		return PromiseStatePending
	}
}

// Result returns the settlement value. Asking a pending promise for its
// result is a caller bug and panics.
func (p *Promise) Result() *Value {
	if p.State() == PromiseStatePending {
		panic("isojs: Result called on a pending Promise")
	}
	ctx := p.owner()
	return ctx.track(&Value{iso: p.iso, ctx: ctx, ref: p.p.Result()})
}

// Then attaches one fulfillment callback, or a fulfillment and a rejection
// callback, returning the derived promise. Continuations run at the next
// microtask checkpoint.
func (p *Promise) Then(cbs ...FunctionCallback) (*Promise, error) {
	ctx := p.owner()
	ctx.deref()
	var args []goja.Value
	switch len(cbs) {
	case 1:
		args = []goja.Value{p.hostFunc(ctx, cbs[0])}
	case 2:
		args = []goja.Value{p.hostFunc(ctx, cbs[0]), p.hostFunc(ctx, cbs[1])}
	default:
		return nil, fmt.Errorf("isojs: Then expects 1 or 2 callbacks, got %d", len(cbs))
	}
	return p.chain(ctx, "then", args)
}

// Catch attaches a rejection callback, returning the derived promise.
func (p *Promise) Catch(cb FunctionCallback) (*Promise, error) {
	ctx := p.owner()
	ctx.deref()
	return p.chain(ctx, "catch", []goja.Value{p.hostFunc(ctx, cb)})
}

func (p *Promise) chain(ctx *Context, method string, args []goja.Value) (*Promise, error) {
	fn, ok := goja.AssertFunction(p.obj().Get(method))
	if !ok {
		return nil, fmt.Errorf("%w: promise has no %s method", ErrValueNotPromise, method)
	}
	raw, err := fn(p.deref(), args...)
	if err != nil {
		return nil, translateError(err)
	}
	return AsPromise(ctx.track(&Value{iso: p.iso, ctx: ctx, ref: raw}))
}

func (p *Promise) hostFunc(ctx *Context, cb FunctionCallback) goja.Value {
	ref := ctx.iso.registerCallback(cb)
	return ctx.vm.ToValue(bridgeFunc(ctx.ref, ref))
}

// PromiseResolver pairs a promise with the authority to settle it.
type PromiseResolver struct {
	promise *Promise
	resolve func(interface{}) error
	reject  func(interface{}) error
	settled bool
}

// NewPromiseResolver creates a pending promise in the given context
// together with its resolver.
func NewPromiseResolver(ctx *Context) (*PromiseResolver, error) {
	ctx.deref()
	p, resolve, reject := ctx.vm.NewPromise()
	val := ctx.track(&Value{iso: ctx.iso, ctx: ctx, ref: ctx.vm.ToValue(p)})
	prom, err := AsPromise(val)
	if err != nil {
		return nil, err
	}
	return &PromiseResolver{promise: prom, resolve: resolve, reject: reject}, nil
}

// GetPromise returns the promise under the resolver's control.
func (r *PromiseResolver) GetPromise() *Promise { return r.promise }

// Resolve fulfills the promise with the given value. It reports false when
// the promise is already settled or the isolate is terminating, and the
// settlement does not happen.
func (r *PromiseResolver) Resolve(v *Value) bool {
	return r.settle(v, r.resolve)
}

// Reject rejects the promise with the given value under the same rules as
// Resolve.
func (r *PromiseResolver) Reject(v *Value) bool {
	return r.settle(v, r.reject)
}

func (r *PromiseResolver) settle(v *Value, fn func(interface{}) error) bool {
	ctx := r.promise.owner()
	if r.settled || ctx.iso.IsExecutionTerminating() {
		return false
	}
	if err := fn(ctx.adopt(v)); err != nil {
		return false
	}
	r.settled = true
	return true
}
