package isojs

import (
	"fmt"

	"github.com/dop251/goja"
)

// Function is a Value known to be callable.
type Function struct {
	*Value
}

// AsFunction casts a value to a Function, reporting ErrValueNotFunction
// for non-callables.
func AsFunction(v *Value) (*Function, error) {
	if !v.IsFunction() {
		return nil, fmt.Errorf("%w: %s", ErrValueNotFunction, v.owner().classOf(v.deref()))
	}
	return &Function{v}, nil
}

// Call invokes the function with the given receiver and arguments. A
// thrown exception comes back as a translated *JSError.
func (f *Function) Call(recv *Value, args ...*Value) (*Value, error) {
	ctx := f.owner()
	ctx.deref()
	fn, ok := goja.AssertFunction(f.deref())
	if !ok {
		return nil, ErrValueNotFunction
	}
	this := goja.Value(goja.Undefined())
	if recv != nil {
		this = ctx.adopt(recv)
	}
	raw, err := fn(this, f.adoptArgs(ctx, args)...)
	if err != nil {
		return nil, translateError(err)
	}
	return ctx.track(&Value{iso: f.iso, ctx: ctx, ref: raw}), nil
}

// NewInstance invokes the function as a constructor.
func (f *Function) NewInstance(args ...*Value) (*Value, error) {
	ctx := f.owner()
	ctx.deref()
	obj, ok := f.deref().(*goja.Object)
	if !ok {
		return nil, ErrValueNotFunction
	}
	ctor, ok := goja.AssertConstructor(obj)
	if !ok {
		return nil, fmt.Errorf("%w: value is not a constructor", ErrValueNotFunction)
	}
	inst, err := ctor(nil, f.adoptArgs(ctx, args)...)
	if err != nil {
		return nil, translateError(err)
	}
	return ctx.track(&Value{iso: f.iso, ctx: ctx, ref: inst}), nil
}

// SourceMapURL returns the function's source map URL. The engine does not
// retain source map metadata on function objects, so this is always the
// undefined value.
func (f *Function) SourceMapURL() *Value {
	ctx := f.owner()
	return ctx.track(&Value{iso: f.iso, ctx: ctx, ref: goja.Undefined()})
}

func (f *Function) adoptArgs(ctx *Context, args []*Value) []goja.Value {
	out := make([]goja.Value, len(args))
	for i, a := range args {
		out[i] = ctx.adopt(a)
	}
	return out
}
