package isojs

import (
	"fmt"

	"github.com/dop251/goja"
)

// Context is one global execution scope within an Isolate. Every Value
// created while the context is the active scope is tracked in its handle
// registry and released, in registration order, when the context closes.
type Context struct {
	iso *Isolate

	// ref is the integer identity stamped into the scope at creation so
	// native callbacks can recover the invoking context without a pointer
	// crossing the boundary (the embedder-slot convention; slot 0 is left
	// to debugger tooling).
	ref int

	vm     *goja.Runtime
	global *goja.Object

	// values is the handle registry. Append-only while the context lives:
	// individual values are never unregistered, trading memory growth for a
	// lifetime guarantee that needs no host-side finalization.
	values []*Value

	classify goja.Callable

	internal bool
	closed   bool
}

// ContextOption configures context creation.
type ContextOption func(*contextConfig)

type contextConfig struct {
	globalTemplate *ObjectTemplate
}

// WithGlobalTemplate instantiates tmpl as the new context's global scope
// instead of an empty object shape.
func WithGlobalTemplate(tmpl *ObjectTemplate) ContextOption {
	return func(c *contextConfig) {
		c.globalTemplate = tmpl
	}
}

// NewContext creates a fresh global scope in iso. It panics when a global
// template cannot be materialized onto the new global object.
func NewContext(iso *Isolate, opts ...ContextOption) *Context {
	var cfg contextConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx := newContext(iso, cfg.globalTemplate)
	iso.registerContext(ctx)
	return ctx
}

func newContext(iso *Isolate, tmpl *ObjectTemplate) *Context {
	vm := goja.New()
	ctx := &Context{
		iso:    iso,
		vm:     vm,
		global: vm.GlobalObject(),
	}
	ctx.ref = contexts.Put(ctx)

	if fn, err := vm.RunProgram(classProg); err == nil {
		ctx.classify, _ = goja.AssertFunction(fn)
	}
	if tmpl != nil {
		// Global scopes built from a template start with the template's
		// property set materialized onto the global object. Set already
		// validated the entry values, so a failure here means the template
		// collides with a non-configurable builtin global.
		if err := tmpl.applyTo(ctx, ctx.global); err != nil {
			ctx.Close()
			panic(fmt.Sprintf("isojs: global template cannot be materialized: %v", err))
		}
	}
	return ctx
}

// Isolate returns the owning isolate.
func (c *Context) Isolate() *Isolate {
	return c.iso
}

// Close releases the global scope handle and performs handle registry
// teardown: every tracked value's persistent reference is reset in
// registration order, then the records and the registry itself are freed.
// Safe on nil and idempotent.
func (c *Context) Close() {
	if c == nil || c.closed {
		return
	}
	c.closed = true
	contexts.Del(c.ref)
	if !c.internal {
		c.iso.unregisterContext(c)
	}

	for _, v := range c.values {
		v.ref = nil
	}
	c.values = nil
	c.global = nil
	c.classify = nil
	c.vm = nil
}

// RunScript compiles source tagged with origin for diagnostics and executes
// it in the context's scope. Compilation and runtime failures both surface
// as a *JSError; they differ only in message content.
func (c *Context) RunScript(source, origin string) (*Value, error) {
	c.deref()
	c.iso.resetTermination()

	prog, err := goja.Compile(origin, source, strictMode.Load())
	if err != nil {
		return nil, translateError(err)
	}
	res, err := c.vm.RunProgram(prog)
	if err != nil {
		return nil, translateError(err)
	}
	return c.track(&Value{iso: c.iso, ctx: c, ref: res}), nil
}

// Global returns the context's global object as a tracked value.
func (c *Context) Global() *Object {
	c.deref()
	v := c.track(&Value{iso: c.iso, ctx: c, ref: c.global})
	return &Object{v}
}

// track appends val to the handle registry and returns it unchanged. This is
// the single seam where value lifetime accounting happens.
func (c *Context) track(val *Value) *Value {
	c.values = append(c.values, val)
	return val
}

// deref guards against use after Close. Holding a Context or Value past its
// release is a contract violation, not a recoverable error.
func (c *Context) deref() {
	if c == nil || c.closed || c.vm == nil {
		panic("isojs: Context used after Close")
	}
}

// resolve maps a possibly-nil context to the value's own context or, failing
// that, the isolate's default internal context.
func resolveContext(c *Context, v *Value) *Context {
	if c != nil {
		return c
	}
	if v != nil && v.ctx != nil {
		return v.ctx
	}
	if v != nil {
		return v.iso.internal
	}
	return nil
}

// classOf returns the engine's [[Class]]-style tag for v, e.g. "Map" or
// "Uint8Array". Used by the Value predicate family.
func (c *Context) classOf(v goja.Value) string {
	if c.classify == nil {
		return ""
	}
	tag, err := c.classify(goja.Undefined(), v)
	if err != nil {
		return ""
	}
	s := tag.String()
	// "[object X]" -> "X"
	if len(s) > 9 && s[0] == '[' {
		return s[8 : len(s)-1]
	}
	return s
}

// adopt materializes a value for use inside this context. Values owned by
// another context are re-created from their exported form; symbols are
// engine-global and pass through unchanged.
func (c *Context) adopt(v *Value) goja.Value {
	if v == nil {
		return goja.Undefined()
	}
	raw := v.deref()
	owner := v.owner()
	if owner == c {
		return raw
	}
	if _, ok := raw.(*goja.Symbol); ok {
		return raw
	}
	if goja.IsUndefined(raw) {
		return goja.Undefined()
	}
	if goja.IsNull(raw) {
		return goja.Null()
	}
	if obj, ok := raw.(*goja.Object); ok && owner.classOf(raw) == "Error" {
		// Error objects export to a bare map and would lose their
		// non-enumerable message, so they are rebuilt from name and message.
		return c.rebuildError(obj)
	}
	return c.vm.ToValue(raw.Export())
}

// rebuildError reconstructs a foreign error object inside this context's
// runtime, preserving name and message.
func (c *Context) rebuildError(src *goja.Object) goja.Value {
	name := "Error"
	if v := src.Get("name"); v != nil && !goja.IsUndefined(v) {
		name = v.String()
	}
	msg := ""
	if v := src.Get("message"); v != nil && !goja.IsUndefined(v) {
		msg = v.String()
	}

	ctorName := name
	switch name {
	case "RangeError", "ReferenceError", "SyntaxError", "TypeError", "EvalError", "URIError", "Error":
	default:
		ctorName = "Error"
	}
	ctor, ok := goja.AssertConstructor(c.vm.Get(ctorName).ToObject(c.vm))
	if !ok {
		return c.vm.ToValue(name + ": " + msg)
	}
	obj, err := ctor(nil, c.vm.ToValue(msg))
	if err != nil {
		return c.vm.ToValue(name + ": " + msg)
	}
	if ctorName != name {
		_ = obj.Set("name", name)
	}
	return obj
}
