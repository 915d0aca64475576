package isojs

import (
	"fmt"

	"github.com/dop251/goja"
)

// PropertyAttribute is a bit set restricting how a templated property
// behaves once materialized.
type PropertyAttribute uint8

const (
	// None places no restriction on the property.
	None PropertyAttribute = 0
	// ReadOnly makes the property non-writable.
	ReadOnly PropertyAttribute = 1 << iota
	// DontEnum hides the property from enumeration.
	DontEnum
	// DontDelete makes the property non-configurable.
	DontDelete
)

type templateEntry struct {
	name  string
	sym   *goja.Symbol // set for symbol-keyed entries, name unused
	val   interface{}
	attrs PropertyAttribute
}

// template is the shared entry list behind ObjectTemplate and
// FunctionTemplate. Templates are built in an isolate and materialized per
// context; one template can seed any number of contexts.
type template struct {
	iso     *Isolate
	entries []templateEntry
}

// Set records a named property on the template. Accepted values are Go
// primitives, *Value handles, and nested templates; anything else is an
// error.
func (t *template) Set(name string, val interface{}, attrs ...PropertyAttribute) error {
	var a PropertyAttribute
	for _, attr := range attrs {
		a |= attr
	}
	if !supportedTemplateValue(val) {
		return fmt.Errorf("isojs: unsupported template property type %T", val)
	}
	t.entries = append(t.entries, templateEntry{name: name, val: val, attrs: a})
	return nil
}

// SetAny records a property keyed by a name-like value: a string or a
// symbol. It reports false, without raising, when the key is not name-like
// or the value type is unsupported.
func (t *template) SetAny(key *Value, val interface{}, attrs ...PropertyAttribute) bool {
	if key == nil || !key.IsName() || !supportedTemplateValue(val) {
		return false
	}
	var a PropertyAttribute
	for _, attr := range attrs {
		a |= attr
	}
	e := templateEntry{val: val, attrs: a}
	if sym, ok := key.deref().(*goja.Symbol); ok {
		e.sym = sym
	} else {
		e.name = key.String()
	}
	t.entries = append(t.entries, e)
	return true
}

func supportedTemplateValue(val interface{}) bool {
	switch val.(type) {
	case string, bool, int32, uint32, int64, int, float64,
		*Value, *ObjectTemplate, *FunctionTemplate:
		return true
	}
	return false
}

// funcWrapProg lifts a native function into an ordinary script function so
// the result is both callable and constructible.
var funcWrapProg = goja.MustCompile("isojs://funcwrap",
	"(function(f){ return function(){ return f.apply(this, arguments); }; })", false)

// materialize produces the engine value for one template entry in ctx.
func (t *template) materialize(ctx *Context, val interface{}) (goja.Value, error) {
	switch v := val.(type) {
	case *Value:
		return ctx.adopt(v), nil
	case *ObjectTemplate:
		obj, err := v.NewInstance(ctx)
		if err != nil {
			return nil, err
		}
		return obj.deref(), nil
	case *FunctionTemplate:
		fn, err := v.GetFunction(ctx)
		if err != nil {
			return nil, err
		}
		return fn.deref(), nil
	default:
		return ctx.vm.ToValue(v), nil
	}
}

func (t *template) applyTo(ctx *Context, obj *goja.Object) error {
	flag := func(b bool) goja.Flag {
		if b {
			return goja.FLAG_TRUE
		}
		return goja.FLAG_FALSE
	}
	for _, e := range t.entries {
		raw, err := t.materialize(ctx, e.val)
		if err != nil {
			return err
		}
		writable := flag(e.attrs&ReadOnly == 0)
		configurable := flag(e.attrs&DontDelete == 0)
		enumerable := flag(e.attrs&DontEnum == 0)
		if e.sym != nil {
			err = obj.DefineDataPropertySymbol(e.sym, raw, writable, configurable, enumerable)
		} else {
			err = obj.DefineDataProperty(e.name, raw, writable, configurable, enumerable)
		}
		if err != nil {
			return translateError(err)
		}
	}
	return nil
}

// ObjectTemplate is a reusable blueprint for plain objects.
type ObjectTemplate struct {
	template
}

// NewObjectTemplate creates an empty object template in iso.
func NewObjectTemplate(iso *Isolate) *ObjectTemplate {
	return &ObjectTemplate{template{iso: iso}}
}

// NewInstance materializes the template as a fresh object in ctx.
func (t *ObjectTemplate) NewInstance(ctx *Context) (*Object, error) {
	ctx.deref()
	obj := ctx.vm.NewObject()
	if err := t.applyTo(ctx, obj); err != nil {
		return nil, err
	}
	return &Object{ctx.track(&Value{iso: ctx.iso, ctx: ctx, ref: obj})}, nil
}

// FunctionTemplate is a reusable blueprint for host-backed functions. The
// callback is registered once in the isolate; each GetFunction call builds
// a context-local function object dispatching to it.
type FunctionTemplate struct {
	template
	cbRef int
}

// NewFunctionTemplate creates a function template wrapping cb. A nil
// callback is a caller bug and panics.
func NewFunctionTemplate(iso *Isolate, cb FunctionCallback) *FunctionTemplate {
	if cb == nil {
		panic("isojs: nil FunctionCallback")
	}
	return &FunctionTemplate{
		template: template{iso: iso},
		cbRef:    iso.registerCallback(cb),
	}
}

// GetFunction materializes the template as a function object in ctx. The
// result is an ordinary function: callable directly and usable with new.
func (t *FunctionTemplate) GetFunction(ctx *Context) (*Function, error) {
	ctx.deref()
	wrapVal, err := ctx.vm.RunProgram(funcWrapProg)
	if err != nil {
		return nil, translateError(err)
	}
	wrap, ok := goja.AssertFunction(wrapVal)
	if !ok {
		return nil, fmt.Errorf("isojs: function wrapper did not compile to a callable")
	}
	native := ctx.vm.ToValue(bridgeFunc(ctx.ref, t.cbRef))
	raw, err := wrap(goja.Undefined(), native)
	if err != nil {
		return nil, translateError(err)
	}
	fnObj := raw.ToObject(ctx.vm)
	if err := t.applyTo(ctx, fnObj); err != nil {
		return nil, err
	}
	val := ctx.track(&Value{iso: ctx.iso, ctx: ctx, ref: fnObj})
	return &Function{val}, nil
}
