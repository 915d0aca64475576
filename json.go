package isojs

import (
	"github.com/dop251/goja"
)

// JSONParse parses a JSON document into a value tracked by ctx. Malformed
// input surfaces as the engine's SyntaxError, translated.
func JSONParse(ctx *Context, s string) (*Value, error) {
	ctx.deref()
	parse, err := jsonMethod(ctx, "parse")
	if err != nil {
		return nil, err
	}
	raw, err := parse(goja.Undefined(), ctx.vm.ToValue(s))
	if err != nil {
		return nil, translateError(err)
	}
	return ctx.track(&Value{iso: ctx.iso, ctx: ctx, ref: raw}), nil
}

// JSONStringify serializes a value with the engine's JSON.stringify. The
// context may be nil, in which case the value's own context serializes it.
func JSONStringify(ctx *Context, v *Value) (string, error) {
	c := resolveContext(ctx, v)
	c.deref()
	stringify, err := jsonMethod(c, "stringify")
	if err != nil {
		return "", err
	}
	raw, err := stringify(goja.Undefined(), c.adopt(v))
	if err != nil {
		return "", translateError(err)
	}
	return raw.String(), nil
}

func jsonMethod(ctx *Context, name string) (goja.Callable, error) {
	obj := ctx.vm.Get("JSON").ToObject(ctx.vm)
	fn, ok := goja.AssertFunction(obj.Get(name))
	if !ok {
		return nil, &JSError{Message: "JSON." + name + " is not callable"}
	}
	return fn, nil
}
