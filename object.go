package isojs

import (
	"fmt"

	"github.com/dop251/goja"
)

// Object is a Value known to be an engine object. Property access named by
// *Value keys accepts strings and symbols; the plain string and index forms
// cover the common cases without building a key value first.
type Object struct {
	*Value
}

// AsObject casts a value to an Object, reporting ErrValueNotObject for
// non-objects.
func AsObject(v *Value) (*Object, error) {
	if !v.IsObject() {
		return nil, fmt.Errorf("%w: %s", ErrValueNotObject, v.owner().classOf(v.deref()))
	}
	return &Object{v}, nil
}

func (o *Object) obj() *goja.Object {
	return o.deref().(*goja.Object)
}

// wrap tracks an engine value in the object's context.
func (o *Object) wrap(raw goja.Value) *Value {
	ctx := o.owner()
	if raw == nil {
		raw = goja.Undefined()
	}
	return ctx.track(&Value{iso: o.iso, ctx: ctx, ref: raw})
}

// Get reads a string-named property. Absent properties read as undefined.
func (o *Object) Get(key string) (v *Value, err error) {
	defer o.catch(&err)
	return o.wrap(o.obj().Get(key)), nil
}

// GetAny reads a property named by an arbitrary key value, following the
// engine's property key coercion. Symbol keys are looked up directly.
func (o *Object) GetAny(key *Value) (v *Value, err error) {
	defer o.catch(&err)
	if sym, ok := key.deref().(*goja.Symbol); ok {
		return o.wrap(o.obj().GetSymbol(sym)), nil
	}
	return o.wrap(o.obj().Get(key.deref().String())), nil
}

// GetIdx reads an indexed element.
func (o *Object) GetIdx(idx uint32) (v *Value, err error) {
	defer o.catch(&err)
	return o.wrap(o.obj().Get(fmt.Sprintf("%d", idx))), nil
}

// Set writes a string-named property.
func (o *Object) Set(key string, val *Value) error {
	return o.run(func() error {
		return o.obj().Set(key, o.owner().adopt(val))
	})
}

// SetAny writes a property named by an arbitrary key value.
func (o *Object) SetAny(key *Value, val *Value) error {
	return o.run(func() error {
		if sym, ok := key.deref().(*goja.Symbol); ok {
			return o.obj().SetSymbol(sym, o.owner().adopt(val))
		}
		return o.obj().Set(key.deref().String(), o.owner().adopt(val))
	})
}

// SetIdx writes an indexed element.
func (o *Object) SetIdx(idx uint32, val *Value) error {
	return o.run(func() error {
		return o.obj().Set(fmt.Sprintf("%d", idx), o.owner().adopt(val))
	})
}

// Has reports whether a string-named property exists, own or inherited.
// A throwing getter reads as absent.
func (o *Object) Has(key string) bool {
	return o.guardBool(func() bool { return o.obj().Get(key) != nil })
}

// HasAny reports whether a property named by an arbitrary key exists.
func (o *Object) HasAny(key *Value) bool {
	return o.guardBool(func() bool {
		if sym, ok := key.deref().(*goja.Symbol); ok {
			return o.obj().GetSymbol(sym) != nil
		}
		return o.obj().Get(key.deref().String()) != nil
	})
}

// HasIdx reports whether an indexed element exists.
func (o *Object) HasIdx(idx uint32) bool {
	return o.guardBool(func() bool { return o.obj().Get(fmt.Sprintf("%d", idx)) != nil })
}

// Delete removes a string-named property, reporting whether the deletion
// succeeded.
func (o *Object) Delete(key string) bool {
	return o.guardBool(func() bool { return o.obj().Delete(key) == nil })
}

// DeleteAny removes a property named by an arbitrary key value.
func (o *Object) DeleteAny(key *Value) bool {
	return o.guardBool(func() bool {
		if sym, ok := key.deref().(*goja.Symbol); ok {
			return o.obj().DeleteSymbol(sym) == nil
		}
		return o.obj().Delete(key.deref().String()) == nil
	})
}

// DeleteIdx removes an indexed element.
func (o *Object) DeleteIdx(idx uint32) bool {
	return o.guardBool(func() bool { return o.obj().Delete(fmt.Sprintf("%d", idx)) == nil })
}

// catch converts an engine panic raised during a property read into a
// translated error on *err.
func (o *Object) catch(err *error) {
	if r := recover(); r != nil {
		*err = translateRecovered(r)
	}
}

func (o *Object) run(fn func() error) (err error) {
	defer o.catch(&err)
	if e := fn(); e != nil {
		return translateError(e)
	}
	return nil
}

func (o *Object) guardBool(fn func() bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return fn()
}
