package isojs

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"unicode/utf8"

	"github.com/dop251/goja"
)

// Value is a host-visible handle to one engine-resident value. It is tagged
// with the context whose registry tracks it; values created with no context
// in scope belong to the owning isolate's default internal context. A Value
// stays resolvable exactly until its owning context is closed.
type Value struct {
	iso *Isolate
	ctx *Context // nil resolves to iso.internal at use time
	ref goja.Value
}

// owner resolves the context the value lives in.
func (v *Value) owner() *Context {
	if v.ctx != nil {
		return v.ctx
	}
	return v.iso.internal
}

// deref returns the underlying engine value, panicking if the owning
// context was closed. Stale handles are a caller bug; the guard makes the
// violation loud instead of touching freed state.
func (v *Value) deref() goja.Value {
	if v == nil || v.ref == nil {
		panic("isojs: Value used after its Context was closed")
	}
	return v.ref
}

/********** Constructors **********/

// trackInternal registers a freshly built engine value against the
// isolate's default context.
func trackInternal(iso *Isolate, raw goja.Value) *Value {
	return iso.internal.track(&Value{iso: iso, ctx: iso.internal, ref: raw})
}

// NewValueInteger creates an int32 number value.
func NewValueInteger(iso *Isolate, v int32) *Value {
	return trackInternal(iso, iso.internal.vm.ToValue(int64(v)))
}

// NewValueIntegerFromUnsigned creates a uint32 number value.
func NewValueIntegerFromUnsigned(iso *Isolate, v uint32) *Value {
	return trackInternal(iso, iso.internal.vm.ToValue(int64(v)))
}

// NewValueString creates a string value. The source must be valid UTF-8.
func NewValueString(iso *Isolate, v string) (*Value, error) {
	if !utf8.ValidString(v) {
		return nil, &JSError{Message: "invalid UTF-8 string"}
	}
	return trackInternal(iso, iso.internal.vm.ToValue(v)), nil
}

// NewValueNull creates the null value.
func NewValueNull(iso *Isolate) *Value {
	return trackInternal(iso, goja.Null())
}

// NewValueUndefined creates the undefined value.
func NewValueUndefined(iso *Isolate) *Value {
	return trackInternal(iso, goja.Undefined())
}

// NewValueBoolean creates a boolean value.
func NewValueBoolean(iso *Isolate, v bool) *Value {
	return trackInternal(iso, iso.internal.vm.ToValue(v))
}

// NewValueNumber creates a number value.
func NewValueNumber(iso *Isolate, v float64) *Value {
	return trackInternal(iso, iso.internal.vm.ToValue(v))
}

// NewValueBigInt creates a bigint value from a signed 64-bit integer.
func NewValueBigInt(iso *Isolate, v int64) *Value {
	val, err := newBigInt(iso, new(big.Int).SetInt64(v))
	if err != nil {
		// The BigInt constructor cannot fail on a decimal integer literal.
		panic(err)
	}
	return val
}

// NewValueBigIntFromUnsigned creates a bigint value from an unsigned 64-bit
// integer.
func NewValueBigIntFromUnsigned(iso *Isolate, v uint64) *Value {
	val, err := newBigInt(iso, new(big.Int).SetUint64(v))
	if err != nil {
		panic(err)
	}
	return val
}

// NewValueBigIntFromWords creates an arbitrary-precision bigint from a sign
// bit and little-endian 64-bit words.
func NewValueBigIntFromWords(iso *Isolate, signBit bool, words []uint64) (*Value, error) {
	n := new(big.Int)
	for i := len(words) - 1; i >= 0; i-- {
		n.Lsh(n, 64)
		n.Or(n, new(big.Int).SetUint64(words[i]))
	}
	if signBit {
		n.Neg(n)
	}
	return newBigInt(iso, n)
}

func newBigInt(iso *Isolate, n *big.Int) (*Value, error) {
	vm := iso.internal.vm
	ctor, ok := goja.AssertFunction(vm.Get("BigInt"))
	if !ok {
		return nil, &JSError{Message: "BigInt is not supported by the engine"}
	}
	raw, err := func() (v goja.Value, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = translateRecovered(r)
			}
		}()
		return ctor(goja.Undefined(), vm.ToValue(n.String()))
	}()
	if err != nil {
		return nil, translateError(err)
	}
	return trackInternal(iso, raw), nil
}

// ErrorType selects the constructor used by NewValueError.
type ErrorType int

const (
	ErrorTypeRange ErrorType = iota + 1
	ErrorTypeReference
	ErrorTypeSyntax
	ErrorTypeType
	ErrorTypeGeneric
	ErrorTypeWasmCompile
	ErrorTypeWasmLink
	ErrorTypeWasmRuntime
)

// NewValueError creates a native error value of the given type. The engine
// has no WebAssembly namespace, so the wasm variants produce generic errors
// carrying the matching name. Returns nil for an unknown type.
func NewValueError(iso *Isolate, typ ErrorType, msg string) *Value {
	vm := iso.internal.vm
	var ctorName, rename string
	switch typ {
	case ErrorTypeRange:
		ctorName = "RangeError"
	case ErrorTypeReference:
		ctorName = "ReferenceError"
	case ErrorTypeSyntax:
		ctorName = "SyntaxError"
	case ErrorTypeType:
		ctorName = "TypeError"
	case ErrorTypeGeneric:
		ctorName = "Error"
	case ErrorTypeWasmCompile:
		ctorName, rename = "Error", "CompileError"
	case ErrorTypeWasmLink:
		ctorName, rename = "Error", "LinkError"
	case ErrorTypeWasmRuntime:
		ctorName, rename = "Error", "RuntimeError"
	default:
		return nil
	}
	ctor, ok := goja.AssertConstructor(vm.Get(ctorName).ToObject(vm))
	if !ok {
		return nil
	}
	obj, err := ctor(nil, vm.ToValue(msg))
	if err != nil {
		return nil
	}
	if rename != "" {
		_ = obj.Set("name", rename)
	}
	return trackInternal(iso, obj)
}

/********** Conversions **********/

// Boolean converts the value using the engine's ToBoolean semantics.
func (v *Value) Boolean() bool {
	return v.deref().ToBoolean()
}

// Int32 converts the value to a signed 32-bit integer.
func (v *Value) Int32() int32 {
	return int32(v.deref().ToInteger())
}

// Integer converts the value to a signed 64-bit integer.
func (v *Value) Integer() int64 {
	return v.deref().ToInteger()
}

// Uint32 converts the value to an unsigned 32-bit integer.
func (v *Value) Uint32() uint32 {
	return uint32(v.deref().ToInteger())
}

// Number converts the value to a float64.
func (v *Value) Number() float64 {
	return v.deref().ToFloat()
}

// String converts the value to a string. Values that cannot be converted
// render as the engine's diagnostic form; no error is reported.
func (v *Value) String() string {
	return v.deref().String()
}

// DetailString converts the value using the engine's ToString operation,
// translating a conversion exception instead of panicking.
func (v *Value) DetailString() (s string, err error) {
	raw := v.deref()
	defer func() {
		if r := recover(); r != nil {
			s, err = "", translateRecovered(r)
		}
	}()
	return raw.ToString().String(), nil
}

// BigInt returns the value as a big integer, or nil if it is not a bigint.
func (v *Value) BigInt() *big.Int {
	n, _ := v.deref().Export().(*big.Int)
	return n
}

// Object converts the value to an object using the engine's ToObject
// operation. Conversion of null or undefined yields a translated error.
func (v *Value) Object() (o *Object, err error) {
	raw := v.deref()
	ctx := v.owner()
	ctx.deref()
	defer func() {
		if r := recover(); r != nil {
			o, err = nil, translateRecovered(r)
		}
	}()
	obj := raw.ToObject(ctx.vm)
	return &Object{ctx.track(&Value{iso: v.iso, ctx: ctx, ref: obj})}, nil
}

// ArrayIndex reports the value as an array index if it is one: a whole
// number (or its canonical string form) below 2^32-1. Failure is a sentinel
// false, not an error, matching the engine's own non-throwing behavior.
func (v *Value) ArrayIndex() (uint32, bool) {
	raw := v.deref()
	if s, ok := raw.Export().(string); ok {
		if s == "0" {
			return 0, true
		}
		if len(s) == 0 || s[0] == '0' {
			return 0, false
		}
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil || n >= math.MaxUint32 {
			return 0, false
		}
		return uint32(n), true
	}
	if !v.IsNumber() {
		return 0, false
	}
	f := raw.ToFloat()
	if f != math.Trunc(f) || f < 0 || f >= math.MaxUint32 {
		return 0, false
	}
	return uint32(f), true
}

// SameValue reports whether two handles refer to the same value under the
// engine's SameValue semantics.
func (v *Value) SameValue(other *Value) bool {
	return v.deref().SameAs(other.deref())
}

/********** Predicates **********/

// tag returns the engine's [[Class]]-style tag, e.g. "Map" or "Uint8Array".
func (v *Value) tag() string {
	return v.owner().classOf(v.deref())
}

func (v *Value) isObjectRef() bool {
	_, ok := v.deref().(*goja.Object)
	return ok
}

func (v *Value) numberKind() (float64, bool) {
	if v.isObjectRef() {
		return 0, false
	}
	switch v.deref().Export().(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return v.deref().ToFloat(), true
	}
	return 0, false
}

// IsUndefined reports whether the value is undefined.
func (v *Value) IsUndefined() bool { return goja.IsUndefined(v.deref()) }

// IsNull reports whether the value is null.
func (v *Value) IsNull() bool { return goja.IsNull(v.deref()) }

// IsNullOrUndefined reports whether the value is null or undefined.
func (v *Value) IsNullOrUndefined() bool { return v.IsUndefined() || v.IsNull() }

// IsTrue reports whether the value is the boolean true.
func (v *Value) IsTrue() bool {
	b, ok := v.deref().Export().(bool)
	return ok && !v.isObjectRef() && b
}

// IsFalse reports whether the value is the boolean false.
func (v *Value) IsFalse() bool {
	b, ok := v.deref().Export().(bool)
	return ok && !v.isObjectRef() && !b
}

// IsName reports whether the value is usable as a property name: a string
// or a symbol.
func (v *Value) IsName() bool { return v.IsString() || v.IsSymbol() }

// IsString reports whether the value is a primitive string.
func (v *Value) IsString() bool {
	if v.isObjectRef() || v.IsSymbol() {
		return false
	}
	_, ok := v.deref().Export().(string)
	return ok
}

// IsSymbol reports whether the value is a symbol.
func (v *Value) IsSymbol() bool {
	_, ok := v.deref().(*goja.Symbol)
	return ok
}

// IsFunction reports whether the value is callable.
func (v *Value) IsFunction() bool {
	_, ok := goja.AssertFunction(v.deref())
	return ok
}

// IsObject reports whether the value is an object (functions included).
func (v *Value) IsObject() bool { return v.isObjectRef() }

// IsBigInt reports whether the value is a primitive bigint.
func (v *Value) IsBigInt() bool {
	if v.isObjectRef() {
		return false
	}
	_, ok := v.deref().Export().(*big.Int)
	return ok
}

// IsBoolean reports whether the value is a primitive boolean.
func (v *Value) IsBoolean() bool {
	if v.isObjectRef() {
		return false
	}
	_, ok := v.deref().Export().(bool)
	return ok
}

// IsNumber reports whether the value is a primitive number.
func (v *Value) IsNumber() bool {
	_, ok := v.numberKind()
	return ok
}

// IsExternal reports whether the value is an external. The engine has no
// external value kind, so this is always false.
func (v *Value) IsExternal() bool { return false }

// IsInt32 reports whether the value is a number representable as int32.
func (v *Value) IsInt32() bool {
	f, ok := v.numberKind()
	if !ok || f != math.Trunc(f) {
		return false
	}
	if f == 0 && math.Signbit(f) {
		return false
	}
	return f >= math.MinInt32 && f <= math.MaxInt32
}

// IsUint32 reports whether the value is a number representable as uint32.
func (v *Value) IsUint32() bool {
	f, ok := v.numberKind()
	if !ok || f != math.Trunc(f) {
		return false
	}
	if f == 0 && math.Signbit(f) {
		return false
	}
	return f >= 0 && f <= math.MaxUint32
}

// IsDate reports whether the value is a Date object.
func (v *Value) IsDate() bool { return v.tag() == "Date" }

// IsArgumentsObject reports whether the value is an arguments object.
func (v *Value) IsArgumentsObject() bool { return v.tag() == "Arguments" }

// IsBigIntObject reports whether the value is a boxed BigInt.
func (v *Value) IsBigIntObject() bool { return v.isObjectRef() && v.tag() == "BigInt" }

// IsNumberObject reports whether the value is a boxed Number.
func (v *Value) IsNumberObject() bool { return v.isObjectRef() && v.tag() == "Number" }

// IsStringObject reports whether the value is a boxed String.
func (v *Value) IsStringObject() bool { return v.isObjectRef() && v.tag() == "String" }

// IsSymbolObject reports whether the value is a boxed Symbol.
func (v *Value) IsSymbolObject() bool { return v.isObjectRef() && v.tag() == "Symbol" }

// IsNativeError reports whether the value is a native error object.
func (v *Value) IsNativeError() bool { return v.tag() == "Error" }

// IsRegExp reports whether the value is a RegExp object.
func (v *Value) IsRegExp() bool { return v.tag() == "RegExp" }

// IsAsyncFunction reports whether the value is an async function.
func (v *Value) IsAsyncFunction() bool { return v.tag() == "AsyncFunction" }

// IsGeneratorFunction reports whether the value is a generator function.
func (v *Value) IsGeneratorFunction() bool { return v.tag() == "GeneratorFunction" }

// IsGeneratorObject reports whether the value is a generator object.
func (v *Value) IsGeneratorObject() bool { return v.tag() == "Generator" }

// IsPromise reports whether the value is a Promise object.
func (v *Value) IsPromise() bool {
	_, ok := v.deref().Export().(*goja.Promise)
	return ok
}

// IsMap reports whether the value is a Map object.
func (v *Value) IsMap() bool { return v.tag() == "Map" }

// IsSet reports whether the value is a Set object.
func (v *Value) IsSet() bool { return v.tag() == "Set" }

// IsMapIterator reports whether the value is a Map iterator.
func (v *Value) IsMapIterator() bool { return v.tag() == "Map Iterator" }

// IsSetIterator reports whether the value is a Set iterator.
func (v *Value) IsSetIterator() bool { return v.tag() == "Set Iterator" }

// IsWeakMap reports whether the value is a WeakMap object.
func (v *Value) IsWeakMap() bool { return v.tag() == "WeakMap" }

// IsWeakSet reports whether the value is a WeakSet object.
func (v *Value) IsWeakSet() bool { return v.tag() == "WeakSet" }

// IsArray reports whether the value is an Array object.
func (v *Value) IsArray() bool { return v.tag() == "Array" }

// IsArrayBuffer reports whether the value is an ArrayBuffer.
func (v *Value) IsArrayBuffer() bool { return v.tag() == "ArrayBuffer" }

// IsArrayBufferView reports whether the value is a typed array or DataView.
func (v *Value) IsArrayBufferView() bool { return v.IsTypedArray() || v.IsDataView() }

var typedArrayTags = map[string]bool{
	"Uint8Array": true, "Uint8ClampedArray": true, "Int8Array": true,
	"Uint16Array": true, "Int16Array": true, "Uint32Array": true,
	"Int32Array": true, "Float32Array": true, "Float64Array": true,
	"BigInt64Array": true, "BigUint64Array": true,
}

// IsTypedArray reports whether the value is a typed array of any element
// kind.
func (v *Value) IsTypedArray() bool { return typedArrayTags[v.tag()] }

// IsUint8Array reports whether the value is a Uint8Array.
func (v *Value) IsUint8Array() bool { return v.tag() == "Uint8Array" }

// IsUint8ClampedArray reports whether the value is a Uint8ClampedArray.
func (v *Value) IsUint8ClampedArray() bool { return v.tag() == "Uint8ClampedArray" }

// IsInt8Array reports whether the value is an Int8Array.
func (v *Value) IsInt8Array() bool { return v.tag() == "Int8Array" }

// IsUint16Array reports whether the value is a Uint16Array.
func (v *Value) IsUint16Array() bool { return v.tag() == "Uint16Array" }

// IsInt16Array reports whether the value is an Int16Array.
func (v *Value) IsInt16Array() bool { return v.tag() == "Int16Array" }

// IsUint32Array reports whether the value is a Uint32Array.
func (v *Value) IsUint32Array() bool { return v.tag() == "Uint32Array" }

// IsInt32Array reports whether the value is an Int32Array.
func (v *Value) IsInt32Array() bool { return v.tag() == "Int32Array" }

// IsFloat32Array reports whether the value is a Float32Array.
func (v *Value) IsFloat32Array() bool { return v.tag() == "Float32Array" }

// IsFloat64Array reports whether the value is a Float64Array.
func (v *Value) IsFloat64Array() bool { return v.tag() == "Float64Array" }

// IsBigInt64Array reports whether the value is a BigInt64Array.
func (v *Value) IsBigInt64Array() bool { return v.tag() == "BigInt64Array" }

// IsBigUint64Array reports whether the value is a BigUint64Array.
func (v *Value) IsBigUint64Array() bool { return v.tag() == "BigUint64Array" }

// IsDataView reports whether the value is a DataView.
func (v *Value) IsDataView() bool { return v.tag() == "DataView" }

// IsSharedArrayBuffer reports whether the value is a SharedArrayBuffer.
// The engine does not implement shared buffers, so this is always false.
func (v *Value) IsSharedArrayBuffer() bool { return false }

// IsProxy reports whether the value is a Proxy. Proxies are transparent by
// design and the engine exposes no way to detect one, so this is always
// false.
func (v *Value) IsProxy() bool { return false }

// IsWasmModuleObject reports whether the value is a WebAssembly module.
// The engine has no WebAssembly support, so this is always false.
func (v *Value) IsWasmModuleObject() bool { return false }

// IsModuleNamespaceObject reports whether the value is a module namespace
// object. The bridge runs classic scripts only, so this is always false.
func (v *Value) IsModuleNamespaceObject() bool { return false }

// translateRecovered turns a panic raised inside the engine into a
// translated error. Engine exceptions panic with an engine value; anything
// else is repackaged verbatim.
func translateRecovered(r any) error {
	switch x := r.(type) {
	case *goja.Object:
		return &JSError{Message: x.String()}
	case goja.Value:
		return &JSError{Message: x.String()}
	case error:
		return translateError(x)
	default:
		return &JSError{Message: fmt.Sprintf("%v", x)}
	}
}
