package isojs

import (
	"github.com/dop251/goja"
)

// SymbolIndex names one of the engine's well-known symbols.
type SymbolIndex int

const (
	SymbolAsyncIterator SymbolIndex = iota + 1
	SymbolHasInstance
	SymbolIsConcatSpreadable
	SymbolIterator
	SymbolMatch
	SymbolReplace
	SymbolSearch
	SymbolSplit
	SymbolToPrimitive
	SymbolToStringTag
	SymbolUnscopables
)

// Symbol.asyncIterator is absent from the engine, so SymbolAsyncIterator has
// no entry here and BuiltinSymbol returns nil for it.
var wellKnownSymbols = map[SymbolIndex]*goja.Symbol{
	SymbolHasInstance:        goja.SymHasInstance,
	SymbolIsConcatSpreadable: goja.SymIsConcatSpreadable,
	SymbolIterator:           goja.SymIterator,
	SymbolMatch:              goja.SymMatch,
	SymbolReplace:            goja.SymReplace,
	SymbolSearch:             goja.SymSearch,
	SymbolSplit:              goja.SymSplit,
	SymbolToPrimitive:        goja.SymToPrimitive,
	SymbolToStringTag:        goja.SymToStringTag,
	SymbolUnscopables:        goja.SymUnscopables,
}

// BuiltinSymbol returns the well-known symbol for the given index, or nil
// if the index is out of range or the engine does not provide the symbol.
// Well-known symbols are engine-wide, so the handle is valid in every
// context of the isolate.
func BuiltinSymbol(iso *Isolate, idx SymbolIndex) *Value {
	sym, ok := wellKnownSymbols[idx]
	if !ok {
		return nil
	}
	return trackInternal(iso, sym)
}

// SymbolDescription returns the symbol's description string, or the empty
// string for a description-less symbol or a non-symbol value.
func (v *Value) SymbolDescription() string {
	sym, ok := v.deref().(*goja.Symbol)
	if !ok {
		return ""
	}
	ctx := v.owner()
	desc := ctx.vm.ToValue(sym).ToObject(ctx.vm).Get("description")
	if desc == nil || goja.IsUndefined(desc) {
		return ""
	}
	return desc.String()
}
