package isojs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinSymbol(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	tests := []struct {
		idx  SymbolIndex
		desc string
	}{
		{SymbolHasInstance, "Symbol.hasInstance"},
		{SymbolIsConcatSpreadable, "Symbol.isConcatSpreadable"},
		{SymbolIterator, "Symbol.iterator"},
		{SymbolMatch, "Symbol.match"},
		{SymbolReplace, "Symbol.replace"},
		{SymbolSearch, "Symbol.search"},
		{SymbolSplit, "Symbol.split"},
		{SymbolToPrimitive, "Symbol.toPrimitive"},
		{SymbolToStringTag, "Symbol.toStringTag"},
		{SymbolUnscopables, "Symbol.unscopables"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			sym := BuiltinSymbol(iso, tt.idx)
			require.NotNil(t, sym)
			assert.True(t, sym.IsSymbol())
			assert.Equal(t, tt.desc, sym.SymbolDescription())
		})
	}

	// The engine does not implement Symbol.asyncIterator.
	assert.Nil(t, BuiltinSymbol(iso, SymbolAsyncIterator))
	assert.Nil(t, BuiltinSymbol(iso, SymbolIndex(0)))
	assert.Nil(t, BuiltinSymbol(iso, SymbolIndex(99)))
}

func TestBuiltinSymbolIdentity(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()
	ctx := NewContext(iso)
	defer ctx.Close()

	engineIter, err := ctx.RunScript("Symbol.iterator", "sym.js")
	require.NoError(t, err)
	assert.True(t, engineIter.SameValue(BuiltinSymbol(iso, SymbolIterator)))
}

func TestSymbolDescriptionNonSymbol(t *testing.T) {
	iso := NewIsolate()
	defer iso.Dispose()

	assert.Equal(t, "", NewValueNumber(iso, 1).SymbolDescription())
}
