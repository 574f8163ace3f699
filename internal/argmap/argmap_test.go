package argmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kernelc/internal/ir"
)

func TestMapFlattensPrimitiveAsIs(t *testing.T) {
	m := NewMapper()
	spec, err := m.Map("k1", []HostValue{Primitive{Type: ir.I32, Bits: 7}}, nil)
	require.NoError(t, err)
	require.Len(t, spec.Args, 1)
	assert.Equal(t, ir.I32, spec.Args[0].Type)
	assert.Equal(t, uint64(7), spec.Args[0].Bits)
	assert.Empty(t, spec.Specialized)
}

func TestMapViewBufferBecomesPointerAndLength(t *testing.T) {
	m := NewMapper()
	resolve := func(b Buffer) uint64 {
		if !b.Present {
			return 0
		}
		return 0xBEEF
	}
	view := ViewBuffer{Elem: ir.F32, Space: ir.AddrGlobal, Buffer: Buffer{ID: 1, Present: true}, Length: 64}
	spec, err := m.Map("k1", []HostValue{view}, resolve)
	require.NoError(t, err)
	require.Len(t, spec.Args, 2)

	ptrArg := spec.Args[0]
	ptrType, ok := ptrArg.Type.(*ir.PointerType)
	require.True(t, ok)
	assert.Equal(t, ir.F32, ptrType.Elem)
	assert.Equal(t, uint64(0xBEEF), ptrArg.Bits)

	lenArg := spec.Args[1]
	assert.Equal(t, ir.I64, lenArg.Type)
	assert.Equal(t, uint64(64), lenArg.Bits)
}

func TestMapViewBufferAbsentResolvesToNullAddress(t *testing.T) {
	m := NewMapper()
	resolve := func(b Buffer) uint64 {
		if !b.Present {
			return 0
		}
		return 0xBEEF
	}
	view := ViewBuffer{Elem: ir.F32, Space: ir.AddrGlobal, Buffer: Buffer{}, Length: 0}
	spec, err := m.Map("k1", []HostValue{view}, resolve)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), spec.Args[0].Bits)
}

func TestMapStructFlattensRecursivelyWithNestedView(t *testing.T) {
	m := NewMapper()
	resolve := func(b Buffer) uint64 { return 0x1000 }
	st := &ir.StructType{Name: "Pair", Fields: []ir.StructField{
		{Name: "scale", Type: ir.F32},
		{Name: "data", Type: &ir.ViewType{Elem: ir.F32, Space: ir.AddrGlobal}},
	}}
	sv := StructValue{Type: st, Fields: []HostValue{
		Primitive{Type: ir.F32, Bits: 0},
		ViewBuffer{Elem: ir.F32, Space: ir.AddrGlobal, Buffer: Buffer{ID: 2, Present: true}, Length: 16},
	}}
	spec, err := m.Map("k1", []HostValue{sv}, resolve)
	require.NoError(t, err)
	// scale (1) + {ptr, length} (2) = 3 flattened slots
	require.Len(t, spec.Args, 3)
	assert.Equal(t, ir.F32, spec.Args[0].Type)
	_, isPtr := spec.Args[1].Type.(*ir.PointerType)
	assert.True(t, isPtr)
	assert.Equal(t, ir.I64, spec.Args[2].Type)
}

func TestMapSpecializedValueRecordsTupleAndRepeatsFirstUseFalse(t *testing.T) {
	m := NewMapper()
	args := []HostValue{Specialized[int64]{Value: 4}}

	first, err := m.Map("k1", args, nil)
	require.NoError(t, err)
	assert.True(t, first.FirstUse)
	require.Equal(t, []string{"4"}, first.Specialized)

	second, err := m.Map("k1", args, nil)
	require.NoError(t, err)
	assert.False(t, second.FirstUse)
	assert.Equal(t, first.Key, second.Key)

	differentArgs := []HostValue{Specialized[int64]{Value: 5}}
	third, err := m.Map("k1", differentArgs, nil)
	require.NoError(t, err)
	assert.True(t, third.FirstUse)
	assert.NotEqual(t, first.Key, third.Key)
}

func TestSpecializedEqualComparesUnderlyingValue(t *testing.T) {
	a := Specialized[int32]{Value: 9}
	b := Specialized[int32]{Value: 9}
	c := Specialized[int32]{Value: 10}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestMapUnknownHostValueErrors(t *testing.T) {
	m := NewMapper()
	_, err := m.Map("k1", []HostValue{unknownHostValue{}}, nil)
	assert.Error(t, err)
}

type unknownHostValue struct{}

func (unknownHostValue) isHostValue() {}
