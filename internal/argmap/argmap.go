// Package argmap translates a host-side call-site signature into the
// canonical kernel entry signature a backend expects (§4.4): primitive
// scalars pass through, views become a {pointer, length} pair, structs
// flatten recursively, and specialized values are lifted to
// compile-time constants that key the compiled-kernel cache.
package argmap

import (
	"fmt"
	"sync"

	"kernelc/internal/ir"
)

// HostValue is one call-site argument as the host sees it, prior to
// mapping into the kernel's flattened entry signature.
type HostValue interface {
	isHostValue()
}

// Primitive is a scalar argument that passes through unchanged.
type Primitive struct {
	Type ir.Type
	Bits uint64
}

func (Primitive) isHostValue() {}

// ViewBuffer is the host-side description of a view argument: an
// element type, address space, and the length of the view. Addr is
// resolved to a device address by an AddressOf helper at mapping time,
// not stored here — the host may not yet know where the backing buffer
// lives on the target device.
type ViewBuffer struct {
	Elem   ir.Type
	Space  ir.AddressSpace
	Buffer Buffer
	Length int64
}

func (ViewBuffer) isHostValue() {}

// Buffer identifies the host-side allocation backing a view, or the
// zero value for an absent buffer (mapped to the null address).
type Buffer struct {
	ID      uint64
	Present bool
}

// AddressOf resolves a buffer to its device address, returning 0 (the
// null address) when buf is absent.
type AddressOf func(buf Buffer) uint64

// StructValue is a structured argument flattened recursively; a nested
// ViewBuffer expands in place among the flattened fields.
type StructValue struct {
	Type   *ir.StructType
	Fields []HostValue
}

func (StructValue) isHostValue() {}

type specializedValue interface {
	HostValue
	key() string
	liftedType() ir.Type
	liftedBits() uint64
}

// MappedArg is one slot of the canonical, flattened kernel entry
// signature produced by Map.
type MappedArg struct {
	Name string
	Type ir.Type
	Bits uint64
}

// Specialization is the result of mapping one call's arguments: the
// flattened argument list, the specialization tuple it carries, and
// whether this is the first time this (method, tuple) pair has been
// seen by this mapper.
type Specialization struct {
	Key         string
	Args        []MappedArg
	Specialized []string
	FirstUse    bool
}

// Mapper memoizes (kernel_method_id, specialization_tuple) -> the
// Specialization already computed for it, the same way the teacher's
// builder memoizes storage addresses by a string cache key
// (internal/ir/builder.go storageAddrs/storageLoads): a lookup on a
// repeat key returns the prior record instead of re-flattening.
type Mapper struct {
	mu   sync.Mutex
	seen map[string]Specialization
}

// NewMapper returns an empty mapper.
func NewMapper() *Mapper {
	return &Mapper{seen: make(map[string]Specialization)}
}

// Map flattens args into the canonical entry signature for
// methodID, resolving view buffers to device addresses via resolve.
func (m *Mapper) Map(methodID string, args []HostValue, resolve AddressOf) (Specialization, error) {
	var flat []MappedArg
	var specTuple []string
	for i, a := range args {
		if err := flatten(a, resolve, &flat, &specTuple); err != nil {
			return Specialization{}, fmt.Errorf("argmap: argument %d: %w", i, err)
		}
	}

	key := cacheKey(methodID, specTuple)

	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.seen[key]; ok {
		cached.FirstUse = false
		return cached, nil
	}
	spec := Specialization{Key: key, Args: flat, Specialized: specTuple, FirstUse: true}
	m.seen[key] = spec
	return spec, nil
}

func flatten(v HostValue, resolve AddressOf, out *[]MappedArg, specTuple *[]string) error {
	switch t := v.(type) {
	case Primitive:
		*out = append(*out, MappedArg{Type: t.Type, Bits: t.Bits})
		return nil

	case ViewBuffer:
		addr := uint64(0)
		if resolve != nil {
			addr = resolve(t.Buffer)
		}
		*out = append(*out, MappedArg{
			Name: "ptr",
			Type: &ir.PointerType{Elem: t.Elem, Space: t.Space},
			Bits: addr,
		})
		*out = append(*out, MappedArg{Name: "length", Type: ir.I64, Bits: uint64(t.Length)})
		return nil

	case StructValue:
		for _, f := range t.Fields {
			if err := flatten(f, resolve, out, specTuple); err != nil {
				return err
			}
		}
		return nil

	case specializedValue:
		*specTuple = append(*specTuple, t.key())
		*out = append(*out, MappedArg{Type: t.liftedType(), Bits: t.liftedBits()})
		return nil
	}
	return fmt.Errorf("argmap: unmapped host value type %T", v)
}

func cacheKey(methodID string, specTuple []string) string {
	key := methodID
	for _, s := range specTuple {
		key += "_" + s
	}
	return key
}
