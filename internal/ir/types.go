// Package ir implements the kernel compiler's static single assignment
// intermediate representation: values, basic blocks, methods, and the
// type system shared by every transformation and backend.
package ir

import (
	"fmt"
	"strings"
)

// AddressSpace tags a pointer or view with the memory region it refers to.
type AddressSpace int

const (
	AddrGeneric AddressSpace = iota
	AddrGlobal
	AddrShared
	AddrLocal
	AddrConstant
)

func (a AddressSpace) String() string {
	switch a {
	case AddrGlobal:
		return "global"
	case AddrShared:
		return "shared"
	case AddrLocal:
		return "local"
	case AddrConstant:
		return "constant"
	default:
		return "generic"
	}
}

// Type is implemented by every IR type. Equality is by value (String
// uniquely identifies a type's shape), matching the teacher's Type
// interface convention.
type Type interface {
	String() string
	// Size returns the size in bytes of a value of this type, or -1 if
	// the type has no fixed size (e.g. a view before lowering).
	Size() int64
}

// Primitive kinds.
type PrimitiveKind int

const (
	Int8 PrimitiveKind = iota
	Int16
	Int32
	Int64
	Float16
	Float32
	Float64
	Bool
)

var primitiveNames = map[PrimitiveKind]string{
	Int8: "i8", Int16: "i16", Int32: "i32", Int64: "i64",
	Float16: "f16", Float32: "f32", Float64: "f64", Bool: "bool",
}

var primitiveSizes = map[PrimitiveKind]int64{
	Int8: 1, Int16: 2, Int32: 4, Int64: 8,
	Float16: 2, Float32: 4, Float64: 8, Bool: 1,
}

// PrimitiveType is a basic scalar value type.
type PrimitiveType struct {
	Kind PrimitiveKind
}

func (p *PrimitiveType) String() string { return primitiveNames[p.Kind] }
func (p *PrimitiveType) Size() int64    { return primitiveSizes[p.Kind] }

func (p *PrimitiveType) IsFloat() bool {
	return p.Kind == Float16 || p.Kind == Float32 || p.Kind == Float64
}

func (p *PrimitiveType) IsInteger() bool {
	return !p.IsFloat() && p.Kind != Bool
}

// Convenience constructors, mirroring how the teacher exposes concrete
// type constants (&BoolType{}, &AddressType{}) rather than forcing
// callers to spell out struct literals everywhere.
var (
	I8  = &PrimitiveType{Kind: Int8}
	I16 = &PrimitiveType{Kind: Int16}
	I32 = &PrimitiveType{Kind: Int32}
	I64 = &PrimitiveType{Kind: Int64}
	F16 = &PrimitiveType{Kind: Float16}
	F32 = &PrimitiveType{Kind: Float32}
	F64 = &PrimitiveType{Kind: Float64}
	B1  = &PrimitiveType{Kind: Bool}
)

// PointerType is a typed pointer into a given address space.
type PointerType struct {
	Elem  Type
	Space AddressSpace
}

func (p *PointerType) String() string { return fmt.Sprintf("ptr<%s,%s>", p.Elem, p.Space) }
func (p *PointerType) Size() int64    { return 8 }

// ViewType is a {pointer, length} pair prior to LowerPointerViews. It
// disappears from the IR entirely once that pass has run (§8 invariant).
type ViewType struct {
	Elem  Type
	Space AddressSpace
}

func (v *ViewType) String() string { return fmt.Sprintf("view<%s,%s>", v.Elem, v.Space) }
func (v *ViewType) Size() int64    { return -1 }

// StructField is one named, ordered field of a StructType.
type StructField struct {
	Name string
	Type Type
}

// StructType is an ordered collection of named fields. It is also what
// a ViewType is lowered into: {ptr Pointer<E,AS>, length int64}.
type StructType struct {
	Name   string
	Fields []StructField
}

func (s *StructType) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Type.String())
	}
	b.WriteString("}")
	if s.Name != "" {
		return s.Name + b.String()
	}
	return b.String()
}

func (s *StructType) Size() int64 {
	var total int64
	for _, f := range s.Fields {
		sz := f.Type.Size()
		if sz < 0 {
			return -1
		}
		total += sz
	}
	return total
}

// FieldIndex returns the index of a named field, or -1.
func (s *StructType) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// NewViewStructType builds the canonical {ptr, length} lowering of a
// ViewType, per §4.3 LowerPointerViews.
func NewViewStructType(v *ViewType) *StructType {
	return &StructType{
		Name: "View",
		Fields: []StructField{
			{Name: "ptr", Type: &PointerType{Elem: v.Elem, Space: v.Space}},
			{Name: "length", Type: I64},
		},
	}
}

// ArrayType is a fixed-length homogeneous sequence.
type ArrayType struct {
	Elem Type
	Len  int64
}

func (a *ArrayType) String() string { return fmt.Sprintf("[%s x %d]", a.Elem, a.Len) }
func (a *ArrayType) Size() int64 {
	es := a.Elem.Size()
	if es < 0 {
		return -1
	}
	return es * a.Len
}

// VoidType marks a method with no return value.
type VoidType struct{}

func (VoidType) String() string { return "void" }
func (VoidType) Size() int64    { return 0 }

var Void Type = VoidType{}

// TypeEqual reports structural type equality.
func TypeEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// ContainsView reports whether t is, or contains, a ViewType. Used to
// assert the §8 post-LowerPointerViews invariant.
func ContainsView(t Type) bool {
	switch v := t.(type) {
	case *ViewType:
		return true
	case *PointerType:
		return ContainsView(v.Elem)
	case *StructType:
		for _, f := range v.Fields {
			if ContainsView(f.Type) {
				return true
			}
		}
		return false
	case *ArrayType:
		return ContainsView(v.Elem)
	default:
		return false
	}
}
