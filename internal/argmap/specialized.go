package argmap

import (
	"fmt"
	"math"

	"kernelc/internal/ir"
)

// Specialized wraps a comparable primitive T, lifting it to a
// compile-time constant of the kernel method (§4.4). Two wrappers are
// equal iff their underlying T are equal; first use of a distinct T
// triggers a fresh specialization of the compiled kernel.
type Specialized[T comparable] struct {
	Value T
}

// Equal reports whether two specialized values carry the same T,
// the equality the spec keys the compiled-kernel cache on.
func (s Specialized[T]) Equal(other Specialized[T]) bool {
	return s.Value == other.Value
}

func (s Specialized[T]) isHostValue() {}

// key renders the specialized value into the string the specialization
// tuple is built from. Unexported: callers compare specializations via
// Equal, not by key string.
func (s Specialized[T]) key() string { return fmt.Sprintf("%v", s.Value) }

// liftedType and liftedBits expose the specialized value as a
// compile-time constant argument slot, alongside its tuple key, so a
// specialized value is both recorded in the specialization tuple and
// still passed through to the mapped argument list as an ordinary
// constant operand.
func (s Specialized[T]) liftedType() ir.Type {
	switch any(s.Value).(type) {
	case int8:
		return ir.I8
	case int16:
		return ir.I16
	case int32:
		return ir.I32
	case int64, int:
		return ir.I64
	case float32:
		return ir.F32
	case float64:
		return ir.F64
	case bool:
		return ir.B1
	default:
		return ir.I64
	}
}

func (s Specialized[T]) liftedBits() uint64 {
	switch v := any(s.Value).(type) {
	case int8:
		return uint64(v)
	case int16:
		return uint64(v)
	case int32:
		return uint64(v)
	case int64:
		return uint64(v)
	case int:
		return uint64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case float32:
		return uint64(math.Float32bits(v))
	case float64:
		return math.Float64bits(v)
	default:
		return 0
	}
}
