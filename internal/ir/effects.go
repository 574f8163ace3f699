package ir

// Effect classifies how an instruction interacts with state outside its
// own result, generalizing the teacher's storage/memory/pure effect
// split (internal/ir/effects.go) to the kernel domain's memory,
// atomics, barriers and external calls.
type Effect interface {
	EffectKind() string
}

// PureEffect marks an instruction with no observable side effect:
// optimizations may freely reorder, hoist or eliminate it (subject to
// use-def rules).
type PureEffect struct{}

func (PureEffect) EffectKind() string { return "pure" }

// MemoryAccessEffect marks a load or store through a pointer.
type MemoryAccessEffect struct {
	Write bool
}

func (m MemoryAccessEffect) EffectKind() string { return "memory" }

// AtomicEffect marks a read-modify-write or ordered memory operation;
// conservative optimizations must treat it as both a read and a write
// barrier.
type AtomicEffect struct{}

func (AtomicEffect) EffectKind() string { return "atomic" }

// BarrierEffect marks a group/warp synchronization point: no value may
// be hoisted or sunk across it.
type BarrierEffect struct{}

func (BarrierEffect) EffectKind() string { return "barrier" }

// ExternalEffect marks an unresolved call or I/O-like external:
// conservatively treated as reading and writing all memory.
type ExternalEffect struct{}

func (ExternalEffect) EffectKind() string { return "external" }

// HasSideEffect reports whether any of the effects prevent the given
// instruction from being treated as invariant/movable by LICM (§4.3).
func HasSideEffect(inst Instruction) bool {
	for _, e := range inst.Effects() {
		switch e.EffectKind() {
		case "pure":
			continue
		default:
			return true
		}
	}
	return false
}
