// Package backend declares the shared contract the CPU-IL, PTX and
// Velocity emitters implement, plus the phi-destruction walk common to
// all three (§4.5).
package backend

import (
	"strings"

	"kernelc/internal/ir"
	"kernelc/internal/transform"
)

// CompiledKernel is the invocable handle a backend produces: the
// emitted artifact bytes plus the entry point a driver loads by name.
// Meta carries backend-specific scalar facts (e.g. Velocity's lane
// width and per-group shared/local arena sizes) without widening the
// struct for every backend that reports one; cpuil and ptx leave it nil.
type CompiledKernel struct {
	Backend    string
	EntryPoint string
	Code       []byte
	Meta       map[string]int64
}

// Backend consumes a method already past the transformation pipeline
// (views lowered, intrinsics resolved for this backend) plus its
// phi-destruction map, and produces an invocable handle.
type Backend interface {
	Name() string
	Compile(m *ir.Method, bindings *transform.PhiBindings) (*CompiledKernel, error)
}

// Emitter is a small indent-tracking textual assembler shared by every
// backend, generalizing the teacher's Printer (internal/ir/printer.go)
// from pretty-printing IR to emitting each backend's target text.
type Emitter struct {
	indent int
	out    strings.Builder
}

func (e *Emitter) Indent() { e.indent++ }
func (e *Emitter) Dedent() {
	if e.indent > 0 {
		e.indent--
	}
}

func (e *Emitter) Line(line string) {
	for i := 0; i < e.indent; i++ {
		e.out.WriteString("  ")
	}
	e.out.WriteString(line)
	e.out.WriteString("\n")
}

func (e *Emitter) Blank() { e.out.WriteString("\n") }

func (e *Emitter) Bytes() []byte { return []byte(e.out.String()) }

// PhiMoveKind distinguishes the two kinds of move phi destruction emits.
type PhiMoveKind int

const (
	// SnapshotMove copies an intermediate phi's current value into a
	// temporary before any sibling binding can overwrite it.
	SnapshotMove PhiMoveKind = iota
	// WriteMove writes a bound value into a phi's register, reading
	// from the snapshot temporary instead of the live phi when the
	// bound value was itself one of the block's own phis.
	WriteMove
)

// PhiMove is one step of the per-edge phi-destruction sequence.
type PhiMove struct {
	Kind PhiMoveKind
	Phi  *ir.PhiInst // SnapshotMove: phi being saved. WriteMove: phi being written.
	From *ir.Value   // value read: the binding's value, or (for a snapshot) the phi's own result.
	Temp *ir.PhiInst // set on a WriteMove whose source must come from Temp's snapshot, not From directly.
}

// DestructEdge computes the phi-destruction move sequence for the
// pred->succ edge (§4.5 "Phi destruction during emission"): every
// intermediate phi is snapshotted first, then every binding is written,
// reading from the snapshot instead of the live register when its
// source value was itself an intermediate phi. Bindings execute this
// way because they are a parallel, not sequential, copy.
func DestructEdge(bindings *transform.PhiBindings, pred, succ *ir.BasicBlock) []PhiMove {
	frag := bindings.ForTarget(pred, succ)
	intermediates := bindings.IntermediatesFor(pred, succ)

	var moves []PhiMove
	for _, phi := range intermediates {
		moves = append(moves, PhiMove{Kind: SnapshotMove, Phi: phi, From: phi.Result()})
	}
	for _, b := range frag {
		mv := PhiMove{Kind: WriteMove, Phi: b.Phi, From: b.Value}
		if b.Intermediate {
			mv.Temp = b.Value.Def.(*ir.PhiInst)
		}
		moves = append(moves, mv)
	}
	return moves
}

// Edges lists the outgoing edges of blk in the order its terminator's
// Successors() reports them, deduplicated (a block whose two branch
// targets coincide still gets one destruction fragment, emitted once).
func Edges(blk *ir.BasicBlock) []*ir.BasicBlock {
	if blk.Terminator == nil {
		return nil
	}
	seen := make(map[*ir.BasicBlock]bool)
	var out []*ir.BasicBlock
	for _, s := range blk.Terminator.Successors() {
		if s == nil || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
