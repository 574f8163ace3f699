// Package velocity emits a SIMD-vectorized CPU rendering of a kernel
// method (§4.5 "Velocity backend"): one lane group simulates a warp,
// phis are destructed the same way as cpuil, and warp_shuffle_* calls
// are left as named external callees for the host driver to dispatch
// into this package's shuffle primitives (shuffle.go). Grounded on the
// teacher's Printer walk (internal/ir/printer.go), adapted to a
// lane-vector-register convention instead of the IR's scalar-SSA form.
package velocity

import (
	"fmt"

	"kernelc/internal/backend"
	"kernelc/internal/ir"
	"kernelc/internal/transform"
)

// Backend is the Velocity emitter. Width is the simulated warp width
// (lanes cooperating on one group); it is recorded in the preamble and
// in CompiledKernel.Meta["lane_width"]. It does not affect the arena
// sizes reported alongside it.
type Backend struct {
	Width int
}

func (Backend) Name() string { return "velocity" }

func (b Backend) Compile(m *ir.Method, bindings *transform.PhiBindings) (*backend.CompiledKernel, error) {
	width := b.Width
	if width <= 0 {
		width = 32
	}

	e := &backend.Emitter{}
	e.Line(fmt.Sprintf("lanes %s width=%d", m.Name, width))
	e.Indent()
	emitPrologue(e, m, width)
	for _, blk := range m.Blocks {
		e.Dedent()
		e.Line(blk.Label + ":")
		e.Indent()
		emitBlockBody(e, blk, bindings)
	}
	e.Dedent()

	shared, local := arenaSizes(m)
	return &backend.CompiledKernel{
		Backend:    "velocity",
		EntryPoint: m.Name,
		Code:       e.Bytes(),
		Meta: map[string]int64{
			"lane_width":   int64(width),
			"shared_bytes": shared,
			"local_bytes":  local,
		},
	}, nil
}

// emitPrologue loads the per-lane thread index and broadcasts every
// mapped argument across the lane vector. A specialized parameter is
// already a compile-time constant by the time argmap has run, so it
// needs no per-lane load — only a load.const line recording its slot.
func emitPrologue(e *backend.Emitter, m *ir.Method, width int) {
	if m.Kernel && m.ImplicitGroup {
		e.Line(fmt.Sprintf("lane.id %%lane in [0, %d)", width))
		e.Line("load.tid.vec %tid")
	} else if m.Kernel {
		e.Line("load.gid %gid")
		e.Line(fmt.Sprintf("lane.id %%lane in [0, %d)", width))
	}
	for i, p := range m.Params {
		if p.Value == nil {
			continue
		}
		e.Line(fmt.Sprintf("load.arg.vec %d -> %%%d : %s", i, p.Value.ID, p.Type))
	}
	for i, s := range m.Specialized {
		e.Line(fmt.Sprintf("load.const %d : %s", i, s.Type))
	}
}

func emitBlockBody(e *backend.Emitter, blk *ir.BasicBlock, bindings *transform.PhiBindings) {
	for _, inst := range blk.Instructions {
		if _, isPhi := inst.(*ir.PhiInst); isPhi {
			continue
		}
		e.Line(instLine(inst))
	}
	for _, succ := range backend.Edges(blk) {
		for _, mv := range backend.DestructEdge(bindings, blk, succ) {
			e.Line(moveLine(mv))
		}
	}
	if blk.Terminator != nil {
		e.Line(blk.Terminator.String())
	}
}

// instLine renders a vectorized form of a non-phi instruction. A call
// to one of the four warp-shuffle intrinsics is rewritten to name the
// shuffle kind explicitly; the host driver dispatches these calls into
// Shuffle64/ShuffleFloat32/ShuffleFloat64 rather than interpreting
// generic call syntax. Everything else keeps the IR's own printed form
// prefixed with "vec." to mark it as operating on a full lane vector.
func instLine(inst ir.Instruction) string {
	if call, ok := inst.(*ir.CallInst); ok {
		if kind, isShuffle := shuffleCallee[call.Callee]; isShuffle {
			dst := "_"
			if call.Result() != nil {
				dst = fmt.Sprintf("%%%d", call.Result().ID)
			}
			return fmt.Sprintf("vec.shuffle.%s %s <- %s", kind, dst, operandList(call.Args))
		}
	}
	return "vec." + inst.String()
}

func operandList(args []*ir.Value) string {
	s := ""
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%%%d", a.ID)
	}
	return s
}

func moveLine(mv backend.PhiMove) string {
	if mv.Kind == backend.SnapshotMove {
		return fmt.Sprintf("vec.save %%%d -> $t%d", mv.From.ID, mv.Phi.ID())
	}
	src := fmt.Sprintf("%%%d", mv.From.ID)
	if mv.Temp != nil {
		src = fmt.Sprintf("$t%d", mv.Temp.ID())
	}
	return fmt.Sprintf("vec.mov %s -> %%%d", src, mv.Phi.ID())
}

// arenaSizes scans a method's alloc instructions for the per-group
// shared and local memory it needs (§4.5, §5 "dynamic shared memory ...
// allocated from a per-group arena"). Compile reports them in
// CompiledKernel.Meta as shared_bytes and local_bytes; the host driver
// does not read them.
func arenaSizes(m *ir.Method) (shared, local int64) {
	for _, inst := range m.AllInstructions() {
		alloc, ok := inst.(*ir.AllocInst)
		if !ok {
			continue
		}
		size := alloc.Elem.Size()
		if size < 0 {
			continue
		}
		if alloc.Count != nil {
			if c, ok := alloc.Count.Def.(*ir.ConstInt); ok {
				size *= c.Val
			}
		}
		switch alloc.Space {
		case ir.AddrShared:
			shared += size
		case ir.AddrLocal:
			local += size
		}
	}
	return shared, local
}
