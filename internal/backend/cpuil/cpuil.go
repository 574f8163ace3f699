// Package cpuil emits the CPU-IL backend's stack-based text for
// kernelc's in-process code executor (§4.5), grounded on the teacher's
// Printer walk (internal/ir/printer.go): one line per instruction, in
// block order, with phis destructed per edge instead of kept as SSA.
package cpuil

import (
	"fmt"

	"kernelc/internal/backend"
	"kernelc/internal/ir"
	"kernelc/internal/transform"
)

// Backend is the CPU-IL emitter. It assumes m has already been run
// through LowerPointerViews and the CPU-IL IntrinsicResolver pass; it
// does not resolve intrinsics itself.
type Backend struct{}

func (Backend) Name() string { return "cpuil" }

func (Backend) Compile(m *ir.Method, bindings *transform.PhiBindings) (*backend.CompiledKernel, error) {
	e := &backend.Emitter{}
	e.Line(fmt.Sprintf("kernel %s", m.Name))
	e.Indent()
	emitPrologue(e, m)
	for _, blk := range m.Blocks {
		e.Dedent()
		e.Line(blk.Label + ":")
		e.Indent()
		emitBlockBody(e, blk, bindings)
	}
	e.Dedent()
	return &backend.CompiledKernel{Backend: "cpuil", EntryPoint: m.Name, Code: e.Bytes()}, nil
}

// emitPrologue loads the thread index (for an implicitly-grouped
// kernel) and every mapped argument in parameter order, then the body
// issues the kernel call — the CPU-IL entry-method contract of §4.5.
func emitPrologue(e *backend.Emitter, m *ir.Method) {
	if m.Kernel && m.ImplicitGroup {
		e.Line("load.tid %tid")
	} else if m.Kernel {
		e.Line("load.gid %gid")
		e.Line("load.group_tid %ltid")
	}
	for i, p := range m.Params {
		if p.Value == nil {
			continue
		}
		e.Line(fmt.Sprintf("load.arg %d -> %%%d : %s", i, p.Value.ID, p.Type))
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
		e.Line(inst.String())
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

func moveLine(mv backend.PhiMove) string {
	if mv.Kind == backend.SnapshotMove {
		return fmt.Sprintf("save %%%d -> $t%d", mv.From.ID, mv.Phi.ID())
	}
	src := fmt.Sprintf("%%%d", mv.From.ID)
	if mv.Temp != nil {
		src = fmt.Sprintf("$t%d", mv.Temp.ID())
	}
	return fmt.Sprintf("mov %s -> %%%d", src, mv.Phi.ID())
}
