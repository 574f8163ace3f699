// Package ptx emits textual PTX for CUDA consumption (§4.5 "PTX
// backend"), grounded on the teacher's Printer walk
// (internal/ir/printer.go) adapted to PTX's register-class/mnemonic
// conventions instead of the IR's own pretty-printed form.
package ptx

import (
	"fmt"

	"kernelc/internal/backend"
	"kernelc/internal/ir"
	"kernelc/internal/transform"
)

// Backend is the PTX emitter. TargetSM is the compute capability the
// method was resolved against; it is recorded in the .target
// directive so a mismatched driver load fails loudly instead of
// silently running the wrong hardware form of an intrinsic.
type Backend struct {
	TargetSM int
}

func (Backend) Name() string { return "ptx" }

func (b Backend) Compile(m *ir.Method, bindings *transform.PhiBindings) (*backend.CompiledKernel, error) {
	e := &emitterAdapter{}
	e.line(".version 8.3")
	e.line(fmt.Sprintf(".target sm_%d", b.TargetSM))
	e.line(".address_size 64")
	e.blank()
	e.line(fmt.Sprintf(".visible .entry %s(", m.Name))
	e.indent()
	for i, p := range m.Params {
		comma := ","
		if i == len(m.Params)-1 {
			comma = ""
		}
		e.line(fmt.Sprintf(".param .%s param%d%s", ptxSuffix(p.Type), i, comma))
	}
	e.dedent()
	e.line(")")
	e.line("{")
	e.indent()

	emitPrologue(e, m)
	for _, blk := range m.Blocks {
		e.dedent()
		e.line(blk.Label + ":")
		e.indent()
		emitBlockBody(e, blk, bindings)
	}
	e.dedent()
	e.line("}")

	return &backend.CompiledKernel{Backend: "ptx", EntryPoint: m.Name, Code: e.bytes()}, nil
}

func emitPrologue(e *emitterAdapter, m *ir.Method) {
	if m.Kernel && m.ImplicitGroup {
		e.line("mov.u32 %r0, %tid.x;")
		e.line("mov.u32 %r1, %ctaid.x;")
		e.line("mov.u32 %r2, %ntid.x;")
		e.line("mad.lo.s32 %r3, %r1, %r2, %r0; // global thread index")
	} else if m.Kernel {
		e.line("mov.u32 %r0, %ctaid.x; // group index")
		e.line("mov.u32 %r1, %tid.x; // thread-in-group index")
	}
	for i, p := range m.Params {
		if p.Value == nil {
			e.comment(fmt.Sprintf("param %d (%s) unbound to a value, skipped", i, p.Name))
			continue
		}
		e.line(fmt.Sprintf("ld.param.%s %s, [param%d];", ptxSuffix(p.Type), reg(p.Value), i))
	}
}

func emitBlockBody(e *emitterAdapter, blk *ir.BasicBlock, bindings *transform.PhiBindings) {
	for _, inst := range blk.Instructions {
		if _, isPhi := inst.(*ir.PhiInst); isPhi {
			continue
		}
		emitInst(e, inst)
	}
	for _, succ := range backend.Edges(blk) {
		for _, mv := range backend.DestructEdge(bindings, blk, succ) {
			emitMove(e, mv)
		}
	}
	emitTerminator(e, blk.Terminator)
}

func emitMove(e *emitterAdapter, mv backend.PhiMove) {
	if mv.Kind == backend.SnapshotMove {
		e.line(fmt.Sprintf("mov.%s %%t%d, %s;", ptxSuffix(mv.From.Type), mv.Phi.ID(), reg(mv.From)))
		return
	}
	src := reg(mv.From)
	if mv.Temp != nil {
		src = fmt.Sprintf("%%t%d", mv.Temp.ID())
	}
	e.line(fmt.Sprintf("mov.%s %s, %s;", ptxSuffix(mv.From.Type), reg(mv.Phi.Result()), src))
}

func emitTerminator(e *emitterAdapter, term ir.Terminator) {
	switch t := term.(type) {
	case *ir.ReturnInst:
		e.line("ret;")
	case *ir.JumpInst:
		e.line("bra " + t.Target.Label + ";")
	case *ir.BranchInst:
		e.line(fmt.Sprintf("@%s bra %s;", reg(t.Cond), t.True.Label))
		e.line("bra " + t.False.Label + ";")
	case *ir.SwitchInst:
		for _, c := range t.Cases {
			e.line(fmt.Sprintf("setp.eq.s64 %%p0, %s, %d;", reg(t.Value), c.Val))
			e.line(fmt.Sprintf("@%%p0 bra %s;", c.Target.Label))
		}
		e.line("bra " + t.Default.Label + ";")
	}
}

// emitterAdapter wraps backend.Emitter with PTX's comment convention
// (// ...) instead of exposing raw Line calls throughout instr.go.
type emitterAdapter struct {
	backend.Emitter
}

func (e *emitterAdapter) line(s string)    { e.Emitter.Line(s) }
func (e *emitterAdapter) comment(s string) { e.Emitter.Line("// " + s) }
func (e *emitterAdapter) blank()           { e.Emitter.Blank() }
func (e *emitterAdapter) indent()          { e.Emitter.Indent() }
func (e *emitterAdapter) dedent()          { e.Emitter.Dedent() }
func (e *emitterAdapter) bytes() []byte    { return e.Emitter.Bytes() }
