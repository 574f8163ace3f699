package transform

import (
	"kernelc/internal/analyses"
	"kernelc/internal/ir"
)

// LoopInvariantCodeMotion hoists loop-invariant values into the
// preheader of every single-entry loop (§4.3 item 3). Multi-entry
// loops are left untouched — they are opaque to this pass.
type LoopInvariantCodeMotion struct{}

func (LoopInvariantCodeMotion) Name() string { return "LoopInvariantCodeMotion" }
func (LoopInvariantCodeMotion) Description() string {
	return "hoists loop-invariant values into the loop preheader"
}

func (LoopInvariantCodeMotion) Apply(m *ir.Method) bool {
	if m.Entry == nil {
		return false
	}
	loops := analyses.LoopNest(m.Entry, m.Blocks)
	changed := false
	for _, loop := range loops {
		if loop.MultiEntry {
			continue
		}
		if licmOnLoop(m, loop) {
			changed = true
		}
	}
	return changed
}

func licmOnLoop(m *ir.Method, loop *analyses.Loop) bool {
	preheader := preheaderOf(loop)
	if preheader == nil {
		return false
	}

	rpo := analyses.ReversePostOrder(m.Entry)
	var bodyOrder []*ir.BasicBlock
	for _, blk := range rpo {
		if blk == loop.Header {
			continue
		}
		if loop.Contains(blk) {
			bodyOrder = append(bodyOrder, blk)
		}
	}

	invariant := make(map[*ir.Value]bool)
	var invariantOrder []ir.Instruction

	isInvariant := func(v *ir.Value) bool {
		if v == nil {
			return true
		}
		if v.Block == nil || !loop.Contains(v.Block) {
			return true
		}
		return invariant[v]
	}

	// Fixed point over the loop body in RPO: repeat scans until no new
	// value becomes invariant in a pass.
	for {
		progress := false
		for _, blk := range bodyOrder {
			for _, inst := range blk.AllInstructions() {
				res := inst.Result()
				if res == nil || invariant[res] {
					continue
				}
				if ir.HasSideEffect(inst) {
					continue
				}
				if phi, ok := inst.(*ir.PhiInst); ok {
					hasLoopSource := false
					for _, s := range phi.Sources {
						if s.Val != nil && s.Val.Block != nil && loop.Contains(s.Val.Block) {
							hasLoopSource = true
							break
						}
					}
					if hasLoopSource {
						continue
					}
				}
				allInvariant := true
				for _, op := range inst.Operands() {
					if !isInvariant(op) {
						allInvariant = false
						break
					}
				}
				if !allInvariant {
					continue
				}
				invariant[res] = true
				invariantOrder = append(invariantOrder, inst)
				progress = true
			}
		}
		if !progress {
			break
		}
	}

	if len(invariantOrder) == 0 {
		return false
	}

	// A value actually moves iff a use of it is also moved, or it is
	// not a constant. Constants alone never move (§4.3 item 3).
	moving := make(map[ir.Instruction]bool)
	for _, inst := range invariantOrder {
		if !isConstantInst(inst) {
			moving[inst] = true
		}
	}
	for {
		progress := false
		for _, inst := range invariantOrder {
			if moving[inst] {
				continue
			}
			res := inst.Result()
			for _, use := range usesOf(res) {
				if moving[use] {
					moving[inst] = true
					progress = true
					break
				}
			}
		}
		if !progress {
			break
		}
	}

	changed := false
	for _, inst := range invariantOrder {
		if !moving[inst] {
			continue
		}
		relocate(inst, preheader)
		changed = true
	}
	return changed
}

func isConstantInst(inst ir.Instruction) bool {
	switch inst.(type) {
	case *ir.ConstInt, *ir.ConstFloat, *ir.ConstNullPtr, *ir.ConstUndef:
		return true
	default:
		return false
	}
}

func usesOf(v *ir.Value) []ir.Instruction {
	if v == nil {
		return nil
	}
	var out []ir.Instruction
	seen := make(map[ir.Instruction]bool)
	for _, u := range v.Uses() {
		if !seen[u.User] {
			seen[u.User] = true
			out = append(out, u.User)
		}
	}
	return out
}

// relocate moves inst out of its current block and appends it to the
// end of target's instruction list (before its terminator), preserving
// all existing uses — SSA numbering and def/use edges are untouched.
func relocate(inst ir.Instruction, target *ir.BasicBlock) {
	src := inst.Block()
	if src == target {
		return
	}
	out := src.Instructions[:0]
	for _, i := range src.Instructions {
		if i != inst {
			out = append(out, i)
		}
	}
	src.Instructions = out

	target.Instructions = append(target.Instructions, inst)
	inst.SetBlock(target)
}

// preheaderOf finds the loop's single entry edge's source block — the
// unique predecessor of the header lying outside the loop — which by
// construction is a valid hoist target for single-entry loops.
func preheaderOf(loop *analyses.Loop) *ir.BasicBlock {
	var outside *ir.BasicBlock
	count := 0
	for _, p := range loop.Header.Predecessors {
		if !loop.Contains(p) {
			outside = p
			count++
		}
	}
	if count != 1 {
		return nil
	}
	return outside
}
