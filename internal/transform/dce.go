package transform

import "kernelc/internal/ir"

// DeadCodeElimination removes unreachable blocks and instructions whose
// result has no remaining uses and no side effect, generalizing the
// teacher's DeadCodeElimination pass (internal/ir/optimizations.go)
// from its storage/EVM instruction set to the generic Effects() model.
type DeadCodeElimination struct{}

func (DeadCodeElimination) Name() string { return "DeadCodeElimination" }
func (DeadCodeElimination) Description() string {
	return "removes unreachable blocks and unused side-effect-free instructions"
}

func (DeadCodeElimination) Apply(m *ir.Method) bool {
	changed := false
	if removeUnreachableBlocks(m) {
		changed = true
	}
	if removeDeadInstructions(m) {
		changed = true
	}
	return changed
}

func removeUnreachableBlocks(m *ir.Method) bool {
	if m.Entry == nil {
		return false
	}
	reachable := make(map[*ir.BasicBlock]bool)
	worklist := []*ir.BasicBlock{m.Entry}
	reachable[m.Entry] = true
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, s := range b.Successors {
			if !reachable[s] {
				reachable[s] = true
				worklist = append(worklist, s)
			}
		}
	}

	changed := false
	kept := m.Blocks[:0]
	for _, blk := range m.Blocks {
		if reachable[blk] {
			kept = append(kept, blk)
			continue
		}
		changed = true
		// Unlink this block as a predecessor of everything it used to
		// reach, so surviving phis don't reference a vanished edge.
		for _, succ := range blk.Successors {
			succ.Predecessors = removeBlock(succ.Predecessors, blk)
		}
	}
	m.Blocks = kept
	return changed
}

func removeBlock(blocks []*ir.BasicBlock, target *ir.BasicBlock) []*ir.BasicBlock {
	out := blocks[:0]
	for _, b := range blocks {
		if b != target {
			out = append(out, b)
		}
	}
	return out
}

func removeDeadInstructions(m *ir.Method) bool {
	changed := false
	// Fixed point: removing one dead value can make its operands dead.
	for {
		progress := false
		for _, blk := range m.Blocks {
			kept := blk.Instructions[:0]
			for _, inst := range blk.Instructions {
				if isDead(inst) {
					for _, op := range inst.Operands() {
						if op != nil {
							op.RemoveUseBy(inst)
						}
					}
					progress = true
					changed = true
					continue
				}
				kept = append(kept, inst)
			}
			blk.Instructions = kept
		}
		if !progress {
			break
		}
	}
	return changed
}

func isDead(inst ir.Instruction) bool {
	if inst.IsTerminator() {
		return false
	}
	if ir.HasSideEffect(inst) {
		return false
	}
	res := inst.Result()
	if res == nil {
		return false
	}
	return len(res.Uses()) == 0
}
