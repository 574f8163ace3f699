package ir

// BasicBlock is an ordered, non-empty (once finalized) sequence of
// instructions terminated by exactly one control-flow instruction
// (§3 "Terminator" invariant).
type BasicBlock struct {
	Label        string
	Method       *Method
	Instructions []Instruction
	Terminator   Terminator

	Predecessors []*BasicBlock
	Successors   []*BasicBlock

	sealed bool
}

// Phis returns the phi instructions at the head of the block, matching
// the convention (and the teacher's PhiCollection idea, generalized) that
// all phis of a block appear before any non-phi instruction.
func (b *BasicBlock) Phis() []*PhiInst {
	var out []*PhiInst
	for _, inst := range b.Instructions {
		if p, ok := inst.(*PhiInst); ok {
			out = append(out, p)
		} else {
			break
		}
	}
	return out
}

// AllInstructions returns every instruction in the block including the
// terminator, in program order.
func (b *BasicBlock) AllInstructions() []Instruction {
	if b.Terminator == nil {
		return b.Instructions
	}
	return append(append([]Instruction{}, b.Instructions...), b.Terminator)
}

// PredIndex returns the position of pred in b.Predecessors, or -1.
func (b *BasicBlock) PredIndex(pred *BasicBlock) int {
	for i, p := range b.Predecessors {
		if p == pred {
			return i
		}
	}
	return -1
}
