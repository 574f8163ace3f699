package transform

import "kernelc/internal/ir"

// Binding is one phi's incoming assignment along the edge from a
// particular predecessor: at the end of Pred, Value must be moved into
// Phi's storage location before control transfers to the phi's block.
type Binding struct {
	Target       *ir.BasicBlock
	Phi          *ir.PhiInst
	Value        *ir.Value
	Intermediate bool
}

// PhiBindings maps each predecessor block to the bindings that must be
// materialized at the end of that block, for every successor reachable
// from it that begins with phis (§4.3 item 4). Backends consume this
// to destruct phis during emission instead of keeping SSA form. A
// predecessor with multiple successors (e.g. a branch) may carry
// bindings for more than one Target; ForTarget splits those into the
// per-edge fragment a backend emits on each outgoing edge.
type PhiBindings struct {
	ByPred map[*ir.BasicBlock][]Binding
}

// ForTarget returns the subset of pred's bindings whose Target is succ,
// the fragment emitted on the pred->succ edge specifically.
func (pb *PhiBindings) ForTarget(pred, succ *ir.BasicBlock) []Binding {
	var out []Binding
	for _, bnd := range pb.ByPred[pred] {
		if bnd.Target == succ {
			out = append(out, bnd)
		}
	}
	return out
}

// ComputePhiBindings builds the bindings for every block in m.
//
// For each predecessor P of a block B with phis, the binding set is
// every (phi, value-for-P) pair. A bound value is marked Intermediate
// when it is itself one of the phis being written in this same
// binding set — its current value must be copied to a temporary
// before any sibling binding overwrites the register phi occupies,
// since bindings execute as a parallel (not sequential) copy.
func ComputePhiBindings(m *ir.Method) *PhiBindings {
	pb := &PhiBindings{ByPred: make(map[*ir.BasicBlock][]Binding)}

	for _, blk := range m.Blocks {
		phis := blk.Phis()
		if len(phis) == 0 {
			continue
		}
		phiSet := make(map[*ir.Value]bool, len(phis))
		for _, p := range phis {
			phiSet[p.Result()] = true
		}

		for _, pred := range blk.Predecessors {
			var bindings []Binding
			for _, p := range phis {
				val := p.ValueFor(pred)
				if val == nil {
					continue
				}
				if ir.ValueEqual(val, p.Result()) {
					// A phi that simply repeats its own value along this
					// edge needs no binding at all.
					continue
				}
				bindings = append(bindings, Binding{
					Target:       blk,
					Phi:          p,
					Value:        val,
					Intermediate: phiSet[val],
				})
			}
			if len(bindings) > 0 {
				pb.ByPred[pred] = append(pb.ByPred[pred], bindings...)
			}
		}
	}
	return pb
}

// Intermediates returns the subset of phis bound in pred's binding set
// that must be saved to a temporary before the parallel copy runs,
// because some other binding in the same set overwrites their
// register while a third binding still needs their old value. Valid
// directly when pred has a single successor; a branching pred should
// use IntermediatesFor(pred, succ) per outgoing edge instead.
func (pb *PhiBindings) Intermediates(pred *ir.BasicBlock) []*ir.PhiInst {
	return intermediatesOf(pb.ByPred[pred])
}

// IntermediatesFor is Intermediates scoped to the pred->succ edge
// fragment, for a predecessor with more than one successor.
func (pb *PhiBindings) IntermediatesFor(pred, succ *ir.BasicBlock) []*ir.PhiInst {
	return intermediatesOf(pb.ForTarget(pred, succ))
}

func intermediatesOf(bindings []Binding) []*ir.PhiInst {
	var out []*ir.PhiInst
	seen := make(map[*ir.PhiInst]bool)
	for _, b := range bindings {
		if !b.Intermediate {
			continue
		}
		phi := b.Value.Def.(*ir.PhiInst)
		if !seen[phi] {
			seen[phi] = true
			out = append(out, phi)
		}
	}
	return out
}
