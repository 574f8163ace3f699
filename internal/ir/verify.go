package ir

import "fmt"

// CheckInvariants validates the §3/§8 structural invariants that must
// hold for any method after any transformation. It returns the first
// violation found, or nil.
func CheckInvariants(m *Method) error {
	for _, blk := range m.Blocks {
		if blk.Terminator == nil {
			return fmt.Errorf("block %s has no terminator", blk.Label)
		}
		for _, inst := range blk.Instructions {
			if inst.IsTerminator() {
				return fmt.Errorf("block %s has a terminator mid-block", blk.Label)
			}
		}
		for _, phi := range blk.Phis() {
			if len(phi.Sources) != len(blk.Predecessors) {
				return fmt.Errorf("phi %%%d in %s has %d sources but block has %d predecessors",
					phi.id, blk.Label, len(phi.Sources), len(blk.Predecessors))
			}
			for i, pred := range blk.Predecessors {
				if phi.Sources[i].Pred != pred {
					return fmt.Errorf("phi %%%d source %d is for %s, predecessor %d is %s",
						phi.id, i, phi.Sources[i].Pred.Label, i, pred.Label)
				}
			}
		}
	}
	for _, v := range m.AllValues() {
		for _, u := range v.uses {
			found := false
			for _, op := range u.User.Operands() {
				if op == v {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("dangling use: value %%%d claims a use from an instruction that no longer references it", v.ID)
			}
		}
	}
	return nil
}

// NoViewTypes reports an error if any value in the method still has a
// view type — the post-LowerPointerViews invariant (§8).
func NoViewTypes(m *Method) error {
	for _, v := range m.AllValues() {
		if ContainsView(v.Type) {
			return fmt.Errorf("value %%%d still has a view type %s after lowering", v.ID, v.Type)
		}
	}
	for _, p := range m.Params {
		if ContainsView(p.Type) {
			return fmt.Errorf("parameter %s still has a view type %s after lowering", p.Name, p.Type)
		}
	}
	return nil
}
