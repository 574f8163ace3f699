package transform

import "kernelc/internal/ir"

// IntrinsicBuilder rewrites a resolved call in place, returning the
// value that should replace its result (nil for a void intrinsic).
type IntrinsicBuilder func(b *ir.MethodBuilder, blk *ir.BasicBlock, call *ir.CallInst) *ir.Value

// IntrinsicEntry is one registration in an IntrinsicTable. SM gates a
// hardware-form entry to a minimum compute capability; an entry with
// SM==0 is an unconditional (software) fallback.
type IntrinsicEntry struct {
	Name  string
	SM    int
	Build IntrinsicBuilder
}

// IntrinsicTable holds a backend's intrinsic registrations in
// registration order. Among the registrations for a name whose SM
// requirement the target meets, the later one wins —
// last-registration-wins, not "pick the highest SM that qualifies";
// an earlier entry still applies when a later one's SM is not met —
// matching the PTX table's
// fallback-then-replace idiom (§4.3 item 2, resolved open question).
type IntrinsicTable struct {
	order []string
	byName map[string][]IntrinsicEntry
}

// NewIntrinsicTable returns an empty table.
func NewIntrinsicTable() *IntrinsicTable {
	return &IntrinsicTable{byName: make(map[string][]IntrinsicEntry)}
}

// Register appends an entry for name. A later Register call for the
// same (name, SM) pair replaces the earlier one; a later call for a
// different SM is appended and resolution always takes the most
// recently registered entry whose SM requirement is met.
func (t *IntrinsicTable) Register(e IntrinsicEntry) {
	if _, ok := t.byName[e.Name]; !ok {
		t.order = append(t.order, e.Name)
	}
	entries := t.byName[e.Name]
	for i, existing := range entries {
		if existing.SM == e.SM {
			entries[i] = e
			t.byName[e.Name] = entries
			return
		}
	}
	t.byName[e.Name] = append(entries, e)
}

// Resolve returns the entry registered for name that best matches the
// target SM: the most recently registered entry among those whose SM
// requirement is satisfied (SM == 0 always qualifies as a fallback).
func (t *IntrinsicTable) Resolve(name string, targetSM int) (IntrinsicEntry, bool) {
	entries := t.byName[name]
	var best *IntrinsicEntry
	bestIdx := -1
	for i := range entries {
		e := entries[i]
		if e.SM <= targetSM {
			if i > bestIdx {
				bestIdx = i
				best = &entries[i]
			}
		}
	}
	if best == nil {
		return IntrinsicEntry{}, false
	}
	return *best, true
}

// IntrinsicResolver walks every call in the method; if its callee is
// registered in Table for the given TargetSM, the call's result is
// replaced by the backend-specific implementation and the underlying
// CallInst is dropped; a void call stays in place, marked Intrinsic,
// after its builder has run. Unresolved calls are left untouched so IntrinsicUnresolved
// can be raised once the surrounding pipeline reaches a fixed point
// (§4.3 item 2).
type IntrinsicResolver struct {
	Table    *IntrinsicTable
	TargetSM int
}

func (r *IntrinsicResolver) Name() string { return "IntrinsicResolver" }
func (r *IntrinsicResolver) Description() string {
	return "substitutes calls to registered intrinsics with backend-specific IR"
}

func (r *IntrinsicResolver) Apply(m *ir.Method) bool {
	changed := false
	for _, blk := range m.Blocks {
		if RewriteBlock(blk, func(inst ir.Instruction) bool {
			return r.resolveOne(m, blk, inst)
		}) {
			changed = true
		}
	}
	return changed
}

func (r *IntrinsicResolver) resolveOne(m *ir.Method, blk *ir.BasicBlock, inst ir.Instruction) bool {
	call, ok := inst.(*ir.CallInst)
	if !ok || call.Intrinsic {
		return false
	}
	entry, found := r.Table.Resolve(call.Callee, r.TargetSM)
	if !found {
		return false
	}

	b := ir.NewMethodBuilder(m)
	b.SetInsertBlock(blk)
	b.AcceptControlFlowUpdates(true)

	replacement := entry.Build(b, blk, call)
	call.Intrinsic = true

	if call.Result() == nil {
		return true
	}
	if replacement == nil {
		panic("ir: intrinsic " + entry.Name + " must produce a result for a non-void call")
	}
	b.Replace(call.Result(), replacement)
	b.Remove(call)
	return true
}

// Unresolved reports every remaining non-intrinsic call whose callee
// has no entry in table usable at targetSM — a necessary condition for the
// IntrinsicUnresolved error once the resolver pipeline has reached a
// fixed point and these calls are still present.
func Unresolved(m *ir.Method, table *IntrinsicTable, targetSM int) []*ir.CallInst {
	var out []*ir.CallInst
	for _, blk := range m.Blocks {
		for _, inst := range blk.AllInstructions() {
			call, ok := inst.(*ir.CallInst)
			if !ok || call.Intrinsic {
				continue
			}
			if _, found := table.Resolve(call.Callee, targetSM); !found {
				out = append(out, call)
			}
		}
	}
	return out
}
