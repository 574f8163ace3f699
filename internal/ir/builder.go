package ir

import (
	"fmt"
	"math"
)

// MethodBuilder creates and mutates values, blocks and methods while
// preserving the §3 invariants. All structural edits to a Method go
// through its builder (§4.1); once the builder commits, the IR is
// frozen for analysis and codegen.
type MethodBuilder struct {
	method *Method
	cur    *BasicBlock

	acceptCFUpdates bool
	committed       bool

	intern map[string]*Value // (type,bit-pattern) -> interned constant

	// SSA construction convenience layer (Braun, Buchwald, Hack,
	// Leißa, Mallon, Zwinkau), generalized from the teacher's
	// AST-specific version (internal/ir/builder.go in kanso) to work
	// directly off declared variable slots rather than source
	// identifiers, since the frontend usually hands over SSA-form IR
	// already and only uses this layer when constructing kernels
	// programmatically (CLI demo kernels, tests).
	varTypes       map[string]Type
	varDefs        map[*BasicBlock]map[string]*Value
	incompletePhis map[*BasicBlock]map[string]*PhiInst
	sealed         map[*BasicBlock]bool
}

// NewMethodBuilder returns a builder bound to m. m must be freshly
// created (no blocks yet) or already open for edits.
func NewMethodBuilder(m *Method) *MethodBuilder {
	return &MethodBuilder{
		method:         m,
		intern:         make(map[string]*Value),
		varTypes:       make(map[string]Type),
		varDefs:        make(map[*BasicBlock]map[string]*Value),
		incompletePhis: make(map[*BasicBlock]map[string]*PhiInst),
		sealed:         make(map[*BasicBlock]bool),
	}
}

func (b *MethodBuilder) checkOpen() {
	if b.committed {
		panic("ir: builder used after Commit")
	}
}

// AcceptControlFlowUpdates toggles whether predecessor/successor edits
// and phi-source rewrites are permitted (§4.1).
func (b *MethodBuilder) AcceptControlFlowUpdates(flag bool) {
	b.acceptCFUpdates = flag
}

// Commit freezes the method: no further structural edits are
// permitted through this builder.
func (b *MethodBuilder) Commit() *Method {
	b.committed = true
	return b.method
}

// CreateBlock allocates a new basic block and appends it to the
// method. It does not become the insertion point automatically; call
// SetInsertBlock.
func (b *MethodBuilder) CreateBlock(label string) *BasicBlock {
	b.checkOpen()
	if label == "" {
		label = b.method.allocBlockLabel()
	}
	blk := &BasicBlock{Label: label, Method: b.method}
	b.method.Blocks = append(b.method.Blocks, blk)
	return blk
}

// SetInsertBlock sets the block new instructions are appended to.
func (b *MethodBuilder) SetInsertBlock(blk *BasicBlock) { b.cur = blk }

// CurrentBlock returns the active insertion block.
func (b *MethodBuilder) CurrentBlock() *BasicBlock { return b.cur }

// SetEntry designates blk as the method's entry block.
func (b *MethodBuilder) SetEntry(blk *BasicBlock) { b.method.Entry = blk }

// AddEdge records blk2 as a successor of blk1 (and blk1 as a
// predecessor of blk2). Only permitted when control-flow updates are
// accepted, or before the block has been sealed.
func (b *MethodBuilder) AddEdge(from, to *BasicBlock) {
	b.checkOpen()
	if to.sealed && !b.acceptCFUpdates {
		panic("ir: control-flow edit rejected: AcceptControlFlowUpdates(false)")
	}
	from.Successors = append(from.Successors, to)
	to.Predecessors = append(to.Predecessors, from)
}

func (b *MethodBuilder) insert(inst Instruction) {
	b.checkOpen()
	if b.cur == nil {
		panic("ir: no current insertion block")
	}
	inst.SetBlock(b.cur)
	if t, ok := inst.(Terminator); ok {
		if b.cur.Terminator != nil {
			panic("ir: inserting a second terminator in block " + b.cur.Label)
		}
		b.cur.Terminator = t
		for _, succ := range t.Successors() {
			if succ == nil {
				continue
			}
			b.AddEdge(b.cur, succ)
		}
		return
	}
	// Non-terminator instructions are appended to the block's
	// instruction list regardless of whether a terminator is already
	// present: the terminator is tracked separately (BasicBlock.Terminator),
	// so appending here still keeps it last in program order. This lets
	// transformation passes insert new instructions into
	// already-committed, already-terminated blocks.
	b.cur.Instructions = append(b.cur.Instructions, inst)
}

func (b *MethodBuilder) nextID() int { return b.method.allocValueID() }

func (b *MethodBuilder) bindResult(v *Value, def Instruction) {
	v.Block = b.cur
	v.Def = def
	for _, op := range def.Operands() {
		if op != nil {
			op.addUse(&Use{Value: op, User: def})
		}
	}
}

// ---- Constant interning: equal constants share identity (§4.1) ----

func internKey(typ Type, bits string) string {
	return typ.String() + "#" + bits
}

func (b *MethodBuilder) CreateConstInt(typ Type, val int64) *Value {
	b.checkOpen()
	key := internKey(typ, fmt.Sprintf("%d", val))
	if v, ok := b.intern[key]; ok {
		return v
	}
	c := NewConstInt(b.nextID(), typ, val)
	b.insert(c)
	c.result.Block = b.cur
	b.intern[key] = c.result
	return c.result
}

func (b *MethodBuilder) CreateConstFloat(typ Type, val float64) *Value {
	b.checkOpen()
	key := internKey(typ, fmt.Sprintf("%x", math.Float64bits(val)))
	if v, ok := b.intern[key]; ok {
		return v
	}
	c := NewConstFloat(b.nextID(), typ, val)
	b.insert(c)
	c.result.Block = b.cur
	b.intern[key] = c.result
	return c.result
}

func (b *MethodBuilder) CreateConstNullPtr(typ *PointerType) *Value {
	b.checkOpen()
	key := internKey(typ, "null")
	if v, ok := b.intern[key]; ok {
		return v
	}
	c := NewConstNullPtr(b.nextID(), typ)
	b.insert(c)
	c.result.Block = b.cur
	b.intern[key] = c.result
	return c.result
}

func (b *MethodBuilder) CreateConstUndef(typ Type) *Value {
	b.checkOpen()
	c := NewConstUndef(b.nextID(), typ)
	b.insert(c)
	c.result.Block = b.cur
	return c.result
}

// ---- Arithmetic ----

func mustMatch(a, bt Type) {
	if !TypeEqual(a, bt) {
		panic(fmt.Sprintf("ir: type mismatch: %s vs %s", a, bt))
	}
}

func (b *MethodBuilder) CreateUnary(op UnOp, x *Value, resultType Type) *Value {
	b.checkOpen()
	u := &UnaryInst{base: base{id: b.nextID()}, Op: op, X: x}
	u.result = &Value{ID: u.id, Type: resultType, Def: u}
	b.bindResult(u.result, u)
	b.insert(u)
	return u.result
}

func (b *MethodBuilder) CreateBinary(op BinOp, x, y *Value) *Value {
	b.checkOpen()
	mustMatch(x.Type, y.Type)
	resultType := x.Type
	switch op {
	case OpICmpEQ, OpICmpNE, OpICmpSLT, OpICmpSLE, OpICmpSGT, OpICmpSGE,
		OpICmpULT, OpICmpULE, OpICmpUGT, OpICmpUGE,
		OpFCmpEQ, OpFCmpNE, OpFCmpLT, OpFCmpLE, OpFCmpGT, OpFCmpGE:
		resultType = B1
	}
	bin := &BinaryInst{base: base{id: b.nextID()}, Op: op, X: x, Y: y}
	bin.result = &Value{ID: bin.id, Type: resultType, Def: bin}
	b.bindResult(bin.result, bin)
	b.insert(bin)
	return bin.result
}

// ---- Memory ----

func (b *MethodBuilder) CreateAlloc(elem Type, count *Value, space AddressSpace) *Value {
	b.checkOpen()
	a := &AllocInst{base: base{id: b.nextID()}, Elem: elem, Count: count, Space: space}
	a.result = &Value{ID: a.id, Type: &PointerType{Elem: elem, Space: space}, Def: a}
	b.bindResult(a.result, a)
	b.insert(a)
	return a.result
}

func (b *MethodBuilder) CreateLoad(addr *Value) *Value {
	b.checkOpen()
	pt, ok := addr.Type.(*PointerType)
	if !ok {
		panic("ir: load requires a pointer operand")
	}
	l := &LoadInst{base: base{id: b.nextID()}, Addr: addr}
	l.result = &Value{ID: l.id, Type: pt.Elem, Def: l}
	b.bindResult(l.result, l)
	b.insert(l)
	return l.result
}

func (b *MethodBuilder) CreateStore(addr, val *Value) {
	b.checkOpen()
	pt, ok := addr.Type.(*PointerType)
	if !ok {
		panic("ir: store requires a pointer operand")
	}
	mustMatch(pt.Elem, val.Type)
	s := &StoreInst{base: base{id: b.nextID()}, Addr: addr, Val: val}
	for _, op := range s.Operands() {
		op.addUse(&Use{Value: op, User: s})
	}
	b.insert(s)
}

func (b *MethodBuilder) CreateLea(base_ *Value, index *Value) *Value {
	b.checkOpen()
	pt, ok := base_.Type.(*PointerType)
	if !ok {
		panic("ir: lea requires a pointer operand")
	}
	l := &LeaInst{base: base{id: b.nextID()}, Elem: pt.Elem, Base: base_, Index: index}
	l.result = &Value{ID: l.id, Type: pt, Def: l}
	b.bindResult(l.result, l)
	b.insert(l)
	return l.result
}

func (b *MethodBuilder) CreateSizeOf(of Type, resultType Type) *Value {
	b.checkOpen()
	s := &SizeOfInst{base: base{id: b.nextID()}, Of: of}
	s.result = &Value{ID: s.id, Type: resultType, Def: s}
	s.result.Block = b.cur
	b.insert(s)
	return s.result
}

func (b *MethodBuilder) CreateAlignToPtr(addr *Value, align int64) *Value {
	b.checkOpen()
	a := &AlignToInst{base: base{id: b.nextID()}, Addr: addr, Align: align}
	a.result = &Value{ID: a.id, Type: addr.Type, Def: a}
	b.bindResult(a.result, a)
	b.insert(a)
	return a.result
}

func (b *MethodBuilder) CreatePtrCast(addr *Value, to Type) *Value {
	b.checkOpen()
	p := &PtrCastInst{base: base{id: b.nextID()}, Addr: addr}
	p.result = &Value{ID: p.id, Type: to, Def: p}
	b.bindResult(p.result, p)
	b.insert(p)
	return p.result
}

func (b *MethodBuilder) CreateAddrSpaceCast(addr *Value, to AddressSpace) *Value {
	b.checkOpen()
	pt, ok := addr.Type.(*PointerType)
	if !ok {
		panic("ir: address-space cast requires a pointer operand")
	}
	a := &AddrSpaceCastInst{base: base{id: b.nextID()}, Addr: addr, To: to}
	a.result = &Value{ID: a.id, Type: &PointerType{Elem: pt.Elem, Space: to}, Def: a}
	b.bindResult(a.result, a)
	b.insert(a)
	return a.result
}

func (b *MethodBuilder) CreatePtrToInt(addr *Value, to Type) *Value {
	b.checkOpen()
	p := &PtrToIntInst{base: base{id: b.nextID()}, Addr: addr}
	p.result = &Value{ID: p.id, Type: to, Def: p}
	b.bindResult(p.result, p)
	b.insert(p)
	return p.result
}

// ---- Structure ----

func (b *MethodBuilder) CreateStructBuild(typ *StructType, fields []*Value) *Value {
	b.checkOpen()
	if len(fields) != len(typ.Fields) {
		panic("ir: struct.build field count mismatch")
	}
	s := &StructBuildInst{base: base{id: b.nextID()}, Fields: fields}
	s.result = &Value{ID: s.id, Type: typ, Def: s}
	b.bindResult(s.result, s)
	b.insert(s)
	return s.result
}

func (b *MethodBuilder) CreateGetField(struct_ *Value, index int) *Value {
	b.checkOpen()
	st, ok := struct_.Type.(*StructType)
	if !ok || index < 0 || index >= len(st.Fields) {
		panic("ir: get.field index out of range")
	}
	g := &GetFieldInst{base: base{id: b.nextID()}, Struct: struct_, Index: index}
	g.result = &Value{ID: g.id, Type: st.Fields[index].Type, Def: g}
	b.bindResult(g.result, g)
	b.insert(g)
	return g.result
}

// ---- Views ----

func (b *MethodBuilder) CreateNewView(ptr, length *Value, space AddressSpace) *Value {
	b.checkOpen()
	pt, ok := ptr.Type.(*PointerType)
	if !ok {
		panic("ir: view.new requires a pointer operand")
	}
	n := &NewViewInst{base: base{id: b.nextID()}, Ptr: ptr, Len: length}
	n.result = &Value{ID: n.id, Type: &ViewType{Elem: pt.Elem, Space: space}, Def: n}
	b.bindResult(n.result, n)
	b.insert(n)
	return n.result
}

func (b *MethodBuilder) CreateViewLen(view *Value, resultType Type) *Value {
	b.checkOpen()
	v := &ViewLenInst{base: base{id: b.nextID()}, View: view}
	v.result = &Value{ID: v.id, Type: resultType, Def: v}
	b.bindResult(v.result, v)
	b.insert(v)
	return v.result
}

func (b *MethodBuilder) CreateSubView(view, offset, length *Value) *Value {
	b.checkOpen()
	s := &SubViewInst{base: base{id: b.nextID()}, View: view, Offset: offset, Length: length}
	s.result = &Value{ID: s.id, Type: view.Type, Def: s}
	b.bindResult(s.result, s)
	b.insert(s)
	return s.result
}

func (b *MethodBuilder) CreateViewCast(view *Value, elem Type) *Value {
	b.checkOpen()
	vt, ok := view.Type.(*ViewType)
	if !ok {
		panic("ir: view.cast requires a view operand")
	}
	v := &ViewCastInst{base: base{id: b.nextID()}, View: view, ElemType: elem}
	v.result = &Value{ID: v.id, Type: &ViewType{Elem: elem, Space: vt.Space}, Def: v}
	b.bindResult(v.result, v)
	b.insert(v)
	return v.result
}

func (b *MethodBuilder) CreateAlignToView(view *Value, align int64) *Value {
	b.checkOpen()
	a := &AlignToViewInst{base: base{id: b.nextID()}, View: view, Align: align}
	a.result = &Value{ID: a.id, Type: &StructType{
		Name: "AlignedSplit",
		Fields: []StructField{
			{Name: "prefix", Type: view.Type},
			{Name: "suffix", Type: view.Type},
		},
	}, Def: a}
	b.bindResult(a.result, a)
	b.insert(a)
	return a.result
}

func (b *MethodBuilder) CreateAsAlignedView(view *Value, align int64) *Value {
	b.checkOpen()
	a := &AsAlignedViewInst{base: base{id: b.nextID()}, View: view, Align: align}
	a.result = &Value{ID: a.id, Type: view.Type, Def: a}
	b.bindResult(a.result, a)
	b.insert(a)
	return a.result
}

// ---- Control flow ----

func (b *MethodBuilder) CreateReturn(val *Value) {
	b.checkOpen()
	r := &ReturnInst{base: base{id: b.nextID()}, Val: val}
	if val != nil {
		val.addUse(&Use{Value: val, User: r})
	}
	b.insert(r)
}

func (b *MethodBuilder) CreateBranch(cond *Value, trueB, falseB *BasicBlock) {
	b.checkOpen()
	br := &BranchInst{base: base{id: b.nextID()}, Cond: cond, True: trueB, False: falseB}
	cond.addUse(&Use{Value: cond, User: br})
	b.insert(br)
}

func (b *MethodBuilder) CreateJump(target *BasicBlock) {
	b.checkOpen()
	j := &JumpInst{base: base{id: b.nextID()}, Target: target}
	b.insert(j)
}

func (b *MethodBuilder) CreateSwitch(val *Value, def *BasicBlock, cases []SwitchCase) {
	b.checkOpen()
	s := &SwitchInst{base: base{id: b.nextID()}, Value: val, Default: def, Cases: cases}
	val.addUse(&Use{Value: val, User: s})
	b.insert(s)
}

// CreatePhi creates a phi with the given sources; len(sources) must
// equal len(block.Predecessors) once the block is sealed (§3 phi
// arity invariant) — this is checked by CheckInvariants, not here,
// since incomplete phis are legitimate before sealing.
func (b *MethodBuilder) CreatePhi(blk *BasicBlock, typ Type, sources []PhiSource) *Value {
	b.checkOpen()
	p := &PhiInst{base: base{id: b.nextID()}, Sources: sources}
	p.result = &Value{ID: p.id, Type: typ, Block: blk, Def: p}
	p.SetBlock(blk)
	for _, s := range sources {
		if s.Val != nil {
			s.Val.addUse(&Use{Value: s.Val, User: p})
		}
	}
	// Phis are inserted at the head of the block, ahead of any
	// non-phi instruction already present.
	insertAt := 0
	for insertAt < len(blk.Instructions) {
		if _, ok := blk.Instructions[insertAt].(*PhiInst); !ok {
			break
		}
		insertAt++
	}
	blk.Instructions = append(blk.Instructions, nil)
	copy(blk.Instructions[insertAt+1:], blk.Instructions[insertAt:])
	blk.Instructions[insertAt] = p
	return p.result
}

func (b *MethodBuilder) CreateCall(callee string, args []*Value, resultType Type) *Value {
	b.checkOpen()
	c := &CallInst{base: base{id: b.nextID()}, Callee: callee, Args: args}
	if resultType != nil && !TypeEqual(resultType, Void) {
		c.result = &Value{ID: c.id, Type: resultType, Def: c}
	}
	for _, a := range args {
		a.addUse(&Use{Value: a, User: c})
	}
	if c.result != nil {
		c.result.Block = b.cur
	}
	b.insert(c)
	if c.result != nil {
		return c.result
	}
	return nil
}

func (b *MethodBuilder) CreateAtomicRMW(op AtomicOp, addr, val, compare *Value) *Value {
	b.checkOpen()
	pt := addr.Type.(*PointerType)
	a := &AtomicRMWInst{base: base{id: b.nextID()}, Op: op, Addr: addr, Val: val, Compare: compare}
	a.result = &Value{ID: a.id, Type: pt.Elem, Def: a}
	b.bindResult(a.result, a)
	b.insert(a)
	return a.result
}

func (b *MethodBuilder) CreateBarrier(scope BarrierScope) {
	b.checkOpen()
	bar := &BarrierInst{base: base{id: b.nextID()}, Scope: scope}
	b.insert(bar)
}

func (b *MethodBuilder) CreateExternalCall(name string, args []*Value, resultType Type) *Value {
	b.checkOpen()
	e := &ExternalCallInst{base: base{id: b.nextID()}, Name: name, Args: args}
	if resultType != nil && !TypeEqual(resultType, Void) {
		e.result = &Value{ID: e.id, Type: resultType, Def: e}
	}
	for _, a := range args {
		a.addUse(&Use{Value: a, User: e})
	}
	if e.result != nil {
		e.result.Block = b.cur
	}
	b.insert(e)
	if e.result != nil {
		return e.result
	}
	return nil
}

// ---- Replace / Remove ----

// Replace rewires every use of old to point at replacement, which
// must have a compatible type, then marks old dead.
func (b *MethodBuilder) Replace(old, replacement *Value) {
	b.checkOpen()
	if !TypeEqual(old.Type, replacement.Type) {
		panic(fmt.Sprintf("ir: Replace type mismatch: %s vs %s", old.Type, replacement.Type))
	}
	for _, u := range append([]*Use{}, old.uses...) {
		for i, op := range u.User.Operands() {
			if op == old {
				u.User.SetOperand(i, replacement)
			}
		}
		replacement.addUse(&Use{Value: replacement, User: u.User})
	}
	old.uses = nil
}

// Remove deletes an instruction. Permitted only when its result (if
// any) has a zero use-count; otherwise fatal, matching §4.1.
func (b *MethodBuilder) Remove(inst Instruction) {
	b.checkOpen()
	if r := inst.Result(); r != nil && len(r.uses) != 0 {
		panic(fmt.Sprintf("ir: Remove on value %%%d with %d remaining uses", r.ID, len(r.uses)))
	}
	for _, op := range inst.Operands() {
		if op != nil {
			op.removeUse(inst)
		}
	}
	blk := inst.Block()
	if blk == nil {
		return
	}
	if blk.Terminator == inst {
		blk.Terminator = nil
		return
	}
	out := blk.Instructions[:0]
	for _, i := range blk.Instructions {
		if i != inst {
			out = append(out, i)
		}
	}
	blk.Instructions = out
}

// ---- Braun-style SSA construction convenience layer ----

// DeclareVariable registers a named, typed local slot for use with
// WriteVariable/ReadVariable.
func (b *MethodBuilder) DeclareVariable(name string, typ Type) { b.varTypes[name] = typ }

// WriteVariable records the current definition of name in blk.
func (b *MethodBuilder) WriteVariable(name string, blk *BasicBlock, val *Value) {
	m := b.varDefs[blk]
	if m == nil {
		m = make(map[string]*Value)
		b.varDefs[blk] = m
	}
	m[name] = val
}

// ReadVariable resolves the current definition of name visible at the
// end of blk, inserting phis for join points as needed (and recording
// them as incomplete until the block is sealed).
func (b *MethodBuilder) ReadVariable(name string, blk *BasicBlock) *Value {
	if m, ok := b.varDefs[blk]; ok {
		if v, ok := m[name]; ok {
			return v
		}
	}
	return b.readVariableRecursive(name, blk)
}

func (b *MethodBuilder) readVariableRecursive(name string, blk *BasicBlock) *Value {
	var val *Value
	if !b.sealed[blk] {
		phi := b.CreatePhi(blk, b.varTypes[name], nil)
		if b.incompletePhis[blk] == nil {
			b.incompletePhis[blk] = make(map[string]*PhiInst)
		}
		b.incompletePhis[blk][name] = phi.Def.(*PhiInst)
		val = phi
	} else if len(blk.Predecessors) == 1 {
		val = b.ReadVariable(name, blk.Predecessors[0])
	} else if len(blk.Predecessors) == 0 {
		val = b.CreateConstUndef(b.varTypes[name])
	} else {
		phi := b.CreatePhi(blk, b.varTypes[name], nil)
		b.WriteVariable(name, blk, phi)
		val = b.addPhiOperands(name, phi.Def.(*PhiInst), blk)
	}
	b.WriteVariable(name, blk, val)
	return val
}

func (b *MethodBuilder) addPhiOperands(name string, phi *PhiInst, blk *BasicBlock) *Value {
	for _, pred := range blk.Predecessors {
		v := b.ReadVariable(name, pred)
		phi.Sources = append(phi.Sources, PhiSource{Pred: pred, Val: v})
		v.addUse(&Use{Value: v, User: phi})
	}
	return phi.result
}

// Seal declares that all predecessors of blk are now known; any
// phis left incomplete for blk are completed by walking its (now
// final) predecessor list.
func (b *MethodBuilder) Seal(blk *BasicBlock) {
	for name, phi := range b.incompletePhis[blk] {
		b.addPhiOperands(name, phi, blk)
	}
	delete(b.incompletePhis, blk)
	blk.sealed = true
	b.sealed[blk] = true
}
