package ir

import (
	"fmt"
	"strings"
)

// BinOp identifies a binary arithmetic/comparison kind, disambiguated
// by signedness and float/integer-ness as required by §3.
type BinOp string

const (
	OpAddI BinOp = "add.i"
	OpSubI BinOp = "sub.i"
	OpMulI BinOp = "mul.i"
	OpSDiv BinOp = "sdiv"
	OpUDiv BinOp = "udiv"
	OpSRem BinOp = "srem"
	OpURem BinOp = "urem"

	OpAddF BinOp = "add.f"
	OpSubF BinOp = "sub.f"
	OpMulF BinOp = "mul.f"
	OpDivF BinOp = "div.f"
	OpRemF BinOp = "rem.f"

	OpAnd  BinOp = "and"
	OpOr   BinOp = "or"
	OpXor  BinOp = "xor"
	OpShl  BinOp = "shl"
	OpLShr BinOp = "lshr"
	OpAShr BinOp = "ashr"

	OpICmpEQ  BinOp = "icmp.eq"
	OpICmpNE  BinOp = "icmp.ne"
	OpICmpSLT BinOp = "icmp.slt"
	OpICmpSLE BinOp = "icmp.sle"
	OpICmpSGT BinOp = "icmp.sgt"
	OpICmpSGE BinOp = "icmp.sge"
	OpICmpULT BinOp = "icmp.ult"
	OpICmpULE BinOp = "icmp.ule"
	OpICmpUGT BinOp = "icmp.ugt"
	OpICmpUGE BinOp = "icmp.uge"

	OpFCmpEQ BinOp = "fcmp.eq"
	OpFCmpNE BinOp = "fcmp.ne"
	OpFCmpLT BinOp = "fcmp.lt"
	OpFCmpLE BinOp = "fcmp.le"
	OpFCmpGT BinOp = "fcmp.gt"
	OpFCmpGE BinOp = "fcmp.ge"
)

// UnOp identifies a unary arithmetic or conversion kind.
type UnOp string

const (
	OpNegI   UnOp = "neg.i"
	OpNegF   UnOp = "neg.f"
	OpNot    UnOp = "not"
	OpSIToFP UnOp = "sitofp"
	OpUIToFP UnOp = "uitofp"
	OpFPToSI UnOp = "fptosi"
	OpFPToUI UnOp = "fptoui"
	OpTrunc  UnOp = "trunc"
	OpSExt   UnOp = "sext"
	OpZExt   UnOp = "zext"
	OpFPExt  UnOp = "fpext"
	OpFPTrunc UnOp = "fptrunc"
	OpBitcast UnOp = "bitcast"
)

// ---- Constants ----

type ConstInt struct {
	base
	Val int64
}

func NewConstInt(id int, typ Type, val int64) *ConstInt {
	c := &ConstInt{base: base{id: id}, Val: val}
	c.result = &Value{ID: id, Type: typ, Def: c}
	return c
}

func (c *ConstInt) Operands() []*Value          { return nil }
func (c *ConstInt) SetOperand(int, *Value)      {}
func (c *ConstInt) IsTerminator() bool          { return false }
func (c *ConstInt) Effects() []Effect           { return []Effect{PureEffect{}} }
func (c *ConstInt) String() string {
	return fmt.Sprintf("%%%d = const.int %d : %s", c.id, c.Val, c.result.Type)
}

type ConstFloat struct {
	base
	Val float64
}

func NewConstFloat(id int, typ Type, val float64) *ConstFloat {
	c := &ConstFloat{base: base{id: id}, Val: val}
	c.result = &Value{ID: id, Type: typ, Def: c}
	return c
}

func (c *ConstFloat) Operands() []*Value     { return nil }
func (c *ConstFloat) SetOperand(int, *Value) {}
func (c *ConstFloat) IsTerminator() bool     { return false }
func (c *ConstFloat) Effects() []Effect      { return []Effect{PureEffect{}} }
func (c *ConstFloat) String() string {
	return fmt.Sprintf("%%%d = const.float %g : %s", c.id, c.Val, c.result.Type)
}

type ConstNullPtr struct {
	base
}

func NewConstNullPtr(id int, typ *PointerType) *ConstNullPtr {
	c := &ConstNullPtr{base: base{id: id}}
	c.result = &Value{ID: id, Type: typ, Def: c}
	return c
}

func (c *ConstNullPtr) Operands() []*Value     { return nil }
func (c *ConstNullPtr) SetOperand(int, *Value) {}
func (c *ConstNullPtr) IsTerminator() bool     { return false }
func (c *ConstNullPtr) Effects() []Effect      { return []Effect{PureEffect{}} }
func (c *ConstNullPtr) String() string {
	return fmt.Sprintf("%%%d = const.null : %s", c.id, c.result.Type)
}

type ConstUndef struct {
	base
}

func NewConstUndef(id int, typ Type) *ConstUndef {
	c := &ConstUndef{base: base{id: id}}
	c.result = &Value{ID: id, Type: typ, Def: c}
	return c
}

func (c *ConstUndef) Operands() []*Value     { return nil }
func (c *ConstUndef) SetOperand(int, *Value) {}
func (c *ConstUndef) IsTerminator() bool     { return false }
func (c *ConstUndef) Effects() []Effect      { return []Effect{PureEffect{}} }
func (c *ConstUndef) String() string {
	return fmt.Sprintf("%%%d = const.undef : %s", c.id, c.result.Type)
}

// ---- Arithmetic / comparison ----

type UnaryInst struct {
	base
	Op UnOp
	X  *Value
}

func (u *UnaryInst) Operands() []*Value { return []*Value{u.X} }
func (u *UnaryInst) SetOperand(i int, v *Value) {
	if i == 0 {
		u.X = v
	}
}
func (u *UnaryInst) IsTerminator() bool { return false }
func (u *UnaryInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (u *UnaryInst) String() string {
	return fmt.Sprintf("%%%d = %s %%%d : %s", u.id, u.Op, u.X.ID, u.result.Type)
}

type BinaryInst struct {
	base
	Op   BinOp
	X, Y *Value
}

func (b *BinaryInst) Operands() []*Value { return []*Value{b.X, b.Y} }
func (b *BinaryInst) SetOperand(i int, v *Value) {
	switch i {
	case 0:
		b.X = v
	case 1:
		b.Y = v
	}
}
func (b *BinaryInst) IsTerminator() bool { return false }
func (b *BinaryInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (b *BinaryInst) String() string {
	return fmt.Sprintf("%%%d = %s %%%d, %%%d : %s", b.id, b.Op, b.X.ID, b.Y.ID, b.result.Type)
}

// ---- Memory ----

type AllocInst struct {
	base
	Elem  Type
	Count *Value // nil for a scalar allocation
	Space AddressSpace
}

func (a *AllocInst) Operands() []*Value {
	if a.Count != nil {
		return []*Value{a.Count}
	}
	return nil
}
func (a *AllocInst) SetOperand(i int, v *Value) {
	if i == 0 {
		a.Count = v
	}
}
func (a *AllocInst) IsTerminator() bool { return false }
func (a *AllocInst) Effects() []Effect  { return []Effect{MemoryAccessEffect{Write: true}} }
func (a *AllocInst) String() string {
	return fmt.Sprintf("%%%d = alloc %s in %s : %s", a.id, a.Elem, a.Space, a.result.Type)
}

type LoadInst struct {
	base
	Addr *Value
}

func (l *LoadInst) Operands() []*Value { return []*Value{l.Addr} }
func (l *LoadInst) SetOperand(i int, v *Value) {
	if i == 0 {
		l.Addr = v
	}
}
func (l *LoadInst) IsTerminator() bool { return false }
func (l *LoadInst) Effects() []Effect  { return []Effect{MemoryAccessEffect{Write: false}} }
func (l *LoadInst) String() string {
	return fmt.Sprintf("%%%d = load %%%d : %s", l.id, l.Addr.ID, l.result.Type)
}

type StoreInst struct {
	base
	Addr *Value
	Val  *Value
}

func (s *StoreInst) Operands() []*Value { return []*Value{s.Addr, s.Val} }
func (s *StoreInst) SetOperand(i int, v *Value) {
	switch i {
	case 0:
		s.Addr = v
	case 1:
		s.Val = v
	}
}
func (s *StoreInst) IsTerminator() bool { return false }
func (s *StoreInst) Effects() []Effect  { return []Effect{MemoryAccessEffect{Write: true}} }
func (s *StoreInst) String() string {
	return fmt.Sprintf("store %%%d, %%%d", s.Val.ID, s.Addr.ID)
}

// LeaInst computes a typed-element address: base + index*sizeof(Elem).
type LeaInst struct {
	base
	Elem  Type
	Base  *Value
	Index *Value
}

func (l *LeaInst) Operands() []*Value { return []*Value{l.Base, l.Index} }
func (l *LeaInst) SetOperand(i int, v *Value) {
	switch i {
	case 0:
		l.Base = v
	case 1:
		l.Index = v
	}
}
func (l *LeaInst) IsTerminator() bool { return false }
func (l *LeaInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (l *LeaInst) String() string {
	return fmt.Sprintf("%%%d = lea %%%d, %%%d : %s", l.id, l.Base.ID, l.Index.ID, l.result.Type)
}

type SizeOfInst struct {
	base
	Of Type
}

func (s *SizeOfInst) Operands() []*Value     { return nil }
func (s *SizeOfInst) SetOperand(int, *Value) {}
func (s *SizeOfInst) IsTerminator() bool     { return false }
func (s *SizeOfInst) Effects() []Effect      { return []Effect{PureEffect{}} }
func (s *SizeOfInst) String() string {
	return fmt.Sprintf("%%%d = sizeof %s : %s", s.id, s.Of, s.result.Type)
}

// AlignToInst rounds a pointer up to the given byte alignment.
type AlignToInst struct {
	base
	Addr  *Value
	Align int64
}

func (a *AlignToInst) Operands() []*Value { return []*Value{a.Addr} }
func (a *AlignToInst) SetOperand(i int, v *Value) {
	if i == 0 {
		a.Addr = v
	}
}
func (a *AlignToInst) IsTerminator() bool { return false }
func (a *AlignToInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (a *AlignToInst) String() string {
	return fmt.Sprintf("%%%d = align.to %%%d, %d : %s", a.id, a.Addr.ID, a.Align, a.result.Type)
}

type PtrCastInst struct {
	base
	Addr *Value
}

func (p *PtrCastInst) Operands() []*Value { return []*Value{p.Addr} }
func (p *PtrCastInst) SetOperand(i int, v *Value) {
	if i == 0 {
		p.Addr = v
	}
}
func (p *PtrCastInst) IsTerminator() bool { return false }
func (p *PtrCastInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (p *PtrCastInst) String() string {
	return fmt.Sprintf("%%%d = ptrcast %%%d : %s", p.id, p.Addr.ID, p.result.Type)
}

type AddrSpaceCastInst struct {
	base
	Addr *Value
	To   AddressSpace
}

func (a *AddrSpaceCastInst) Operands() []*Value { return []*Value{a.Addr} }
func (a *AddrSpaceCastInst) SetOperand(i int, v *Value) {
	if i == 0 {
		a.Addr = v
	}
}
func (a *AddrSpaceCastInst) IsTerminator() bool { return false }
func (a *AddrSpaceCastInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (a *AddrSpaceCastInst) String() string {
	return fmt.Sprintf("%%%d = as.cast %%%d, %s : %s", a.id, a.Addr.ID, a.To, a.result.Type)
}

type PtrToIntInst struct {
	base
	Addr *Value
}

func (p *PtrToIntInst) Operands() []*Value { return []*Value{p.Addr} }
func (p *PtrToIntInst) SetOperand(i int, v *Value) {
	if i == 0 {
		p.Addr = v
	}
}
func (p *PtrToIntInst) IsTerminator() bool { return false }
func (p *PtrToIntInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (p *PtrToIntInst) String() string {
	return fmt.Sprintf("%%%d = ptrtoint %%%d : %s", p.id, p.Addr.ID, p.result.Type)
}

// ---- Structure ----

type StructBuildInst struct {
	base
	Fields []*Value
}

func (s *StructBuildInst) Operands() []*Value { return s.Fields }
func (s *StructBuildInst) SetOperand(i int, v *Value) {
	if i >= 0 && i < len(s.Fields) {
		s.Fields[i] = v
	}
}
func (s *StructBuildInst) IsTerminator() bool { return false }
func (s *StructBuildInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (s *StructBuildInst) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = fmt.Sprintf("%%%d", f.ID)
	}
	return fmt.Sprintf("%%%d = struct.build {%s} : %s", s.id, strings.Join(parts, ", "), s.result.Type)
}

type GetFieldInst struct {
	base
	Struct *Value
	Index  int
}

func (g *GetFieldInst) Operands() []*Value { return []*Value{g.Struct} }
func (g *GetFieldInst) SetOperand(i int, v *Value) {
	if i == 0 {
		g.Struct = v
	}
}
func (g *GetFieldInst) IsTerminator() bool { return false }
func (g *GetFieldInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (g *GetFieldInst) String() string {
	return fmt.Sprintf("%%%d = get.field %%%d, %d : %s", g.id, g.Struct.ID, g.Index, g.result.Type)
}

// ---- Views (pre-lowering) ----

type NewViewInst struct {
	base
	Ptr *Value
	Len *Value
}

func (n *NewViewInst) Operands() []*Value { return []*Value{n.Ptr, n.Len} }
func (n *NewViewInst) SetOperand(i int, v *Value) {
	switch i {
	case 0:
		n.Ptr = v
	case 1:
		n.Len = v
	}
}
func (n *NewViewInst) IsTerminator() bool { return false }
func (n *NewViewInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (n *NewViewInst) String() string {
	return fmt.Sprintf("%%%d = view.new %%%d, %%%d : %s", n.id, n.Ptr.ID, n.Len.ID, n.result.Type)
}

type ViewLenInst struct {
	base
	View *Value
}

func (v *ViewLenInst) Operands() []*Value { return []*Value{v.View} }
func (v *ViewLenInst) SetOperand(i int, nv *Value) {
	if i == 0 {
		v.View = nv
	}
}
func (v *ViewLenInst) IsTerminator() bool { return false }
func (v *ViewLenInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (v *ViewLenInst) String() string {
	return fmt.Sprintf("%%%d = view.len %%%d : %s", v.id, v.View.ID, v.result.Type)
}

type SubViewInst struct {
	base
	View   *Value
	Offset *Value
	Length *Value
}

func (s *SubViewInst) Operands() []*Value { return []*Value{s.View, s.Offset, s.Length} }
func (s *SubViewInst) SetOperand(i int, v *Value) {
	switch i {
	case 0:
		s.View = v
	case 1:
		s.Offset = v
	case 2:
		s.Length = v
	}
}
func (s *SubViewInst) IsTerminator() bool { return false }
func (s *SubViewInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (s *SubViewInst) String() string {
	return fmt.Sprintf("%%%d = view.sub %%%d, %%%d, %%%d : %s", s.id, s.View.ID, s.Offset.ID, s.Length.ID, s.result.Type)
}

type ViewCastInst struct {
	base
	View     *Value
	ElemType Type
}

func (v *ViewCastInst) Operands() []*Value { return []*Value{v.View} }
func (v *ViewCastInst) SetOperand(i int, nv *Value) {
	if i == 0 {
		v.View = nv
	}
}
func (v *ViewCastInst) IsTerminator() bool { return false }
func (v *ViewCastInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (v *ViewCastInst) String() string {
	return fmt.Sprintf("%%%d = view.cast %%%d, %s : %s", v.id, v.View.ID, v.ElemType, v.result.Type)
}

// AlignToViewInst emits the prefix/suffix pair described by §4.3 item
// 1's align_to rule. Result() is a 2-field struct {prefix, suffix},
// both of the view's own type; callers extract with GetFieldInst.
type AlignToViewInst struct {
	base
	View  *Value
	Align int64
}

func (a *AlignToViewInst) Operands() []*Value { return []*Value{a.View} }
func (a *AlignToViewInst) SetOperand(i int, v *Value) {
	if i == 0 {
		a.View = v
	}
}
func (a *AlignToViewInst) IsTerminator() bool { return false }
func (a *AlignToViewInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (a *AlignToViewInst) String() string {
	return fmt.Sprintf("%%%d = view.align_to %%%d, %d : %s", a.id, a.View.ID, a.Align, a.result.Type)
}

type AsAlignedViewInst struct {
	base
	View  *Value
	Align int64
}

func (a *AsAlignedViewInst) Operands() []*Value { return []*Value{a.View} }
func (a *AsAlignedViewInst) SetOperand(i int, v *Value) {
	if i == 0 {
		a.View = v
	}
}
func (a *AsAlignedViewInst) IsTerminator() bool { return false }
func (a *AsAlignedViewInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (a *AsAlignedViewInst) String() string {
	return fmt.Sprintf("%%%d = view.as_aligned %%%d, %d : %s", a.id, a.View.ID, a.Align, a.result.Type)
}

// ---- Control flow ----

type ReturnInst struct {
	base
	Val *Value // nil for a void return
}

func (r *ReturnInst) Operands() []*Value {
	if r.Val != nil {
		return []*Value{r.Val}
	}
	return nil
}
func (r *ReturnInst) SetOperand(i int, v *Value) {
	if i == 0 {
		r.Val = v
	}
}
func (r *ReturnInst) IsTerminator() bool          { return true }
func (r *ReturnInst) Effects() []Effect           { return []Effect{PureEffect{}} }
func (r *ReturnInst) Successors() []*BasicBlock   { return nil }
func (r *ReturnInst) String() string {
	if r.Val == nil {
		return "return"
	}
	return fmt.Sprintf("return %%%d", r.Val.ID)
}

type BranchInst struct {
	base
	Cond        *Value
	True, False *BasicBlock
}

func (b *BranchInst) Operands() []*Value { return []*Value{b.Cond} }
func (b *BranchInst) SetOperand(i int, v *Value) {
	if i == 0 {
		b.Cond = v
	}
}
func (b *BranchInst) IsTerminator() bool        { return true }
func (b *BranchInst) Effects() []Effect         { return []Effect{PureEffect{}} }
func (b *BranchInst) Successors() []*BasicBlock { return []*BasicBlock{b.True, b.False} }
func (b *BranchInst) String() string {
	return fmt.Sprintf("br %%%d, %s, %s", b.Cond.ID, b.True.Label, b.False.Label)
}

type JumpInst struct {
	base
	Target *BasicBlock
}

func (j *JumpInst) Operands() []*Value          { return nil }
func (j *JumpInst) SetOperand(int, *Value)      {}
func (j *JumpInst) IsTerminator() bool          { return true }
func (j *JumpInst) Effects() []Effect           { return []Effect{PureEffect{}} }
func (j *JumpInst) Successors() []*BasicBlock   { return []*BasicBlock{j.Target} }
func (j *JumpInst) String() string              { return fmt.Sprintf("jump %s", j.Target.Label) }

type SwitchCase struct {
	Val    int64
	Target *BasicBlock
}

type SwitchInst struct {
	base
	Value   *Value
	Default *BasicBlock
	Cases   []SwitchCase
}

func (s *SwitchInst) Operands() []*Value { return []*Value{s.Value} }
func (s *SwitchInst) SetOperand(i int, v *Value) {
	if i == 0 {
		s.Value = v
	}
}
func (s *SwitchInst) IsTerminator() bool { return true }
func (s *SwitchInst) Effects() []Effect  { return []Effect{PureEffect{}} }
func (s *SwitchInst) Successors() []*BasicBlock {
	out := []*BasicBlock{s.Default}
	for _, c := range s.Cases {
		out = append(out, c.Target)
	}
	return out
}
func (s *SwitchInst) String() string {
	return fmt.Sprintf("switch %%%d, default %s (%d cases)", s.Value.ID, s.Default.Label, len(s.Cases))
}

// ---- Phi ----

type PhiSource struct {
	Pred *BasicBlock
	Val  *Value
}

type PhiInst struct {
	base
	Sources []PhiSource
}

func (p *PhiInst) Operands() []*Value {
	out := make([]*Value, len(p.Sources))
	for i, s := range p.Sources {
		out[i] = s.Val
	}
	return out
}
func (p *PhiInst) SetOperand(i int, v *Value) {
	if i >= 0 && i < len(p.Sources) {
		p.Sources[i].Val = v
	}
}
func (p *PhiInst) IsTerminator() bool { return false }
func (p *PhiInst) Effects() []Effect  { return []Effect{PureEffect{}} }

// ValueFor returns the incoming value for the given predecessor, or
// nil, honoring the §3 phi-arity invariant that source i corresponds
// to predecessor i.
func (p *PhiInst) ValueFor(pred *BasicBlock) *Value {
	for _, s := range p.Sources {
		if s.Pred == pred {
			return s.Val
		}
	}
	return nil
}

func (p *PhiInst) String() string {
	var parts []string
	for _, s := range p.Sources {
		parts = append(parts, fmt.Sprintf("[%s: %%%d]", s.Pred.Label, s.Val.ID))
	}
	return fmt.Sprintf("%%%d = phi %s : %s", p.id, strings.Join(parts, ", "), p.result.Type)
}

// ---- Call ----

type CallInst struct {
	base
	Callee    string // target method/intrinsic name
	Args      []*Value
	Intrinsic bool // set by IntrinsicResolver once substituted
}

func (c *CallInst) Operands() []*Value { return c.Args }
func (c *CallInst) SetOperand(i int, v *Value) {
	if i >= 0 && i < len(c.Args) {
		c.Args[i] = v
	}
}
func (c *CallInst) IsTerminator() bool { return false }
func (c *CallInst) Effects() []Effect  { return []Effect{ExternalEffect{}} }
func (c *CallInst) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprintf("%%%d", a.ID)
	}
	ret := "void"
	if c.result != nil {
		ret = c.result.Type.String()
	}
	return fmt.Sprintf("%%%d = call %s(%s) : %s", c.id, c.Callee, strings.Join(parts, ", "), ret)
}

// ---- Side-effecting ----

type AtomicOp string

const (
	AtomicAdd     AtomicOp = "add"
	AtomicExchange AtomicOp = "xchg"
	AtomicCAS     AtomicOp = "cas"
)

type AtomicRMWInst struct {
	base
	Op       AtomicOp
	Addr     *Value
	Val      *Value
	Compare  *Value // only for AtomicCAS
}

func (a *AtomicRMWInst) Operands() []*Value {
	ops := []*Value{a.Addr, a.Val}
	if a.Compare != nil {
		ops = append(ops, a.Compare)
	}
	return ops
}
func (a *AtomicRMWInst) SetOperand(i int, v *Value) {
	switch i {
	case 0:
		a.Addr = v
	case 1:
		a.Val = v
	case 2:
		a.Compare = v
	}
}
func (a *AtomicRMWInst) IsTerminator() bool { return false }
func (a *AtomicRMWInst) Effects() []Effect  { return []Effect{AtomicEffect{}} }
func (a *AtomicRMWInst) String() string {
	return fmt.Sprintf("%%%d = atomic.%s %%%d, %%%d : %s", a.id, a.Op, a.Addr.ID, a.Val.ID, a.result.Type)
}

type BarrierScope string

const (
	BarrierGroup BarrierScope = "group"
	BarrierWarp  BarrierScope = "warp"
)

type BarrierInst struct {
	base
	Scope BarrierScope
}

func (b *BarrierInst) Operands() []*Value     { return nil }
func (b *BarrierInst) SetOperand(int, *Value) {}
func (b *BarrierInst) IsTerminator() bool     { return false }
func (b *BarrierInst) Effects() []Effect      { return []Effect{BarrierEffect{}} }
func (b *BarrierInst) String() string         { return fmt.Sprintf("barrier.%s", b.Scope) }

type ExternalCallInst struct {
	base
	Name string
	Args []*Value
}

func (e *ExternalCallInst) Operands() []*Value { return e.Args }
func (e *ExternalCallInst) SetOperand(i int, v *Value) {
	if i >= 0 && i < len(e.Args) {
		e.Args[i] = v
	}
}
func (e *ExternalCallInst) IsTerminator() bool { return false }
func (e *ExternalCallInst) Effects() []Effect  { return []Effect{ExternalEffect{}} }
func (e *ExternalCallInst) String() string {
	return fmt.Sprintf("%%%d = external %s (%d args)", e.id, e.Name, len(e.Args))
}
