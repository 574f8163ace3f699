package transform

import (
	"kernelc/internal/analyses"
	"kernelc/internal/ir"
)

// LowerPointerViews replaces every View<T,AS> with a two-field
// structure {ptr: Pointer<T,AS>, length: int64} (§4.3 item 1). It is
// idempotent: once no value has a view type, a second run is a no-op.
type LowerPointerViews struct{}

func (LowerPointerViews) Name() string { return "LowerPointerViews" }
func (LowerPointerViews) Description() string {
	return "replaces View<T,AS> values with {ptr, length} structures"
}

func (lp LowerPointerViews) Apply(m *ir.Method) bool {
	changed := false
	for _, p := range m.Params {
		if vt, ok := p.Type.(*ir.ViewType); ok {
			p.Type = ir.NewViewStructType(vt)
			changed = true
		}
	}
	// Walk in reverse post-order so a view's defining instruction is
	// always lowered before a use in a later block sees it, matching
	// the way def-use chains are expected to flow in reducible CFGs.
	order := m.Blocks
	if m.Entry != nil {
		order = analyses.ReversePostOrder(m.Entry)
	}
	for _, blk := range order {
		if RewriteBlock(blk, func(inst ir.Instruction) bool {
			return lp.lowerInstruction(m, blk, inst)
		}) {
			changed = true
		}
	}
	return changed
}

func (LowerPointerViews) lowerInstruction(m *ir.Method, blk *ir.BasicBlock, inst ir.Instruction) bool {
	b := ir.NewMethodBuilder(m)
	b.SetInsertBlock(blk)
	b.AcceptControlFlowUpdates(true)

	switch v := inst.(type) {
	case *ir.NewViewInst:
		// new_view(ptr, len) -> build the {ptr, length} structure.
		vt := v.Result().Type.(*ir.ViewType)
		st := ir.NewViewStructType(vt)
		built := b.CreateStructBuild(st, []*ir.Value{v.Ptr, v.Len})
		b.Replace(v.Result(), built)
		b.Remove(v)
		return true

	case *ir.ViewLenInst:
		// get_view_length(v) -> extract field 1, converted to the
		// requested integer width.
		raw := b.CreateGetField(v.View, 1)
		target := v.Result().Type
		var converted *ir.Value
		if ir.TypeEqual(raw.Type, target) {
			converted = raw
		} else {
			converted = b.CreateUnary(convertOp(raw.Type, target), raw, target)
		}
		b.Replace(v.Result(), converted)
		b.Remove(v)
		return true

	case *ir.SubViewInst:
		// sub_view(v, off, len) -> {lea(v.ptr, off), convert(len, i64)}
		ptr := b.CreateGetField(v.View, 0)
		newPtr := b.CreateLea(ptr, v.Offset)
		lenConv := v.Length
		if !ir.TypeEqual(v.Length.Type, ir.I64) {
			lenConv = b.CreateUnary(convertOp(v.Length.Type, ir.I64), v.Length, ir.I64)
		}
		st := v.View.Type.(*ir.StructType)
		built := b.CreateStructBuild(st, []*ir.Value{newPtr, lenConv})
		b.Replace(v.Result(), built)
		b.Remove(v)
		return true

	case *ir.AddrSpaceCastInst:
		// only rewrite when operating on an already-lowered view
		// struct: address_space_cast(v, AS') -> {as_cast(v.ptr, AS'), v.len}
		st, ok := v.Addr.Type.(*ir.StructType)
		if !ok || st.Name != "View" {
			return false
		}
		ptr := b.CreateGetField(v.Addr, 0)
		length := b.CreateGetField(v.Addr, 1)
		newPtr := b.CreateAddrSpaceCast(ptr, v.To)
		built := b.CreateStructBuild(&ir.StructType{Name: "View", Fields: []ir.StructField{
			{Name: "ptr", Type: newPtr.Type},
			{Name: "length", Type: ir.I64},
		}}, []*ir.Value{newPtr, length})
		b.Replace(v.Result(), built)
		b.Remove(v)
		return true

	case *ir.ViewCastInst:
		// view_cast<E1>(v) -> {pointer_cast(v.ptr, E1),
		//   v.len * sizeof(E) / sizeof(E1)} (long arithmetic, rounds
		//   toward zero).
		origSt := v.View.Type.(*ir.StructType)
		origPtrType := origSt.Fields[0].Type.(*ir.PointerType)
		ptr := b.CreateGetField(v.View, 0)
		length := b.CreateGetField(v.View, 1)
		newPtr := b.CreatePtrCast(ptr, &ir.PointerType{Elem: v.ElemType, Space: origPtrType.Space})

		fromSize := b.CreateConstInt(ir.I64, origPtrType.Elem.Size())
		toSize := b.CreateConstInt(ir.I64, v.ElemType.Size())
		scaled := b.CreateBinary(ir.OpMulI, length, fromSize)
		newLen := b.CreateBinary(ir.OpSDiv, scaled, toSize)

		newSt := ir.NewViewStructType(&ir.ViewType{Elem: v.ElemType, Space: origPtrType.Space})
		built := b.CreateStructBuild(newSt, []*ir.Value{newPtr, newLen})
		b.Replace(v.Result(), built)
		b.Remove(v)
		return true

	case *ir.AlignToViewInst:
		// align_to(v, a): a prefix of length
		//   min((aligned_ptr - ptr)/sizeof(E), v.len) starting at ptr,
		// and a suffix starting at aligned_ptr with the remaining
		// length.
		origSt := v.View.Type.(*ir.StructType)
		ptrType := origSt.Fields[0].Type.(*ir.PointerType)
		ptr := b.CreateGetField(v.View, 0)
		length := b.CreateGetField(v.View, 1)

		alignedPtr := b.CreateAlignToPtr(ptr, v.Align)
		ptrAsInt := b.CreatePtrToInt(ptr, ir.I64)
		alignedAsInt := b.CreatePtrToInt(alignedPtr, ir.I64)
		byteDelta := b.CreateBinary(ir.OpSubI, alignedAsInt, ptrAsInt)
		elemSize := b.CreateConstInt(ir.I64, ptrType.Elem.Size())
		deltaElems := b.CreateBinary(ir.OpSDiv, byteDelta, elemSize)

		prefixLen := branchlessMin(b, deltaElems, length)
		suffixLen := b.CreateBinary(ir.OpSubI, length, prefixLen)

		prefix := b.CreateStructBuild(origSt, []*ir.Value{ptr, prefixLen})
		suffix := b.CreateStructBuild(origSt, []*ir.Value{alignedPtr, suffixLen})

		pairType := v.Result().Type.(*ir.StructType)
		built := b.CreateStructBuild(pairType, []*ir.Value{prefix, suffix})
		b.Replace(v.Result(), built)
		b.Remove(v)
		return true

	case *ir.AsAlignedViewInst:
		// as_aligned(v, a) -> {assert_aligned(v.ptr, a), v.len},
		// conveying alignment knowledge to the backend without
		// changing the pointer or length values themselves.
		origSt := v.View.Type.(*ir.StructType)
		ptr := b.CreateGetField(v.View, 0)
		length := b.CreateGetField(v.View, 1)
		asserted := b.CreateAlignToPtr(ptr, v.Align)
		built := b.CreateStructBuild(origSt, []*ir.Value{asserted, length})
		b.Replace(v.Result(), built)
		b.Remove(v)
		return true
	}
	return false
}

// branchlessMin computes min(a, b) for signed 64-bit operands without
// introducing control flow, since this lowering runs on an instruction
// in the middle of an already-terminated block: diff = a-b is negative
// (arithmetic-shifts to all-ones) exactly when a<b, so
// b + (diff & (diff>>63)) picks a when a<b and b otherwise.
func branchlessMin(b *ir.MethodBuilder, a, v *ir.Value) *ir.Value {
	diff := b.CreateBinary(ir.OpSubI, a, v)
	shiftAmt := b.CreateConstInt(ir.I64, int64(a.Type.Size()*8-1))
	mask := b.CreateBinary(ir.OpAShr, diff, shiftAmt)
	masked := b.CreateBinary(ir.OpAnd, diff, mask)
	return b.CreateBinary(ir.OpAddI, v, masked)
}

func convertOp(from, to ir.Type) ir.UnOp {
	fp, fromFloat := from.(*ir.PrimitiveType)
	tp, toFloat := to.(*ir.PrimitiveType)
	if fromFloat && toFloat {
		if fp.IsFloat() && tp.IsFloat() {
			if fp.Size() < tp.Size() {
				return ir.OpFPExt
			}
			return ir.OpFPTrunc
		}
		if fp.IsInteger() && tp.IsInteger() {
			if fp.Size() < tp.Size() {
				return ir.OpSExt
			}
			return ir.OpTrunc
		}
	}
	return ir.OpBitcast
}
