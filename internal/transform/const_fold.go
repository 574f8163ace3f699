package transform

import "kernelc/internal/ir"

// ConstantFold evaluates binary/unary operations over constant
// operands at compile time, generalizing the teacher's ConstantFolding
// pass (internal/ir/optimizations.go) from its EVM U256/bool value
// space to the primitive int/float/bool kinds this IR carries.
type ConstantFold struct{}

func (ConstantFold) Name() string        { return "ConstantFold" }
func (ConstantFold) Description() string { return "evaluates constant arithmetic at compile time" }

func (ConstantFold) Apply(m *ir.Method) bool {
	changed := false
	for _, blk := range m.Blocks {
		if RewriteBlock(blk, func(inst ir.Instruction) bool {
			return foldOne(m, blk, inst)
		}) {
			changed = true
		}
	}
	return changed
}

func foldOne(m *ir.Method, blk *ir.BasicBlock, inst ir.Instruction) bool {
	b := ir.NewMethodBuilder(m)
	b.SetInsertBlock(blk)
	b.AcceptControlFlowUpdates(true)

	switch v := inst.(type) {
	case *ir.BinaryInst:
		xi, xok := constIntOf(v.X)
		yi, yok := constIntOf(v.Y)
		if xok && yok {
			if folded, ok := foldIntBinary(v.Op, xi, yi, v.Result().Type); ok {
				b.Replace(v.Result(), folded(b))
				b.Remove(v)
				return true
			}
		}
		xf, xfok := constFloatOf(v.X)
		yf, yfok := constFloatOf(v.Y)
		if xfok && yfok {
			if folded, ok := foldFloatBinary(v.Op, xf, yf, v.Result().Type); ok {
				b.Replace(v.Result(), folded(b))
				b.Remove(v)
				return true
			}
		}
	case *ir.UnaryInst:
		if xi, ok := constIntOf(v.X); ok {
			if folded, ok := foldIntUnary(v.Op, xi, v.Result().Type); ok {
				b.Replace(v.Result(), folded(b))
				b.Remove(v)
				return true
			}
		}
	}
	return false
}

func constIntOf(v *ir.Value) (int64, bool) {
	if v == nil {
		return 0, false
	}
	c, ok := v.Def.(*ir.ConstInt)
	if !ok {
		return 0, false
	}
	return c.Val, true
}

func constFloatOf(v *ir.Value) (float64, bool) {
	if v == nil {
		return 0, false
	}
	c, ok := v.Def.(*ir.ConstFloat)
	if !ok {
		return 0, false
	}
	return c.Val, true
}

func foldIntBinary(op ir.BinOp, x, y int64, typ ir.Type) (func(*ir.MethodBuilder) *ir.Value, bool) {
	mk := func(val int64) func(*ir.MethodBuilder) *ir.Value {
		return func(b *ir.MethodBuilder) *ir.Value { return b.CreateConstInt(typ, val) }
	}
	mkBool := func(val bool) func(*ir.MethodBuilder) *ir.Value {
		return func(b *ir.MethodBuilder) *ir.Value {
			n := int64(0)
			if val {
				n = 1
			}
			return b.CreateConstInt(ir.B1, n)
		}
	}
	switch op {
	case ir.OpAddI:
		return mk(x + y), true
	case ir.OpSubI:
		return mk(x - y), true
	case ir.OpMulI:
		return mk(x * y), true
	case ir.OpSDiv:
		if y == 0 {
			return nil, false
		}
		return mk(x / y), true
	case ir.OpSRem:
		if y == 0 {
			return nil, false
		}
		return mk(x % y), true
	case ir.OpAnd:
		return mk(x & y), true
	case ir.OpOr:
		return mk(x | y), true
	case ir.OpXor:
		return mk(x ^ y), true
	case ir.OpShl:
		return mk(x << uint(y)), true
	case ir.OpICmpEQ:
		return mkBool(x == y), true
	case ir.OpICmpNE:
		return mkBool(x != y), true
	case ir.OpICmpSLT:
		return mkBool(x < y), true
	case ir.OpICmpSLE:
		return mkBool(x <= y), true
	case ir.OpICmpSGT:
		return mkBool(x > y), true
	case ir.OpICmpSGE:
		return mkBool(x >= y), true
	}
	return nil, false
}

func foldFloatBinary(op ir.BinOp, x, y float64, typ ir.Type) (func(*ir.MethodBuilder) *ir.Value, bool) {
	mk := func(val float64) func(*ir.MethodBuilder) *ir.Value {
		return func(b *ir.MethodBuilder) *ir.Value { return b.CreateConstFloat(typ, val) }
	}
	switch op {
	case ir.OpAddF:
		return mk(x + y), true
	case ir.OpSubF:
		return mk(x - y), true
	case ir.OpMulF:
		return mk(x * y), true
	case ir.OpDivF:
		if y == 0 {
			return nil, false
		}
		return mk(x / y), true
	}
	return nil, false
}

func foldIntUnary(op ir.UnOp, x int64, typ ir.Type) (func(*ir.MethodBuilder) *ir.Value, bool) {
	switch op {
	case ir.OpNegI:
		return func(b *ir.MethodBuilder) *ir.Value { return b.CreateConstInt(typ, -x) }, true
	case ir.OpNot:
		return func(b *ir.MethodBuilder) *ir.Value {
			n := int64(0)
			if x == 0 {
				n = 1
			}
			return b.CreateConstInt(typ, n)
		}, true
	}
	return nil, false
}
