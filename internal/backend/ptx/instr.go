package ptx

import (
	"fmt"
	"strings"

	"kernelc/internal/ir"
)

// regPrefix picks the PTX register class (.reg .pred %p, .s32 %r,
// .s64 %rd, .f32 %f, .f64 %fd) a value's IR type maps onto.
func regPrefix(t ir.Type) string {
	switch p := t.(type) {
	case *ir.PrimitiveType:
		switch p.Kind {
		case ir.Bool:
			return "p"
		case ir.Float32, ir.Float16:
			return "f"
		case ir.Float64:
			return "fd"
		case ir.Int64:
			return "rd"
		default:
			return "r"
		}
	case *ir.PointerType:
		return "rd"
	default:
		return "rd"
	}
}

func reg(v *ir.Value) string {
	return fmt.Sprintf("%%%s%d", regPrefix(v.Type), v.ID)
}

func ptxSuffix(t ir.Type) string {
	p, ok := t.(*ir.PrimitiveType)
	if !ok {
		return "u64"
	}
	switch p.Kind {
	case ir.Int8:
		return "s8"
	case ir.Int16:
		return "s16"
	case ir.Int32:
		return "s32"
	case ir.Int64:
		return "s64"
	case ir.Float16:
		return "f16"
	case ir.Float32:
		return "f32"
	case ir.Float64:
		return "f64"
	case ir.Bool:
		return "pred"
	}
	return "u64"
}

var binMnemonic = map[ir.BinOp]string{
	ir.OpAddI: "add", ir.OpSubI: "sub", ir.OpMulI: "mul.lo",
	ir.OpSDiv: "div.s", ir.OpUDiv: "div.u", ir.OpSRem: "rem.s", ir.OpURem: "rem.u",
	ir.OpAddF: "add", ir.OpSubF: "sub", ir.OpMulF: "mul", ir.OpDivF: "div.rn", ir.OpRemF: "rem",
	ir.OpAnd: "and.b", ir.OpOr: "or.b", ir.OpXor: "xor.b",
	ir.OpShl: "shl.b", ir.OpLShr: "shr.u", ir.OpAShr: "shr.s",
	ir.OpICmpEQ: "setp.eq", ir.OpICmpNE: "setp.ne",
	ir.OpICmpSLT: "setp.lt", ir.OpICmpSLE: "setp.le", ir.OpICmpSGT: "setp.gt", ir.OpICmpSGE: "setp.ge",
	ir.OpICmpULT: "setp.lo", ir.OpICmpULE: "setp.ls", ir.OpICmpUGT: "setp.hi", ir.OpICmpUGE: "setp.hs",
	ir.OpFCmpEQ: "setp.eq", ir.OpFCmpNE: "setp.neu",
	ir.OpFCmpLT: "setp.lt", ir.OpFCmpLE: "setp.le", ir.OpFCmpGT: "setp.gt", ir.OpFCmpGE: "setp.ge",
}

var unMnemonic = map[ir.UnOp]string{
	ir.OpNegI: "neg", ir.OpNegF: "neg", ir.OpNot: "not",
	ir.OpSIToFP: "cvt.rn", ir.OpUIToFP: "cvt.rn", ir.OpFPToSI: "cvt.rzi", ir.OpFPToUI: "cvt.rzi",
	ir.OpTrunc: "cvt", ir.OpSExt: "cvt", ir.OpZExt: "cvt", ir.OpFPExt: "cvt", ir.OpFPTrunc: "cvt.rn",
	ir.OpBitcast: "mov",
}

// emitInst renders one non-terminator, non-phi instruction as PTX
// text. Unrecognized ops fall back to a commented dump of the generic
// IR form, which keeps the output inspectable without failing codegen
// over an instruction no backend-specific case covers yet.
func emitInst(e *emitterAdapter, inst ir.Instruction) {
	switch v := inst.(type) {
	case *ir.BinaryInst:
		mnemonic, ok := binMnemonic[v.Op]
		if !ok {
			e.comment(v.String())
			return
		}
		e.line(fmt.Sprintf("%s.%s %s, %s, %s;", mnemonic, ptxSuffix(v.Result().Type), reg(v.Result()), reg(v.X), reg(v.Y)))

	case *ir.UnaryInst:
		mnemonic, ok := unMnemonic[v.Op]
		if !ok {
			e.comment(v.String())
			return
		}
		e.line(fmt.Sprintf("%s.%s %s, %s;", mnemonic, ptxSuffix(v.Result().Type), reg(v.Result()), reg(v.X)))

	case *ir.LoadInst:
		e.line(fmt.Sprintf("ld.%s %s, [%s];", ptxSuffix(v.Result().Type), reg(v.Result()), reg(v.Addr)))

	case *ir.StoreInst:
		e.line(fmt.Sprintf("st.%s [%s], %s;", ptxSuffix(v.Val.Type), reg(v.Addr), reg(v.Val)))

	case *ir.AllocInst:
		e.comment(fmt.Sprintf("alloc %s -> %s", v.Elem, reg(v.Result())))

	case *ir.LeaInst:
		e.line(fmt.Sprintf("mad.lo.s64 %s, %s, %d, %s;", reg(v.Result()), reg(v.Index), v.Elem.Size(), reg(v.Base)))

	case *ir.SizeOfInst:
		e.line(fmt.Sprintf("mov.s64 %s, %d;", reg(v.Result()), v.Of.Size()))

	case *ir.AlignToInst:
		e.comment(fmt.Sprintf("align.to %s, %d -> %s", reg(v.Addr), v.Align, reg(v.Result())))
		e.line(fmt.Sprintf("mov.u64 %s, %s;", reg(v.Result()), reg(v.Addr)))

	case *ir.PtrCastInst:
		e.line(fmt.Sprintf("mov.u64 %s, %s;", reg(v.Result()), reg(v.Addr)))

	case *ir.AddrSpaceCastInst:
		e.line(fmt.Sprintf("cvta.%s.u64 %s, %s;", v.To, reg(v.Result()), reg(v.Addr)))

	case *ir.PtrToIntInst:
		e.line(fmt.Sprintf("mov.u64 %s, %s;", reg(v.Result()), reg(v.Addr)))

	case *ir.StructBuildInst:
		e.comment("struct.build " + v.String())

	case *ir.GetFieldInst:
		if src, ok := v.Struct.Def.(*ir.StructBuildInst); ok && v.Index < len(src.Fields) {
			e.line(fmt.Sprintf("mov.%s %s, %s;", ptxSuffix(v.Result().Type), reg(v.Result()), reg(src.Fields[v.Index])))
			return
		}
		e.line(fmt.Sprintf("mov.%s %s, %s; // field %d", ptxSuffix(v.Result().Type), reg(v.Result()), reg(v.Struct), v.Index))

	case *ir.CallInst:
		emitCall(e, v)

	case *ir.AtomicRMWInst:
		e.line(fmt.Sprintf("atom.global.%s.%s %s, [%s], %s;", v.Op, ptxSuffix(v.Result().Type), reg(v.Result()), reg(v.Addr), reg(v.Val)))

	case *ir.BarrierInst:
		if v.Scope == ir.BarrierWarp {
			e.line("bar.warp.sync 0xffffffff;")
		} else {
			e.line("bar.sync 0;")
		}

	case *ir.ExternalCallInst:
		e.comment("external " + v.Name)

	default:
		e.comment(inst.String())
	}
}

func emitCall(e *emitterAdapter, c *ir.CallInst) {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = reg(a)
	}
	dst := "_"
	if c.Result() != nil {
		dst = reg(c.Result())
	}
	e.line(fmt.Sprintf("call.uni (%s), %s, (%s);", dst, c.Callee, strings.Join(args, ", ")))
}
