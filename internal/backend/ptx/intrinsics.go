package ptx

import (
	"fmt"

	"kernelc/internal/ir"
	"kernelc/internal/transform"
)

// NewTable builds the PTX intrinsic table (§4.5 "PTX backend"): unary
// math, a binary IEEE remainder, predicates, and round-mode redirects,
// each registered first as an SM-0 software fallback and, where CUDA
// exposes a native instruction, a higher-SM hardware form that
// replaces it on targets meeting that SM; below it the fallback still
// resolves (last-registration-wins per name, §4.3 item 2).
func NewTable() *transform.IntrinsicTable {
	t := transform.NewIntrinsicTable()

	unary := []struct {
		name, soft, hw string
		hwSM           int
	}{
		{"sqrt", "sqrt.rn", "sqrt.approx", 20},
		{"rcp", "rcp.rn", "rcp.approx", 20},
		{"sin", "sin.approx", "", 0},
		{"cos", "cos.approx", "", 0},
		{"exp2", "ex2.approx", "", 0},
		{"log2", "lg2.approx", "", 0},
		{"tanh", "tanh.approx", "", 75},
	}
	for _, u := range unary {
		name, op := u.name, u.soft
		t.Register(transform.IntrinsicEntry{Name: name, SM: 0, Build: unaryBuilder(op)})
		if u.hw != "" {
			hwOp := u.hw
			t.Register(transform.IntrinsicEntry{Name: name, SM: u.hwSM, Build: unaryBuilder(hwOp)})
		}
	}

	t.Register(transform.IntrinsicEntry{Name: "ieee_remainder", SM: 0, Build: binaryBuilder("rem.f")})

	t.Register(transform.IntrinsicEntry{Name: "isnan", SM: 0, Build: predicateBuilder("testp.notanumber")})
	t.Register(transform.IntrinsicEntry{Name: "isinf", SM: 0, Build: predicateBuilder("testp.infinite")})

	t.Register(transform.IntrinsicEntry{Name: "round_to_even", SM: 0, Build: unaryBuilder("cvt.rni")})
	t.Register(transform.IntrinsicEntry{Name: "round_away_from_zero", SM: 0, Build: unaryBuilder("cvt.rmi")})

	// Group/warp intrinsics map to device-supplied extension methods;
	// the resolver only needs to mark them resolved, the actual
	// register/instruction wiring happens in the textual emitter since
	// it has no fixed arity (shfl takes a lane-selector operand).
	for _, name := range []string{"group_barrier", "warp_shuffle_broadcast", "warp_shuffle_xor", "warp_shuffle_down", "warp_shuffle_up"} {
		n := name
		t.Register(transform.IntrinsicEntry{Name: n, SM: 0, Build: passthroughBuilder(n)})
	}

	return t
}

func unaryBuilder(mnemonic string) transform.IntrinsicBuilder {
	return func(b *ir.MethodBuilder, blk *ir.BasicBlock, call *ir.CallInst) *ir.Value {
		if len(call.Args) != 1 || call.Result() == nil {
			panic("ptx: intrinsic " + mnemonic + " requires exactly one argument and a result")
		}
		return b.CreateUnary(ir.UnOp(mnemonic), call.Args[0], call.Result().Type)
	}
}

func binaryBuilder(mnemonic string) transform.IntrinsicBuilder {
	return func(b *ir.MethodBuilder, blk *ir.BasicBlock, call *ir.CallInst) *ir.Value {
		if len(call.Args) != 2 || call.Result() == nil {
			panic("ptx: intrinsic " + mnemonic + " requires exactly two arguments and a result")
		}
		return b.CreateBinary(ir.BinOp(mnemonic), call.Args[0], call.Args[1])
	}
}

func predicateBuilder(mnemonic string) transform.IntrinsicBuilder {
	return func(b *ir.MethodBuilder, blk *ir.BasicBlock, call *ir.CallInst) *ir.Value {
		if len(call.Args) != 1 {
			panic("ptx: intrinsic " + mnemonic + " requires exactly one argument")
		}
		return b.CreateUnary(ir.UnOp(mnemonic), call.Args[0], ir.B1)
	}
}

// passthroughBuilder leaves a group/warp intrinsic call in the IR as a
// call to its device-extension name, since the textual emitter (not
// the resolver) is what fixes up its variable arity at print time.
func passthroughBuilder(name string) transform.IntrinsicBuilder {
	return func(b *ir.MethodBuilder, blk *ir.BasicBlock, call *ir.CallInst) *ir.Value {
		if call.Result() == nil {
			return nil
		}
		return b.CreateCall(fmt.Sprintf("ptx.%s", name), call.Args, call.Result().Type)
	}
}
