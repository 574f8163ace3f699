package cpuil

import (
	"fmt"

	"kernelc/internal/ir"
	"kernelc/internal/transform"
)

// NewTable builds the CPU-IL intrinsic table (§4.5 "CPU-IL backend").
// The in-process executor has no hardware approximations to gate by SM,
// so every entry registers once at SM 0 and resolves to the scalar libm
// op the executor's interpreter implements directly.
func NewTable() *transform.IntrinsicTable {
	t := transform.NewIntrinsicTable()

	for _, name := range []string{"sqrt", "rcp", "sin", "cos", "exp2", "log2", "tanh", "round_to_even", "round_away_from_zero"} {
		n := name
		t.Register(transform.IntrinsicEntry{Name: n, SM: 0, Build: unaryBuilder(n)})
	}
	t.Register(transform.IntrinsicEntry{Name: "ieee_remainder", SM: 0, Build: binaryBuilder("ieee_remainder")})
	t.Register(transform.IntrinsicEntry{Name: "isnan", SM: 0, Build: predicateBuilder("isnan")})
	t.Register(transform.IntrinsicEntry{Name: "isinf", SM: 0, Build: predicateBuilder("isinf")})

	for _, name := range []string{"group_barrier", "warp_shuffle_broadcast", "warp_shuffle_xor", "warp_shuffle_down", "warp_shuffle_up"} {
		n := name
		t.Register(transform.IntrinsicEntry{Name: n, SM: 0, Build: passthroughBuilder(n)})
	}

	return t
}

func unaryBuilder(name string) transform.IntrinsicBuilder {
	return func(b *ir.MethodBuilder, blk *ir.BasicBlock, call *ir.CallInst) *ir.Value {
		if len(call.Args) != 1 || call.Result() == nil {
			panic("cpuil: intrinsic " + name + " requires exactly one argument and a result")
		}
		return b.CreateUnary(ir.UnOp(name), call.Args[0], call.Result().Type)
	}
}

func binaryBuilder(name string) transform.IntrinsicBuilder {
	return func(b *ir.MethodBuilder, blk *ir.BasicBlock, call *ir.CallInst) *ir.Value {
		if len(call.Args) != 2 || call.Result() == nil {
			panic("cpuil: intrinsic " + name + " requires exactly two arguments and a result")
		}
		return b.CreateBinary(ir.BinOp(name), call.Args[0], call.Args[1])
	}
}

func predicateBuilder(name string) transform.IntrinsicBuilder {
	return func(b *ir.MethodBuilder, blk *ir.BasicBlock, call *ir.CallInst) *ir.Value {
		if len(call.Args) != 1 {
			panic("cpuil: intrinsic " + name + " requires exactly one argument")
		}
		return b.CreateUnary(ir.UnOp(name), call.Args[0], ir.B1)
	}
}

// passthroughBuilder leaves a group/warp intrinsic as a call to its
// cpuil-namespaced name; the executor dispatches it at run time rather
// than the resolver fixing its variable arity at compile time.
func passthroughBuilder(name string) transform.IntrinsicBuilder {
	return func(b *ir.MethodBuilder, blk *ir.BasicBlock, call *ir.CallInst) *ir.Value {
		if call.Result() == nil {
			return nil
		}
		return b.CreateCall(fmt.Sprintf("cpuil.%s", name), call.Args, call.Result().Type)
	}
}
