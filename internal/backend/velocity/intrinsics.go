package velocity

import (
	"kernelc/internal/ir"
	"kernelc/internal/transform"
)

// shuffleCallee maps a resolved call's callee name to the shuffle kind
// velocity.go's instLine renders it as (and, downstream, the kind the
// host driver feeds to Shuffle64/ShuffleFloat32/ShuffleFloat64).
var shuffleCallee = map[string]ShuffleKind{
	"velocity.warp_shuffle_broadcast": ShuffleBroadcast,
	"velocity.warp_shuffle_xor":       ShuffleXor,
	"velocity.warp_shuffle_down":      ShuffleDown,
	"velocity.warp_shuffle_up":        ShuffleUp,
}

// NewTable builds the Velocity intrinsic table (§4.5 "Velocity
// backend"). Math intrinsics lower to a plain per-lane scalar op, the
// same as cpuil, since a vectorized CPU kernel runs exact libm per
// lane rather than a hardware approximation. The four warp-shuffle
// intrinsics instead become named calls instLine recognizes directly
// via shuffleCallee, so the host driver can dispatch them into this
// package's shuffle primitives (shuffle.go) instead of interpreting
// generic call syntax.
func NewTable() *transform.IntrinsicTable {
	t := transform.NewIntrinsicTable()

	for _, name := range []string{"sqrt", "rcp", "sin", "cos", "exp2", "log2", "tanh", "round_to_even", "round_away_from_zero"} {
		n := name
		t.Register(transform.IntrinsicEntry{Name: n, SM: 0, Build: unaryBuilder(n)})
	}
	t.Register(transform.IntrinsicEntry{Name: "ieee_remainder", SM: 0, Build: binaryBuilder("ieee_remainder")})
	t.Register(transform.IntrinsicEntry{Name: "isnan", SM: 0, Build: predicateBuilder("isnan")})
	t.Register(transform.IntrinsicEntry{Name: "isinf", SM: 0, Build: predicateBuilder("isinf")})

	t.Register(transform.IntrinsicEntry{Name: "group_barrier", SM: 0, Build: passthroughBuilder("velocity.group_barrier")})
	for warpName := range shuffleCallee {
		t.Register(transform.IntrinsicEntry{Name: warpIntrinsicName(warpName), SM: 0, Build: passthroughBuilder(warpName)})
	}

	return t
}

// warpIntrinsicName strips the "velocity." callee prefix back off to
// recover the source-level intrinsic name the resolver matches calls
// against (e.g. "warp_shuffle_xor").
func warpIntrinsicName(callee string) string {
	return callee[len("velocity."):]
}

func unaryBuilder(name string) transform.IntrinsicBuilder {
	return func(b *ir.MethodBuilder, blk *ir.BasicBlock, call *ir.CallInst) *ir.Value {
		if len(call.Args) != 1 || call.Result() == nil {
			panic("velocity: intrinsic " + name + " requires exactly one argument and a result")
		}
		return b.CreateUnary(ir.UnOp(name), call.Args[0], call.Result().Type)
	}
}

func binaryBuilder(name string) transform.IntrinsicBuilder {
	return func(b *ir.MethodBuilder, blk *ir.BasicBlock, call *ir.CallInst) *ir.Value {
		if len(call.Args) != 2 || call.Result() == nil {
			panic("velocity: intrinsic " + name + " requires exactly two arguments and a result")
		}
		return b.CreateBinary(ir.BinOp(name), call.Args[0], call.Args[1])
	}
}

func predicateBuilder(name string) transform.IntrinsicBuilder {
	return func(b *ir.MethodBuilder, blk *ir.BasicBlock, call *ir.CallInst) *ir.Value {
		if len(call.Args) != 1 {
			panic("velocity: intrinsic " + name + " requires exactly one argument")
		}
		return b.CreateUnary(ir.UnOp(name), call.Args[0], ir.B1)
	}
}

func passthroughBuilder(name string) transform.IntrinsicBuilder {
	return func(b *ir.MethodBuilder, blk *ir.BasicBlock, call *ir.CallInst) *ir.Value {
		if call.Result() == nil {
			return nil
		}
		return b.CreateCall(name, call.Args, call.Result().Type)
	}
}
