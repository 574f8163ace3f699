package main

import (
	"fmt"

	"kernelc/internal/backend"
	"kernelc/internal/backend/cpuil"
	"kernelc/internal/backend/ptx"
	"kernelc/internal/backend/velocity"
	"kernelc/internal/ir"
	"kernelc/internal/transform"
)

// namedBackend pairs a backend.Backend with the intrinsic table it
// resolves against, so selectBackend can hand both back from one name.
type namedBackend struct {
	compile func(m *ir.Method, bindings *transform.PhiBindings) (*backend.CompiledKernel, error)
	table   *transform.IntrinsicTable
}

func selectBackend(name string) (namedBackend, error) {
	switch name {
	case "cpuil":
		var b cpuil.Backend
		return namedBackend{compile: b.Compile, table: cpuil.NewTable()}, nil
	case "ptx":
		var b ptx.Backend
		return namedBackend{compile: b.Compile, table: ptx.NewTable()}, nil
	case "velocity":
		var b velocity.Backend
		return namedBackend{compile: b.Compile, table: velocity.NewTable()}, nil
	default:
		return namedBackend{}, fmt.Errorf("unknown backend %q (want cpuil, ptx or velocity)", name)
	}
}

// lower runs the required transformation pipeline (§4.3) against a
// fresh copy of a demo method: constant folding, view lowering, LICM,
// intrinsic resolution to a fixed point, then dead-code elimination.
func lower(m *ir.Method, table *transform.IntrinsicTable) *transform.PhiBindings {
	core := transform.NewPipeline(
		transform.ConstantFold{},
		transform.LowerPointerViews{},
		transform.LoopInvariantCodeMotion{},
	)
	core.Run(m)

	resolver := &transform.IntrinsicResolver{Table: table, TargetSM: 0}
	fixedPoint := transform.NewPipeline(resolver)
	fixedPoint.FixedPoint = true
	fixedPoint.Run(m)

	transform.NewPipeline(transform.DeadCodeElimination{}).Run(m)

	return transform.ComputePhiBindings(m)
}
