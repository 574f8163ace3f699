// Package transform implements the IR→IR transformation pipeline
// (§4.3): a rewriter framework plus view lowering, intrinsic
// resolution, loop-invariant code motion, and phi binding.
package transform

import "kernelc/internal/ir"

// Pass is a single IR→IR transformation. Apply reports whether it
// changed the method, generalizing the teacher's OptimizationPass
// interface (internal/ir/optimizations.go) from EVM-specific passes to
// generic SSA ones.
type Pass interface {
	Name() string
	Description() string
	Apply(m *ir.Method) bool
}

// Pipeline runs an ordered sequence of passes, matching the teacher's
// OptimizationPipeline driver.
type Pipeline struct {
	passes []Pass
	// FixedPoint, if set, re-runs the pipeline until no pass reports a
	// change — used to drive the intrinsic-resolution sub-pipeline to
	// a fixed point (§4.3 item 2).
	FixedPoint bool
	// MaxIterations bounds a fixed-point run so a buggy pass cannot
	// spin forever.
	MaxIterations int
}

// NewPipeline builds a pipeline from the given passes, in order.
func NewPipeline(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes, MaxIterations: 32}
}

// Run executes every pass once (or, if FixedPoint is set, repeatedly
// until none report a change), and returns whether anything changed.
func (p *Pipeline) Run(m *ir.Method) bool {
	changedOverall := false
	iterations := p.MaxIterations
	if iterations <= 0 {
		iterations = 1
	}
	for i := 0; i < iterations; i++ {
		roundChanged := false
		for _, pass := range p.passes {
			if pass.Apply(m) {
				roundChanged = true
				changedOverall = true
			}
		}
		if !p.FixedPoint || !roundChanged {
			break
		}
	}
	return changedOverall
}

// RewriteBlock walks blk's instructions in program order, handing each
// to fn. fn sees an immutable snapshot of the sequence as it existed
// when the walk began (§9 "Iterator suspension"), so rewrites inside
// fn (replace/remove/insert) never perturb iteration.
func RewriteBlock(blk *ir.BasicBlock, fn func(inst ir.Instruction) bool) bool {
	snapshot := append([]ir.Instruction{}, blk.Instructions...)
	if blk.Terminator != nil {
		snapshot = append(snapshot, blk.Terminator)
	}
	changed := false
	for _, inst := range snapshot {
		if fn(inst) {
			changed = true
		}
	}
	return changed
}
