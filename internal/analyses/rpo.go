// Package analyses implements the pure, immutable analyses the
// transformation pipeline and backends depend on: dominators, reverse
// post-order, loop nests, and phi collection (§4.2).
package analyses

import "kernelc/internal/ir"

// ReversePostOrder returns the method's blocks in reverse post-order
// starting from entry — the canonical total order used by LICM and
// codegen (§4.2).
func ReversePostOrder(entry *ir.BasicBlock) []*ir.BasicBlock {
	visited := make(map[*ir.BasicBlock]bool)
	var post []*ir.BasicBlock

	var visit func(b *ir.BasicBlock)
	visit = func(b *ir.BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, succ := range b.Successors {
			visit(succ)
		}
		post = append(post, b)
	}
	visit(entry)

	rpo := make([]*ir.BasicBlock, len(post))
	for i, b := range post {
		rpo[len(post)-1-i] = b
	}
	return rpo
}
