package analyses

import "kernelc/internal/ir"

// DominatorTree is the immutable result of dominator computation in
// one direction (§4.2). Forward dominance uses Successors/entry;
// reverse (post-)dominance uses Predecessors and a virtual exit,
// following the same algorithm with edges flipped.
type DominatorTree struct {
	reverse bool
	idom    map[*ir.BasicBlock]*ir.BasicBlock
	order   []*ir.BasicBlock // RPO of the direction this tree was built in
	index   map[*ir.BasicBlock]int
}

func edges(b *ir.BasicBlock, reverse bool) []*ir.BasicBlock {
	if reverse {
		return b.Predecessors
	}
	return b.Successors
}
func backEdges(b *ir.BasicBlock, reverse bool) []*ir.BasicBlock {
	if reverse {
		return b.Successors
	}
	return b.Predecessors
}

// Dominators computes the dominator tree of m rooted at root, walking
// edges forward (control dominance) or, if reverse is true, walking
// predecessor edges from root (an already-identified virtual exit, or
// any single block acting as the post-dominance root for the region
// being analyzed).
//
// Implements the Cooper/Harvey/Kennedy iterative algorithm ("A Simple,
// Fast Dominance Algorithm"), generalized to work in either direction
// rather than the teacher's single forward-only DominatedBy field.
func Dominators(root *ir.BasicBlock, reverse bool) *DominatorTree {
	order := rpoDirectional(root, reverse)
	index := make(map[*ir.BasicBlock]int, len(order))
	for i, b := range order {
		index[b] = i
	}

	idom := make(map[*ir.BasicBlock]*ir.BasicBlock, len(order))
	idom[root] = root

	changed := true
	for changed {
		changed = false
		for _, b := range order {
			if b == root {
				continue
			}
			var newIdom *ir.BasicBlock
			for _, p := range backEdges(b, reverse) {
				if idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p, idom, index)
			}
			if newIdom != nil && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	return &DominatorTree{reverse: reverse, idom: idom, order: order, index: index}
}

func intersect(a, b *ir.BasicBlock, idom map[*ir.BasicBlock]*ir.BasicBlock, index map[*ir.BasicBlock]int) *ir.BasicBlock {
	for a != b {
		for index[a] > index[b] {
			a = idom[a]
		}
		for index[b] > index[a] {
			b = idom[b]
		}
	}
	return a
}

func rpoDirectional(root *ir.BasicBlock, reverse bool) []*ir.BasicBlock {
	visited := make(map[*ir.BasicBlock]bool)
	var post []*ir.BasicBlock
	var visit func(b *ir.BasicBlock)
	visit = func(b *ir.BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, n := range edges(b, reverse) {
			visit(n)
		}
		post = append(post, b)
	}
	visit(root)
	out := make([]*ir.BasicBlock, len(post))
	for i, b := range post {
		out[len(post)-1-i] = b
	}
	return out
}

// ImmediateDominator returns b's immediate dominator, or nil if b is
// unreachable from the tree's root.
func (t *DominatorTree) ImmediateDominator(b *ir.BasicBlock) *ir.BasicBlock {
	if _, ok := t.idom[b]; !ok {
		return nil
	}
	return t.idom[b]
}

// Dominates reports whether a dominates b (every path from the root to
// b passes through a), per §4.2 "A dominates B" queries.
func (t *DominatorTree) Dominates(a, b *ir.BasicBlock) bool {
	if _, ok := t.idom[b]; !ok {
		return false
	}
	for cur := b; ; {
		if cur == a {
			return true
		}
		next := t.idom[cur]
		if next == cur {
			return cur == a
		}
		cur = next
	}
}
