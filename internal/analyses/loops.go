package analyses

import "kernelc/internal/ir"

// Loop describes a single-entry natural loop (§4.2). Header is the
// loop's entry block; Exits are blocks inside
// the loop with a successor outside it; Blocks is the full loop body
// including the header.
type Loop struct {
	Header  *ir.BasicBlock
	Blocks  map[*ir.BasicBlock]bool
	Exits   []*ir.BasicBlock
	BackEdges []BackEdge

	// MultiEntry is true when more than one block in the loop has a
	// predecessor outside the loop other than via the header — such
	// loops are opaque to LICM (§4.2).
	MultiEntry bool
}

// BackEdge is an edge (tail -> header) that closes a natural loop.
type BackEdge struct {
	Tail   *ir.BasicBlock
	Header *ir.BasicBlock
}

// LoopNest discovers every natural loop in the method reachable from
// entry, using the dominator tree to find back edges (an edge b->h
// where h dominates b) and growing each loop body by walking
// predecessors backward from the tail to the header.
func LoopNest(entry *ir.BasicBlock, blocks []*ir.BasicBlock) []*Loop {
	dom := Dominators(entry, false)

	var backEdges []BackEdge
	for _, b := range blocks {
		for _, succ := range b.Successors {
			if dom.Dominates(succ, b) {
				backEdges = append(backEdges, BackEdge{Tail: b, Header: succ})
			}
		}
	}

	byHeader := make(map[*ir.BasicBlock]*Loop)
	var order []*ir.BasicBlock
	for _, be := range backEdges {
		l, ok := byHeader[be.Header]
		if !ok {
			l = &Loop{Header: be.Header, Blocks: map[*ir.BasicBlock]bool{be.Header: true}}
			byHeader[be.Header] = l
			order = append(order, be.Header)
		}
		l.BackEdges = append(l.BackEdges, be)
		growLoopBody(l, be.Tail)
	}

	var loops []*Loop
	for _, h := range order {
		l := byHeader[h]
		computeExitsAndEntry(l)
		loops = append(loops, l)
	}
	return loops
}

func growLoopBody(l *Loop, tail *ir.BasicBlock) {
	if l.Blocks[tail] {
		return
	}
	worklist := []*ir.BasicBlock{tail}
	l.Blocks[tail] = true
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, p := range b.Predecessors {
			if !l.Blocks[p] {
				l.Blocks[p] = true
				worklist = append(worklist, p)
			}
		}
	}
}

func computeExitsAndEntry(l *Loop) {
	for b := range l.Blocks {
		for _, succ := range b.Successors {
			if !l.Blocks[succ] {
				l.Exits = append(l.Exits, b)
			}
		}
		if b == l.Header {
			continue
		}
		for _, p := range b.Predecessors {
			if !l.Blocks[p] {
				l.MultiEntry = true
			}
		}
	}
}

// Contains reports whether b is part of the loop body.
func (l *Loop) Contains(b *ir.BasicBlock) bool { return l.Blocks[b] }
