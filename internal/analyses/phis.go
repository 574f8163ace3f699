package analyses

import "kernelc/internal/ir"

// CollectPhis enumerates the phi values whose parent is blk (§4.2).
func CollectPhis(blk *ir.BasicBlock) []*ir.PhiInst {
	return blk.Phis()
}

// AllPhis enumerates every phi in the method, grouped by parent block.
func AllPhis(blocks []*ir.BasicBlock) map[*ir.BasicBlock][]*ir.PhiInst {
	out := make(map[*ir.BasicBlock][]*ir.PhiInst)
	for _, b := range blocks {
		if ps := CollectPhis(b); len(ps) > 0 {
			out[b] = ps
		}
	}
	return out
}

// BlockMap is a sparse map keyed by block, backed by a caller-supplied
// provider for blocks not yet populated (§4.2 "Basic-block map").
type BlockMap[V any] struct {
	values   map[*ir.BasicBlock]V
	provider func(*ir.BasicBlock) V
}

// NewBlockMap creates a BlockMap. provider may be nil, in which case
// Get on a missing key returns the zero value of V.
func NewBlockMap[V any](provider func(*ir.BasicBlock) V) *BlockMap[V] {
	return &BlockMap[V]{values: make(map[*ir.BasicBlock]V), provider: provider}
}

func (m *BlockMap[V]) Get(b *ir.BasicBlock) V {
	if v, ok := m.values[b]; ok {
		return v
	}
	var zero V
	if m.provider != nil {
		v := m.provider(b)
		m.values[b] = v
		return v
	}
	return zero
}

func (m *BlockMap[V]) Set(b *ir.BasicBlock, v V) { m.values[b] = v }

func (m *BlockMap[V]) Has(b *ir.BasicBlock) bool {
	_, ok := m.values[b]
	return ok
}
