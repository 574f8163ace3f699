package analyses

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kernelc/internal/ir"
)

// buildLoopMethod builds: entry -> header -> (body -> header | exit)
// a single-entry loop with header, body, and exit blocks.
func buildLoopMethod(t *testing.T) (*ir.Method, map[string]*ir.BasicBlock) {
	t.Helper()
	m := ir.NewMethod("loop1", "f", ir.Void)
	b := ir.NewMethodBuilder(m)

	entry := b.CreateBlock("entry")
	header := b.CreateBlock("header")
	body := b.CreateBlock("body")
	exit := b.CreateBlock("exit")

	b.SetEntry(entry)
	b.SetInsertBlock(entry)
	b.CreateJump(header)

	b.SetInsertBlock(header)
	cond := b.CreateConstInt(ir.B1, 1)
	b.CreateBranch(cond, body, exit)

	b.SetInsertBlock(body)
	b.CreateJump(header)

	b.SetInsertBlock(exit)
	b.CreateReturn(nil)
	b.Commit()

	return m, map[string]*ir.BasicBlock{
		"entry": entry, "header": header, "body": body, "exit": exit,
	}
}

func TestReversePostOrderIsATotalOrderFromEntry(t *testing.T) {
	m, blocks := buildLoopMethod(t)
	rpo := ReversePostOrder(m.Entry)

	require.Len(t, rpo, 4)
	assert.Equal(t, blocks["entry"], rpo[0])

	pos := make(map[*ir.BasicBlock]int)
	for i, b := range rpo {
		pos[b] = i
	}
	assert.Less(t, pos[blocks["header"]], pos[blocks["body"]])
}

func TestDominatorsForwardDirection(t *testing.T) {
	m, blocks := buildLoopMethod(t)
	dom := Dominators(m.Entry, false)

	assert.True(t, dom.Dominates(blocks["entry"], blocks["header"]))
	assert.True(t, dom.Dominates(blocks["header"], blocks["body"]))
	assert.True(t, dom.Dominates(blocks["header"], blocks["exit"]))
	assert.False(t, dom.Dominates(blocks["body"], blocks["exit"]))
	assert.Equal(t, blocks["header"], dom.ImmediateDominator(blocks["body"]))
}

func TestLoopNestFindsSingleEntryLoop(t *testing.T) {
	m, blocks := buildLoopMethod(t)
	loops := LoopNest(m.Entry, m.Blocks)

	require.Len(t, loops, 1)
	l := loops[0]
	assert.Equal(t, blocks["header"], l.Header)
	assert.True(t, l.Contains(blocks["header"]))
	assert.True(t, l.Contains(blocks["body"]))
	assert.False(t, l.Contains(blocks["exit"]))
	assert.False(t, l.MultiEntry)
	require.Len(t, l.Exits, 1)
	assert.Equal(t, blocks["header"], l.Exits[0])
}

func TestBlockMapProvider(t *testing.T) {
	m, blocks := buildLoopMethod(t)
	_ = m
	calls := 0
	bm := NewBlockMap[int](func(b *ir.BasicBlock) int {
		calls++
		return len(b.Predecessors)
	})

	assert.Equal(t, 2, bm.Get(blocks["header"]))
	assert.Equal(t, 2, bm.Get(blocks["header"]))
	assert.Equal(t, 1, calls, "provider should be invoked once and then cached")
}
