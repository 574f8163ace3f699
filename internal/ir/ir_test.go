package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicBlockSingleTerminator(t *testing.T) {
	m := NewMethod("m1", "f", Void)
	b := NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	b.SetEntry(entry)
	b.SetInsertBlock(entry)
	b.CreateReturn(nil)
	require.NoError(t, CheckInvariants(m))

	assert.Panics(t, func() {
		b.CreateReturn(nil)
	}, "inserting a second terminator must be rejected")
}

func TestConstantInterning(t *testing.T) {
	m := NewMethod("m2", "f", Void)
	b := NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	b.SetEntry(entry)
	b.SetInsertBlock(entry)

	a := b.CreateConstInt(I32, 42)
	c := b.CreateConstInt(I32, 42)
	assert.True(t, ValueEqual(a, c), "equal constants must share identity")

	d := b.CreateConstInt(I64, 42)
	assert.False(t, ValueEqual(a, d), "constants of different type must not be interned together")
}

func TestReplaceRewiresUses(t *testing.T) {
	m := NewMethod("m3", "f", Void)
	b := NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	b.SetEntry(entry)
	b.SetInsertBlock(entry)

	x := b.CreateConstInt(I32, 1)
	y := b.CreateConstInt(I32, 2)
	sum := b.CreateBinary(OpAddI, x, y)
	_ = b.CreateUnary(OpNegI, sum, I32)

	replacement := b.CreateConstInt(I32, 3)
	b.Replace(sum, replacement)

	assert.Empty(t, sum.Uses())
	assert.NotEmpty(t, replacement.Uses())
}

func TestRemoveRequiresZeroUses(t *testing.T) {
	m := NewMethod("m4", "f", Void)
	b := NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	b.SetEntry(entry)
	b.SetInsertBlock(entry)

	x := b.CreateConstInt(I32, 1)
	y := b.CreateConstInt(I32, 2)
	sum := b.CreateBinary(OpAddI, x, y)

	assert.Panics(t, func() {
		b.Remove(x.Def)
	}, "removing a value with remaining uses must be fatal")

	b.Remove(sum.Def)
	assert.NotContains(t, entry.Instructions, sum.Def)
}

func TestPhiArityMatchesPredecessors(t *testing.T) {
	m := NewMethod("m5", "f", I32)
	b := NewMethodBuilder(m)
	entry := b.CreateBlock("entry")
	left := b.CreateBlock("left")
	right := b.CreateBlock("right")
	join := b.CreateBlock("join")

	b.SetEntry(entry)
	b.SetInsertBlock(entry)
	cond := b.CreateConstInt(B1, 1)
	b.CreateBranch(cond, left, right)

	b.SetInsertBlock(left)
	one := b.CreateConstInt(I32, 1)
	b.CreateJump(join)

	b.SetInsertBlock(right)
	two := b.CreateConstInt(I32, 2)
	b.CreateJump(join)

	b.SetInsertBlock(join)
	phi := b.CreatePhi(join, I32, []PhiSource{
		{Pred: left, Val: one},
		{Pred: right, Val: two},
	})
	b.CreateReturn(phi)
	b.Commit()

	require.NoError(t, CheckInvariants(m))
}

func TestContainsView(t *testing.T) {
	vt := &ViewType{Elem: F32, Space: AddrGlobal}
	assert.True(t, ContainsView(vt))
	assert.True(t, ContainsView(&PointerType{Elem: vt}))
	assert.False(t, ContainsView(I32))

	st := NewViewStructType(vt)
	assert.False(t, ContainsView(st), "a lowered view struct must not itself report as containing a view")
}
