package hostdriver

import (
	"fmt"
	"math"

	"kernelc/internal/backend/velocity"
	kerrors "kernelc/internal/errors"
	"kernelc/internal/ir"
	"kernelc/internal/runtime"
)

// hostPtr is the interpreter's notion of a typed address: an offset
// into one hostBuffer's backing bytes. Pointer arithmetic (lea,
// align_to) produces new hostPtr values rather than raw integers, so
// using a non-pointer value as an address fails its type assertion and
// surfaces as an UnsupportedOperation error rather than silent memory
// corruption.
type hostPtr struct {
	buf    *hostBuffer
	offset int64
	elem   ir.Type
}

// interpret runs method in lockstep across the launch's threads: one
// instruction is evaluated for every lane of a lane vector before the
// interpreter advances to the next, mirroring how the Velocity backend
// actually executes (§4.5) and giving group_barrier/warp_shuffle_*
// their natural meaning (every lane's state is visible at each step).
//
// Divergent (non-uniform) branches across lanes are not executable by
// this interpreter and fail UnsupportedOperation — real warp divergence
// handling is outside the testable properties this repository targets.
func interpret(method *ir.Method, cfg runtime.LaunchConfig, args []runtime.Buffer) error {
	numGroups := cfg.Grid.Count()
	groupSize := cfg.Group.Count()
	if method.ImplicitGroup {
		numGroups = 1
		groupSize = cfg.Grid.Count()
	}
	if groupSize <= 0 {
		groupSize = 1
	}

	for g := int64(0); g < numGroups; g++ {
		if err := interpretGroup(method, int(g), int(groupSize), args); err != nil {
			return err
		}
	}
	return nil
}

func interpretGroup(method *ir.Method, groupID, groupSize int, args []runtime.Buffer) error {
	regs := make([]map[int]any, groupSize)
	for i := range regs {
		regs[i] = make(map[int]any)
	}

	argi := 0
	for _, p := range method.Params {
		if p.Value == nil {
			continue
		}
		if argi >= len(args) {
			return kerrors.InvalidIRError(kerrors.Position{Method: method.Name}, fmt.Sprintf("launch supplied %d arguments, method expects at least %d", len(args), argi+1)).Build()
		}
		buf, ok := args[argi].Handle.(*hostBuffer)
		if !ok {
			return kerrors.InvalidIRError(kerrors.Position{Method: method.Name}, "argument buffer was not allocated by this driver").Build()
		}
		elem := elemType(p.Type)
		for lane := range regs {
			regs[lane][p.Value.ID] = &hostPtr{buf: buf, offset: 0, elem: elem}
		}
		argi++
	}

	blk := method.Entry
	var prev *ir.BasicBlock
	for blk != nil {
		for _, inst := range blk.Instructions {
			if phi, ok := inst.(*ir.PhiInst); ok {
				src := phi.ValueFor(prev)
				for lane := range regs {
					regs[lane][phi.ID()] = regs[lane][src.ID]
				}
				continue
			}
			if err := execInst(method, inst, regs, groupID, groupSize); err != nil {
				return err
			}
		}
		next, err := execTerminator(method, blk, regs, groupID, groupSize)
		if err != nil {
			return err
		}
		prev = blk
		blk = next
	}
	return nil
}

func elemType(t ir.Type) ir.Type {
	if p, ok := t.(*ir.PointerType); ok {
		return p.Elem
	}
	return t
}

func pos(method *ir.Method, inst ir.Instruction) kerrors.Position {
	p := kerrors.Position{Method: method.Name}
	if b := inst.Block(); b != nil {
		p.Block = b.Label
	}
	p.Value = inst.ID()
	return p
}

func unsupported(method *ir.Method, inst ir.Instruction, what string) error {
	return kerrors.UnsupportedOperationError(pos(method, inst), "hostdriver", what).Build()
}

func execInst(method *ir.Method, inst ir.Instruction, regs []map[int]any, groupID, groupSize int) error {
	switch in := inst.(type) {
	case *ir.ConstInt:
		for lane := range regs {
			regs[lane][in.ID()] = in.Val
		}
	case *ir.ConstFloat:
		for lane := range regs {
			regs[lane][in.ID()] = in.Val
		}
	case *ir.ConstNullPtr:
		for lane := range regs {
			regs[lane][in.ID()] = (*hostPtr)(nil)
		}
	case *ir.ConstUndef:
		for lane := range regs {
			regs[lane][in.ID()] = int64(0)
		}
	case *ir.UnaryInst:
		for lane := range regs {
			v, err := evalUnary(in.Op, regs[lane][in.X.ID])
			if err != nil {
				return unsupported(method, inst, string(in.Op))
			}
			regs[lane][in.ID()] = v
		}
	case *ir.BinaryInst:
		for lane := range regs {
			v, err := evalBinary(in.Op, regs[lane][in.X.ID], regs[lane][in.Y.ID])
			if err != nil {
				return unsupported(method, inst, string(in.Op))
			}
			regs[lane][in.ID()] = v
		}
	case *ir.AllocInst:
		size := in.Elem.Size()
		if size < 0 {
			return unsupported(method, inst, "alloc of unsized type")
		}
		count := int64(1)
		for lane := range regs {
			if in.Count != nil {
				if c, ok := regs[lane][in.Count.ID].(int64); ok {
					count = c
				}
			}
			buf := &hostBuffer{data: make([]byte, size*count)}
			regs[lane][in.ID()] = &hostPtr{buf: buf, offset: 0, elem: in.Elem}
		}
	case *ir.LeaInst:
		size := in.Elem.Size()
		for lane := range regs {
			base, ok := regs[lane][in.Base.ID].(*hostPtr)
			if !ok {
				return unsupported(method, inst, "lea of non-pointer value")
			}
			idx, _ := regs[lane][in.Index.ID].(int64)
			regs[lane][in.ID()] = &hostPtr{buf: base.buf, offset: base.offset + idx*size, elem: in.Elem}
		}
	case *ir.LoadInst:
		for lane := range regs {
			p, ok := regs[lane][in.Addr.ID].(*hostPtr)
			if !ok || p == nil {
				return unsupported(method, inst, "load through a non-pointer or null value")
			}
			v, err := readCell(p, in.Result().Type)
			if err != nil {
				return unsupported(method, inst, "load out of bounds")
			}
			regs[lane][in.ID()] = v
		}
	case *ir.StoreInst:
		for lane := range regs {
			p, ok := regs[lane][in.Addr.ID].(*hostPtr)
			if !ok || p == nil {
				return unsupported(method, inst, "store through a non-pointer or null value")
			}
			if err := writeCell(p, in.Val.Type, regs[lane][in.Val.ID]); err != nil {
				return unsupported(method, inst, "store out of bounds")
			}
		}
	case *ir.PtrCastInst:
		for lane := range regs {
			regs[lane][in.ID()] = regs[lane][in.Addr.ID]
		}
	case *ir.AddrSpaceCastInst:
		for lane := range regs {
			regs[lane][in.ID()] = regs[lane][in.Addr.ID]
		}
	case *ir.AlignToInst:
		for lane := range regs {
			p, ok := regs[lane][in.Addr.ID].(*hostPtr)
			if !ok {
				return unsupported(method, inst, "align_to of non-pointer value")
			}
			aligned := (p.offset + in.Align - 1) / in.Align * in.Align
			regs[lane][in.ID()] = &hostPtr{buf: p.buf, offset: aligned, elem: p.elem}
		}
	case *ir.SizeOfInst:
		for lane := range regs {
			regs[lane][in.ID()] = in.Of.Size()
		}
	case *ir.BarrierInst:
		// All lanes of the group are already synchronized at this point
		// by construction (execInst runs every lane before advancing),
		// so a barrier across the group or the warp is a no-op here.
	case *ir.ExternalCallInst:
		for lane := range regs {
			v, err := evalExternal(in.Name, groupID, groupSize, lane)
			if err != nil {
				return unsupported(method, inst, in.Name)
			}
			regs[lane][in.ID()] = v
		}
	case *ir.CallInst:
		if err := execCall(in, regs); err != nil {
			return unsupported(method, inst, in.Callee)
		}
	case *ir.AtomicRMWInst:
		if err := execAtomic(in, regs); err != nil {
			return unsupported(method, inst, string(in.Op))
		}
	default:
		return unsupported(method, inst, fmt.Sprintf("%T", inst))
	}
	return nil
}

func evalExternal(name string, groupID, groupSize, lane int) (any, error) {
	switch name {
	case "thread_id":
		return int64(groupID*groupSize + lane), nil
	case "group_id":
		return int64(groupID), nil
	case "thread_in_group_id":
		return int64(lane), nil
	default:
		return nil, fmt.Errorf("unknown external %q", name)
	}
}

func execCall(call *ir.CallInst, regs []map[int]any) error {
	name := call.Callee
	switch {
	case name == "cpuil.group_barrier" || name == "velocity.group_barrier":
		return nil
	case isShuffleCallee(name):
		return execShuffle(call, regs)
	default:
		return fmt.Errorf("unrecognized call %q reached the interpreter", name)
	}
}

func isShuffleCallee(name string) bool {
	for _, suffix := range []string{"warp_shuffle_broadcast", "warp_shuffle_xor", "warp_shuffle_down", "warp_shuffle_up"} {
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

func shuffleKindOf(name string) velocity.ShuffleKind {
	switch {
	case hasSuffix(name, "broadcast"):
		return velocity.ShuffleBroadcast
	case hasSuffix(name, "xor"):
		return velocity.ShuffleXor
	case hasSuffix(name, "down"):
		return velocity.ShuffleDown
	case hasSuffix(name, "up"):
		return velocity.ShuffleUp
	default:
		return velocity.ShuffleBroadcast
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// execShuffle gathers every lane's operand-0 value, applies the named
// shuffle across the whole lane vector via the Velocity backend's own
// primitives, and scatters the result back — the "decomposes into two
// 32-bit halves" contract in shuffle.go applies uniformly regardless of
// which backend's textual form named the call.
func execShuffle(call *ir.CallInst, regs []map[int]any) error {
	if call.Result() == nil || len(call.Args) < 2 {
		return nil
	}
	kind := shuffleKindOf(call.Callee)
	deltas := make([]int, len(regs))
	for lane := range regs {
		d, _ := regs[lane][call.Args[1].ID].(int64)
		deltas[lane] = int(d)
	}
	delta := 0
	if len(deltas) > 0 {
		delta = deltas[0]
	}

	switch v := regs[0][call.Args[0].ID].(type) {
	case float64:
		lanes := make([]float64, len(regs))
		for lane := range regs {
			lanes[lane], _ = regs[lane][call.Args[0].ID].(float64)
		}
		out := velocity.ShuffleFloat64(lanes, kind, delta)
		for lane := range regs {
			regs[lane][call.ID()] = out[lane]
		}
	case int64:
		lanes := make([]uint64, len(regs))
		for lane := range regs {
			iv, _ := regs[lane][call.Args[0].ID].(int64)
			lanes[lane] = uint64(iv)
		}
		out := velocity.Shuffle64(lanes, kind, delta)
		for lane := range regs {
			regs[lane][call.ID()] = int64(out[lane])
		}
	default:
		_ = v
		return fmt.Errorf("shuffle of unsupported operand type")
	}
	return nil
}

func execAtomic(in *ir.AtomicRMWInst, regs []map[int]any) error {
	// Lockstep execution already serializes every lane's access to
	// shared memory one at a time within this call, so a plain
	// read-modify-write per lane, processed in lane order, is
	// equivalent to a hardware atomic for the properties this
	// interpreter is exercised against.
	for lane := range regs {
		p, ok := regs[lane][in.Addr.ID].(*hostPtr)
		if !ok || p == nil {
			return fmt.Errorf("atomic through a non-pointer value")
		}
		cur, err := readCell(p, in.Result().Type)
		if err != nil {
			return err
		}
		val := regs[lane][in.Val.ID]
		var next any
		switch in.Op {
		case ir.AtomicAdd:
			switch c := cur.(type) {
			case int64:
				next = c + val.(int64)
			case float64:
				next = c + val.(float64)
			}
		case ir.AtomicExchange:
			next = val
		case ir.AtomicCAS:
			cmp := regs[lane][in.Compare.ID]
			if cur == cmp {
				next = val
			} else {
				next = cur
			}
		}
		if err := writeCell(p, in.Result().Type, next); err != nil {
			return err
		}
		regs[lane][in.ID()] = cur
	}
	return nil
}

func execTerminator(method *ir.Method, blk *ir.BasicBlock, regs []map[int]any, groupID, groupSize int) (*ir.BasicBlock, error) {
	switch t := blk.Terminator.(type) {
	case *ir.ReturnInst:
		return nil, nil
	case *ir.JumpInst:
		return t.Target, nil
	case *ir.BranchInst:
		target, err := uniformBranch(method, t, regs)
		if err != nil {
			return nil, err
		}
		return target, nil
	case *ir.SwitchInst:
		return uniformSwitch(method, t, regs)
	default:
		return nil, unsupported(method, blk.Terminator, fmt.Sprintf("%T", blk.Terminator))
	}
}

func uniformBranch(method *ir.Method, t *ir.BranchInst, regs []map[int]any) (*ir.BasicBlock, error) {
	first, ok := regs[0][t.Cond.ID].(bool)
	if !ok {
		if iv, isInt := regs[0][t.Cond.ID].(int64); isInt {
			first = iv != 0
		}
	}
	for lane := range regs {
		cond, ok := regs[lane][t.Cond.ID].(bool)
		if !ok {
			if iv, isInt := regs[lane][t.Cond.ID].(int64); isInt {
				cond = iv != 0
			}
		}
		if cond != first {
			return nil, unsupported(method, t, "divergent branch across lanes")
		}
	}
	if first {
		return t.True, nil
	}
	return t.False, nil
}

func uniformSwitch(method *ir.Method, t *ir.SwitchInst, regs []map[int]any) (*ir.BasicBlock, error) {
	first, _ := regs[0][t.Value.ID].(int64)
	for lane := range regs {
		v, _ := regs[lane][t.Value.ID].(int64)
		if v != first {
			return nil, unsupported(method, t, "divergent switch across lanes")
		}
	}
	for _, c := range t.Cases {
		if c.Val == first {
			return c.Target, nil
		}
	}
	return t.Default, nil
}

func evalUnary(op ir.UnOp, x any) (any, error) {
	switch op {
	case ir.OpNegI:
		return -x.(int64), nil
	case ir.OpNegF:
		return -x.(float64), nil
	case ir.OpNot:
		return ^x.(int64), nil
	case ir.OpSIToFP, ir.OpUIToFP:
		return float64(x.(int64)), nil
	case ir.OpFPToSI, ir.OpFPToUI:
		return int64(x.(float64)), nil
	case ir.OpTrunc, ir.OpSExt, ir.OpZExt, ir.OpBitcast:
		return x, nil
	case ir.OpFPExt, ir.OpFPTrunc:
		return x.(float64), nil
	case "sqrt":
		return math.Sqrt(x.(float64)), nil
	case "rcp":
		return 1 / x.(float64), nil
	case "sin":
		return math.Sin(x.(float64)), nil
	case "cos":
		return math.Cos(x.(float64)), nil
	case "exp2":
		return math.Exp2(x.(float64)), nil
	case "log2":
		return math.Log2(x.(float64)), nil
	case "tanh":
		return math.Tanh(x.(float64)), nil
	case "round_to_even":
		return math.RoundToEven(x.(float64)), nil
	case "round_away_from_zero":
		return math.Round(x.(float64)), nil
	case "isnan":
		return math.IsNaN(x.(float64)), nil
	case "isinf":
		return math.IsInf(x.(float64), 0), nil
	default:
		return nil, fmt.Errorf("unhandled unary op %q", op)
	}
}

func evalBinary(op ir.BinOp, x, y any) (any, error) {
	switch op {
	case ir.OpAddI:
		return x.(int64) + y.(int64), nil
	case ir.OpSubI:
		return x.(int64) - y.(int64), nil
	case ir.OpMulI:
		return x.(int64) * y.(int64), nil
	case ir.OpSDiv, ir.OpUDiv:
		return x.(int64) / y.(int64), nil
	case ir.OpSRem, ir.OpURem:
		return x.(int64) % y.(int64), nil
	case ir.OpAddF:
		return x.(float64) + y.(float64), nil
	case ir.OpSubF:
		return x.(float64) - y.(float64), nil
	case ir.OpMulF:
		return x.(float64) * y.(float64), nil
	case ir.OpDivF:
		return x.(float64) / y.(float64), nil
	case ir.OpRemF, "ieee_remainder":
		return math.Remainder(x.(float64), y.(float64)), nil
	case ir.OpAnd:
		return x.(int64) & y.(int64), nil
	case ir.OpOr:
		return x.(int64) | y.(int64), nil
	case ir.OpXor:
		return x.(int64) ^ y.(int64), nil
	case ir.OpShl:
		return x.(int64) << uint(y.(int64)), nil
	case ir.OpLShr:
		return int64(uint64(x.(int64)) >> uint(y.(int64))), nil
	case ir.OpAShr:
		return x.(int64) >> uint(y.(int64)), nil
	case ir.OpICmpEQ:
		return x.(int64) == y.(int64), nil
	case ir.OpICmpNE:
		return x.(int64) != y.(int64), nil
	case ir.OpICmpSLT:
		return x.(int64) < y.(int64), nil
	case ir.OpICmpSLE:
		return x.(int64) <= y.(int64), nil
	case ir.OpICmpSGT:
		return x.(int64) > y.(int64), nil
	case ir.OpICmpSGE:
		return x.(int64) >= y.(int64), nil
	case ir.OpICmpULT:
		return uint64(x.(int64)) < uint64(y.(int64)), nil
	case ir.OpICmpULE:
		return uint64(x.(int64)) <= uint64(y.(int64)), nil
	case ir.OpICmpUGT:
		return uint64(x.(int64)) > uint64(y.(int64)), nil
	case ir.OpICmpUGE:
		return uint64(x.(int64)) >= uint64(y.(int64)), nil
	case ir.OpFCmpEQ:
		return x.(float64) == y.(float64), nil
	case ir.OpFCmpNE:
		return x.(float64) != y.(float64), nil
	case ir.OpFCmpLT:
		return x.(float64) < y.(float64), nil
	case ir.OpFCmpLE:
		return x.(float64) <= y.(float64), nil
	case ir.OpFCmpGT:
		return x.(float64) > y.(float64), nil
	case ir.OpFCmpGE:
		return x.(float64) >= y.(float64), nil
	default:
		return nil, fmt.Errorf("unhandled binary op %q", op)
	}
}

func readCell(p *hostPtr, typ ir.Type) (any, error) {
	size := typ.Size()
	if p.offset < 0 || p.offset+size > int64(len(p.buf.data)) {
		return nil, fmt.Errorf("out of bounds read")
	}
	b := p.buf.data[p.offset : p.offset+size]
	if pt, ok := typ.(*ir.PrimitiveType); ok && pt.IsFloat() {
		switch size {
		case 4:
			return float64(math.Float32frombits(leU32(b))), nil
		case 8:
			return math.Float64frombits(leU64(b)), nil
		}
	}
	switch size {
	case 1:
		return int64(int8(b[0])), nil
	case 2:
		return int64(int16(uint16(b[0]) | uint16(b[1])<<8)), nil
	case 4:
		return int64(int32(leU32(b))), nil
	case 8:
		return int64(leU64(b)), nil
	}
	return nil, fmt.Errorf("unsupported cell size %d", size)
}

func writeCell(p *hostPtr, typ ir.Type, v any) error {
	size := typ.Size()
	if p.offset < 0 || p.offset+size > int64(len(p.buf.data)) {
		return fmt.Errorf("out of bounds write")
	}
	b := p.buf.data[p.offset : p.offset+size]
	if pt, ok := typ.(*ir.PrimitiveType); ok && pt.IsFloat() {
		switch size {
		case 4:
			putU32(b, math.Float32bits(float32(v.(float64))))
			return nil
		case 8:
			putU64(b, math.Float64bits(v.(float64)))
			return nil
		}
	}
	iv, _ := v.(int64)
	switch size {
	case 1:
		b[0] = byte(iv)
	case 2:
		b[0] = byte(iv)
		b[1] = byte(iv >> 8)
	case 4:
		putU32(b, uint32(iv))
	case 8:
		putU64(b, uint64(iv))
	default:
		return fmt.Errorf("unsupported cell size %d", size)
	}
	return nil
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leU64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
