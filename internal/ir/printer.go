package ir

import (
	"fmt"
	"strings"
)

// Print renders a Method as readable text, in the teacher's
// strings.Builder walking style (internal/ir/printer.go): Method,
// then each BasicBlock, then each Instruction.
func Print(m *Method) string {
	var b strings.Builder
	kind := "method"
	if m.Kernel {
		kind = "kernel"
	} else if m.Intrinsic {
		kind = "intrinsic"
	}
	fmt.Fprintf(&b, "%s %s(", kind, m.Name)
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", p.Name, p.Type)
	}
	fmt.Fprintf(&b, ") -> %s {\n", m.ReturnType)

	for _, blk := range m.Blocks {
		fmt.Fprintf(&b, "%s:", blk.Label)
		if len(blk.Predecessors) > 0 {
			var preds []string
			for _, p := range blk.Predecessors {
				preds = append(preds, p.Label)
			}
			fmt.Fprintf(&b, "  ; preds = %s", strings.Join(preds, ", "))
		}
		b.WriteString("\n")
		for _, inst := range blk.Instructions {
			fmt.Fprintf(&b, "  %s\n", inst.String())
		}
		if blk.Terminator != nil {
			fmt.Fprintf(&b, "  %s\n", blk.Terminator.String())
		}
	}
	b.WriteString("}\n")
	return b.String()
}
