package main

import (
	"fmt"
	"strings"

	"kernelc/internal/ir"
)

// dumpMethod renders a method's blocks and instructions in program
// order, one instruction per line, the way `inspect ir` and `inspect
// lowered` both print their output.
func dumpMethod(m *ir.Method) string {
	var b strings.Builder
	fmt.Fprintf(&b, "method %s(", m.Name)
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", p.Name, p.Type)
	}
	fmt.Fprintf(&b, ") -> %s\n", m.ReturnType)

	for _, blk := range m.Blocks {
		fmt.Fprintf(&b, "%s:\n", blk.Label)
		for _, inst := range blk.Instructions {
			fmt.Fprintf(&b, "  %s\n", inst.String())
		}
		if blk.Terminator != nil {
			fmt.Fprintf(&b, "  %s\n", blk.Terminator.String())
		}
	}
	return b.String()
}
