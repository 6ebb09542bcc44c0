package testutil

import "github.com/roach88/fixgraph/internal/ir"

// Handle returns a handle whose last byte is b and all other bytes zero.
//
// Handle(0x0a).String() == "00...000a"
func Handle(b byte) ir.Handle {
	var h ir.Handle
	h[ir.HandleLength-1] = b
	return h
}

// Hex returns the canonical hex form of Handle(b).
func Hex(b byte) string {
	return Handle(b).String()
}
