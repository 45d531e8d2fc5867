package isa

import "fmt"

// assert panics if condition is false. Used only for programmer-error
// invariants (malformed Instruction values built by package-internal
// code), never for data-dependent control flow.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
