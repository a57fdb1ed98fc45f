package assoc

import "fmt"

// doassert panics on a violated invariant. Per the error-handling design,
// these are reserved for programming errors (e.g. overlapping Send calls on
// one machine, or dispatching a request with no message) — never for the
// fallible paths
// (transport failure, peer rejection) that have their own Outcome kinds.
func doassert(cond bool, values ...interface{}) {
	if !cond {
		var s string
		for _, v := range values {
			s += fmt.Sprintf("%v ", v)
		}
		panic("assoc: invariant violated: " + s)
	}
}
