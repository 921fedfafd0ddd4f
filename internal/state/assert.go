//go:build !debug

package state

// assertInvariants makes cache invariant violations panic. Build with
// -tags debug to enable it.
const assertInvariants = false
