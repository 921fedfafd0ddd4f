//go:build debug

package state

const assertInvariants = true
