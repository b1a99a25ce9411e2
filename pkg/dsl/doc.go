// Package dsl provides a fluent way to write analyses in Go.
//
// An analysis built here is the same value a session saves, so it can be
// replayed, stored or printed:
//
//	a, err := dsl.New("monthly").
//		ChangeDtype(0, "S", "float").
//		Formula(0, "B", "=S + 1").
//		Concat(steps.JoinOuter, true, 0, 1).
//		Build()
package dsl
