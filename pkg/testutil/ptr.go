// Package testutil provides shared test helpers.
package testutil

// Ptr returns a pointer to a copy of v, for optional manifest fields in
// test fixtures.
func Ptr[T any](v T) *T { return &v }
