// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pointer provides generic helpers for optional values.
//
// Partial-update payloads use pointer fields so that "absent" and "empty" stay
// distinguishable.
package pointer

// To returns a pointer to the provided value (e.g. pointer.To("Oslo")).
func To[T any](v T) *T {
	return &v
}

// Fallback dereferences p, returning fallback when p is nil.
func Fallback[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
