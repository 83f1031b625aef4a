// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides time-ordered unique identifiers for user accounts and
request correlation.

It wraps the standard UUID library to specifically generate Version 7 values,
which are naturally ordered by creation time and keep B-tree indexes compact.
*/
package uuid

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
//
// It falls back to a random (v4) UUID if the v7 generator fails, so callers
// never have to handle an error for an identifier.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
