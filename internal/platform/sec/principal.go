// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and the authenticated identity type.
//
// # Architecture
//
// This package isolates security-sensitive code (password hashing, token
// generation) from the domain logic. Domain packages depend on it, never the
// reverse.
package sec

// Principal is the identity resolved from a bearer token.
//
// It is attached to the request context by the authentication middleware and is
// the only source of the caller's identity for ownership scoping.
type Principal struct {
	// UserID is the stable identifier of the authenticated user.
	UserID string

	// Token is the raw token the request presented. Logout revokes exactly this value.
	Token string
}
