// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "context"

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *User: Hydrated entity
		  - error: NotFound if missing
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Returns:
		  - *User: Hydrated entity
		  - error: NotFound if missing
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		Create persists a brand-new user account.

		Returns:
		  - error: ErrUsernameTaken on a duplicate username, or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		Delete removes the account row. Deleting a missing account is not an error.

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, id string) error
}

// # Token Data Access

// TokenStore binds at most one opaque token to each user.
type TokenStore interface {

	/*
		Issue creates a fresh token for userID, replacing any previous one.

		Description: Replacement is atomic. The old token stops resolving no later
		than the new one starts resolving.

		Returns:
		  - string: The new token
		  - error: Persistence failures
	*/
	Issue(context context.Context, userID string) (string, error)

	/*
		Resolve returns the user bound to token.

		Returns:
		  - string: User ID
		  - error: NotFound if the token is unknown or revoked
	*/
	Resolve(context context.Context, token string) (string, error)

	/*
		Revoke deletes token.

		Returns:
		  - error: NotFound if the token is unknown
	*/
	Revoke(context context.Context, token string) error

	/*
		RevokeUser deletes the token of userID, if any. It is idempotent.
	*/
	RevokeUser(context context.Context, userID string) error
}

// # Credential Verification

// CredentialVerifier checks a username/password pair.
type CredentialVerifier interface {

	/*
		Verify returns the matching user.

		Returns:
		  - *User: The account the credentials belong to
		  - error: InvalidCredentials for an unknown user or a wrong password
	*/
	Verify(context context.Context, username, password string) (*User, error)
}
