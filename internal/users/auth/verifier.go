// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"sync"

	"github.com/taibuivan/addressbook/internal/platform/apperr"
	"github.com/taibuivan/addressbook/internal/platform/sec"
)

// PasswordVerifier implements [CredentialVerifier] with bcrypt hashes stored
// in the user repository.
type PasswordVerifier struct {
	users UserRepository

	// decoy is compared against when the username is unknown, so both
	// failure paths cost one bcrypt comparison.
	decoy func() string
}

// NewPasswordVerifier creates a verifier over users.
func NewPasswordVerifier(users UserRepository) *PasswordVerifier {
	return &PasswordVerifier{
		users: users,
		decoy: sync.OnceValue(func() string {
			hash, _ := sec.HashPassword("decoy-password-never-matches")
			return hash
		}),
	}
}

/*
Verify returns the user owning the credentials.

Returns:
  - *User: The matching account
  - error: apperr.InvalidCredentials without telling which part was wrong
*/
func (verifier *PasswordVerifier) Verify(context context.Context, username, password string) (*User, error) {
	user, err := verifier.users.FindByUsername(context, username)
	if err != nil {
		if !apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, err
		}
		sec.CheckPasswordHash(password, verifier.decoy())
		return nil, apperr.InvalidCredentials()
	}

	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperr.InvalidCredentials()
	}

	return user, nil
}
