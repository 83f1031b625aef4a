// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements user accounts and the opaque token lifecycle.

A user logs in with username and password and receives one opaque token. The
token authenticates every later request until the user logs out or logs in
again, which replaces it.

# Architecture

  - Verifier: Checks a username/password pair against the stored bcrypt hash.
  - TokenStore: Binds at most one token to a user (Postgres or Redis backed).
  - Service: Orchestrates Login, Logout and Authenticate.
*/
package auth

import "time"

// # Domain Entities

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// LoginSession is the result of a successful login.
type LoginSession struct {
	User  *User
	Token string
}

// # Field Identifiers

const (
	FieldUsername  = "username"
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldAuthToken = "auth_token"
	FieldSuccess   = "success"
)

// Account constraints for operator-created users.
const (
	usernameMaxLen    = 150
	passwordMinLength = 8
)
