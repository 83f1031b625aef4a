// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/addressbook/internal/platform/apperr"
	"github.com/taibuivan/addressbook/internal/platform/sec"
	"github.com/taibuivan/addressbook/internal/platform/validate"
	"github.com/taibuivan/addressbook/pkg/uuid"
)

// ErrUsernameTaken is returned when an account with the same username exists.
var ErrUsernameTaken = validate.RequiredError(FieldUsername, "A user with that username already exists.")

// Service implements user authentication use cases.
type Service struct {
	users    UserRepository
	verifier CredentialVerifier
	tokens   TokenStore
	logger   *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(users UserRepository, verifier CredentialVerifier, tokens TokenStore, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		verifier: verifier,
		tokens:   tokens,
		logger:   logger,
	}
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username string
	Password string
}

/*
Login validates user credentials and issues the user's token.

Description: A new login replaces any token the user held, so at most one
token per user resolves at any time.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: The user and the new token
  - error: Validation, InvalidCredentials or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	user, err := service.verifier.Verify(context, input.Username, input.Password)
	if err != nil {
		return nil, err
	}

	token, err := service.tokens.Issue(context, user.ID)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "user_logged_in", slog.String("user_id", user.ID))

	return &LoginSession{User: user, Token: token}, nil
}

/*
Logout revokes the presented token.

Description: A token that is already gone counts as logged out. The caller
reached this point with a token that resolved, so only a concurrent logout can
make it disappear.
*/
func (service *Service) Logout(context context.Context, principal *sec.Principal) error {
	if principal == nil {
		return apperr.Unauthorized("Authentication credentials were not provided.")
	}

	err := service.tokens.Revoke(context, principal.Token)
	if err != nil && !apperr.HasCode(err, apperr.CodeNotFound) {
		return err
	}

	service.logger.InfoContext(context, "user_logged_out", slog.String("user_id", principal.UserID))
	return nil
}

/*
Authenticate resolves a token into the calling principal.

Returns:
  - *sec.Principal: The user and the token presented
  - error: apperr.Unauthorized for unknown tokens, or storage failures
*/
func (service *Service) Authenticate(context context.Context, token string) (*sec.Principal, error) {
	if token == "" {
		return nil, apperr.Unauthorized("Invalid token.")
	}

	userID, err := service.tokens.Resolve(context, token)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized("Invalid token.")
		}
		return nil, err
	}

	return &sec.Principal{UserID: userID, Token: token}, nil
}

// # Account Management

// CreateUserInput holds the data required to create an account.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
}

/*
CreateUser validates, hashes and persists a new account.

Description: Accounts are created by operators; the HTTP API has no
registration endpoint.

Returns:
  - *User: Created entity
  - error: Validation, ErrUsernameTaken or storage errors
*/
func (service *Service) CreateUser(context context.Context, input CreateUserInput) (*User, error) {
	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).MaxLen(FieldUsername, input.Username, usernameMaxLen)
	if input.Email != "" {
		validator.Email(FieldEmail, input.Email)
	}
	validator.MinLen(FieldPassword, input.Password, passwordMinLength).
		Custom(FieldPassword, strings.EqualFold(input.Password, input.Username), "The password is too similar to the username.")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_hash_failed: %w", err))
	}

	user := &User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
	}

	if err := service.users.Create(context, user); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "user_created", slog.String("user_id", user.ID))
	return user, nil
}

// FindUser resolves a user by id or username.
func (service *Service) FindUser(context context.Context, identifier string) (*User, error) {
	user, err := service.users.FindByID(context, identifier)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return service.users.FindByUsername(context, identifier)
	}
	return user, err
}
