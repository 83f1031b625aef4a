// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package lifecycle removes a user together with everything the user owns.

The schema does not cascade deletes, so the order is explicit: the token goes
first (the user can no longer act), then the addresses, then the account row.
Every step tolerates data that is already gone, which makes [Cascade.RemoveUser]
safe to retry after a partial failure.
*/
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/taibuivan/addressbook/internal/platform/apperr"
)

// # Dependencies

// TokenRevoker drops whatever token a user holds.
type TokenRevoker interface {
	RevokeUser(context context.Context, userID string) error
}

// AddressRemover deletes a selection of an owner's addresses.
type AddressRemover interface {
	DeleteMany(context context.Context, caller string, ids []int64, all bool) ([]int64, error)
}

// AccountRemover deletes the account row.
type AccountRemover interface {
	Delete(context context.Context, id string) error
}

// # Cascade

// Cascade deletes a user and the data owned by the user.
type Cascade struct {
	tokens    TokenRevoker
	addresses AddressRemover
	accounts  AccountRemover
	logger    *slog.Logger
}

// NewCascade wires the cascade over its three stores.
func NewCascade(tokens TokenRevoker, addresses AddressRemover, accounts AccountRemover, logger *slog.Logger) *Cascade {
	return &Cascade{
		tokens:    tokens,
		addresses: addresses,
		accounts:  accounts,
		logger:    logger,
	}
}

/*
RemoveUser revokes the token, deletes every address and finally the account.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: The first failing step, wrapped with its name
*/
func (cascade *Cascade) RemoveUser(context context.Context, userID string) error {
	if userID == "" {
		return apperr.ValidationError("user id is required")
	}

	if err := cascade.tokens.RevokeUser(context, userID); err != nil {
		return fmt.Errorf("lifecycle: revoke token: %w", err)
	}

	deleted, err := cascade.addresses.DeleteMany(context, userID, nil, true)
	if err != nil {
		return fmt.Errorf("lifecycle: delete addresses: %w", err)
	}

	if err := cascade.accounts.Delete(context, userID); err != nil {
		return fmt.Errorf("lifecycle: delete account: %w", err)
	}

	cascade.logger.InfoContext(context, "user_removed",
		slog.String("user_id", userID),
		slog.Int("addresses_deleted", len(deleted)),
	)
	return nil
}

// # Event Handling

// UserDeleted is the payload of a user deletion event published by the
// identity system.
type UserDeleted struct {
	UserID string `json:"user_id"`
}

/*
HandleUserDeleted decodes a user deletion event and runs the cascade.

Description: Undecodable payloads are logged and acknowledged, since no retry
can fix them. Cascade failures are returned so the consumer retries.
*/
func (cascade *Cascade) HandleUserDeleted(context context.Context, key, value []byte) error {
	var event UserDeleted
	if err := json.Unmarshal(value, &event); err != nil || event.UserID == "" {
		cascade.logger.WarnContext(context, "user_deleted_event_malformed",
			slog.String("key", string(key)),
			slog.Any("error", err),
		)
		return nil
	}

	return cascade.RemoveUser(context, event.UserID)
}
