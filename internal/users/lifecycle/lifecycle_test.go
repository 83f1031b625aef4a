// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lifecycle_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/addressbook/internal/users/lifecycle"
)

// journal records the order of calls across all three fakes.
type journal struct {
	calls []string
	fail  string
}

func (j *journal) step(name string) error {
	j.calls = append(j.calls, name)
	if j.fail == name {
		return errors.New(name + " unavailable")
	}
	return nil
}

type fakeTokens struct{ *journal }

func (f fakeTokens) RevokeUser(_ context.Context, userID string) error {
	return f.step("revoke:" + userID)
}

type fakeAddresses struct{ *journal }

func (f fakeAddresses) DeleteMany(_ context.Context, caller string, ids []int64, all bool) ([]int64, error) {
	if len(ids) != 0 || !all {
		return nil, errors.New("cascade must delete the whole collection")
	}
	if err := f.step("addresses:" + caller); err != nil {
		return nil, err
	}
	return []int64{1, 2}, nil
}

type fakeAccounts struct{ *journal }

func (f fakeAccounts) Delete(_ context.Context, id string) error {
	return f.step("account:" + id)
}

func newCascade(j *journal) *lifecycle.Cascade {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return lifecycle.NewCascade(fakeTokens{j}, fakeAddresses{j}, fakeAccounts{j}, logger)
}

/*
TestRemoveUser_Order verifies the token goes first and the account last.
*/
func TestRemoveUser_Order(t *testing.T) {
	j := &journal{}

	require.NoError(t, newCascade(j).RemoveUser(context.Background(), "u1"))
	assert.Equal(t, []string{"revoke:u1", "addresses:u1", "account:u1"}, j.calls)
}

/*
TestRemoveUser_StopsAtFailure verifies that the account survives a failed address purge.
*/
func TestRemoveUser_StopsAtFailure(t *testing.T) {
	j := &journal{fail: "addresses:u1"}

	err := newCascade(j).RemoveUser(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete addresses")
	assert.Equal(t, []string{"revoke:u1", "addresses:u1"}, j.calls)
}

/*
TestHandleUserDeleted covers valid, malformed and failing events.
*/
func TestHandleUserDeleted(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		fail    string
		calls   int
		wantErr bool
	}{
		{"valid", `{"user_id":"u1"}`, "", 3, false},
		{"not_json", `user u1`, "", 0, false},
		{"missing_id", `{"id":"u1"}`, "", 0, false},
		{"cascade_failure", `{"user_id":"u1"}`, "revoke:u1", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &journal{fail: tt.fail}

			err := newCascade(j).HandleUserDeleted(context.Background(), []byte("u1"), []byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, j.calls, tt.calls)
		})
	}
}
