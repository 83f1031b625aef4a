// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/addressbook/internal/platform/apperr"
	"github.com/taibuivan/addressbook/internal/platform/constants"
	"github.com/taibuivan/addressbook/internal/platform/sec"
)

// # Redis Token Store

// Two keys describe one binding:
//
//	auth:token:<token>        -> userID
//	auth:user_token:<userID>  -> token
//
// Every mutation touches both keys inside one Lua script, so readers never
// observe a half-written binding. The scripts derive the second key from a
// stored value, so the keys cannot be declared up front and the store runs
// against a single node, not a cluster.

// issueScript swaps the user's token. It returns 0 when the new token key is
// already taken by someone else.
var issueScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
	return 0
end
local previous = redis.call('GET', KEYS[1])
if previous then
	redis.call('DEL', ARGV[1] .. previous)
end
redis.call('SET', KEYS[2], ARGV[2])
redis.call('SET', KEYS[1], ARGV[3])
return 1
`)

// revokeScript deletes one token and its reverse mapping. It returns 0 when
// the token is unknown.
var revokeScript = redis.NewScript(`
local userID = redis.call('GET', KEYS[1])
if not userID then
	return 0
end
redis.call('DEL', KEYS[1])
local userKey = ARGV[1] .. userID
if redis.call('GET', userKey) == ARGV[2] then
	redis.call('DEL', userKey)
end
return 1
`)

// revokeUserScript deletes whatever token the user holds.
var revokeUserScript = redis.NewScript(`
local token = redis.call('GET', KEYS[1])
if token then
	redis.call('DEL', ARGV[1] .. token)
end
redis.call('DEL', KEYS[1])
return 1
`)

// RedisTokenStore implements [TokenStore] in Redis.
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore creates a Redis-backed token store on a single-node client.
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

/*
Issue creates a fresh token for userID, replacing any previous one.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - string: The new token
  - error: Connectivity errors
*/
func (store *RedisTokenStore) Issue(context context.Context, userID string) (string, error) {
	for attempt := 1; attempt <= issueAttempts; attempt++ {
		token, err := sec.GenerateSecureToken(constants.AuthTokenBytes)
		if err != nil {
			return "", apperr.Internal(err)
		}

		keys := []string{userKey(userID), tokenKey(token)}
		swapped, err := issueScript.Run(context, store.client, keys, constants.RedisPrefixToken, userID, token).Int()
		if err != nil {
			return "", apperr.Internal(fmt.Errorf("redis_issue_token_failed: %w", err))
		}

		if swapped == 1 {
			return token, nil
		}
	}

	return "", apperr.Internal(errors.New("redis_issue_token_failed: token collisions exhausted attempts"))
}

/*
Resolve returns the user bound to token.

Returns:
  - string: User ID
  - error: apperr.NotFound if absent, or connectivity errors
*/
func (store *RedisTokenStore) Resolve(context context.Context, token string) (string, error) {
	userID, err := store.client.Get(context, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound("Token")
		}
		return "", apperr.Internal(fmt.Errorf("redis_resolve_token_failed: %w", err))
	}
	return userID, nil
}

// Revoke deletes token and its reverse mapping.
func (store *RedisTokenStore) Revoke(context context.Context, token string) error {
	removed, err := revokeScript.Run(context, store.client, []string{tokenKey(token)}, constants.RedisPrefixUserToken, token).Int()
	if err != nil {
		return apperr.Internal(fmt.Errorf("redis_revoke_token_failed: %w", err))
	}
	if removed == 0 {
		return apperr.NotFound("Token")
	}
	return nil
}

// RevokeUser deletes the token of userID, if any.
func (store *RedisTokenStore) RevokeUser(context context.Context, userID string) error {
	if err := revokeUserScript.Run(context, store.client, []string{userKey(userID)}, constants.RedisPrefixToken).Err(); err != nil {
		return apperr.Internal(fmt.Errorf("redis_revoke_user_token_failed: %w", err))
	}
	return nil
}

func tokenKey(token string) string {
	return constants.RedisPrefixToken + token
}

func userKey(userID string) string {
	return constants.RedisPrefixUserToken + userID
}
