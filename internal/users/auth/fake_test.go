// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/taibuivan/addressbook/internal/platform/apperr"
	"github.com/taibuivan/addressbook/internal/users/auth"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*auth.User{}}
}

func (repository *memoryUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if user, ok := repository.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("User")
}

func (repository *memoryUsers) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, user := range repository.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repository *memoryUsers) Create(_ context.Context, user *auth.User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, existing := range repository.users {
		if existing.Username == user.Username {
			return auth.ErrUsernameTaken
		}
	}
	copied := *user
	repository.users[user.ID] = &copied
	return nil
}

func (repository *memoryUsers) Delete(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	delete(repository.users, id)
	return nil
}

// memoryTokens mirrors the two-way binding of the real stores under one lock.
type memoryTokens struct {
	mu      sync.Mutex
	counter int
	byToken map[string]string
	byUser  map[string]string
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{byToken: map[string]string{}, byUser: map[string]string{}}
}

func (store *memoryTokens) Issue(_ context.Context, userID string) (string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.counter++
	token := "token-" + strconv.Itoa(store.counter)
	if previous, ok := store.byUser[userID]; ok {
		delete(store.byToken, previous)
	}
	store.byToken[token] = userID
	store.byUser[userID] = token
	return token, nil
}

func (store *memoryTokens) Resolve(_ context.Context, token string) (string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if userID, ok := store.byToken[token]; ok {
		return userID, nil
	}
	return "", apperr.NotFound("Token")
}

func (store *memoryTokens) Revoke(_ context.Context, token string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	userID, ok := store.byToken[token]
	if !ok {
		return apperr.NotFound("Token")
	}
	delete(store.byToken, token)
	delete(store.byUser, userID)
	return nil
}

func (store *memoryTokens) RevokeUser(_ context.Context, userID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if token, ok := store.byUser[userID]; ok {
		delete(store.byToken, token)
		delete(store.byUser, userID)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestService wires the service over in-memory stores and creates "ada".
func newTestService(t interface {
	Helper()
	Fatalf(string, ...any)
}) (*auth.Service, *memoryUsers, *memoryTokens, *auth.User) {
	t.Helper()

	users := newMemoryUsers()
	tokens := newMemoryTokens()
	service := auth.NewService(users, auth.NewPasswordVerifier(users), tokens, discardLogger())

	user, err := service.CreateUser(context.Background(), auth.CreateUserInput{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	return service, users, tokens, user
}
