// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

//go:build integration

package address_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/addressbook/internal/address"
	"github.com/taibuivan/addressbook/internal/platform/apperr"
	"github.com/taibuivan/addressbook/internal/platform/postgres/pgtest"
)

var database *pgtest.Database

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	database, err = pgtest.Start(ctx)
	if err != nil {
		panic(err)
	}

	for _, id := range []string{alice, bob} {
		if err := database.CreateUser(ctx, id, id); err != nil {
			panic(err)
		}
	}

	code := m.Run()
	database.Stop(ctx)
	os.Exit(code)
}

func resetAddresses(t *testing.T) address.Repository {
	t.Helper()
	_, err := database.Pool.Exec(context.Background(), `TRUNCATE address.address RESTART IDENTITY`)
	require.NoError(t, err)
	return address.NewPostgresRepository(database.Pool)
}

/*
TestPostgres_InsertDuplicateOutcome verifies that the unique constraint reports duplicates as an outcome.
*/
func TestPostgres_InsertDuplicateOutcome(t *testing.T) {
	repository := resetAddresses(t)
	ctx := context.Background()
	input := fields("Fetter Ln 1", "London", "EC4A 1AA", "UK")

	first, err := repository.Insert(ctx, alice, input)
	require.NoError(t, err)
	assert.Equal(t, address.OutcomeWritten, first.Outcome)
	assert.Equal(t, alice, first.Address.OwnerID)

	second, err := repository.Insert(ctx, alice, input)
	require.NoError(t, err)
	assert.Equal(t, address.OutcomeDuplicate, second.Outcome)
	assert.Nil(t, second.Address)

	other, err := repository.Insert(ctx, bob, input)
	require.NoError(t, err)
	assert.Equal(t, address.OutcomeWritten, other.Outcome)
}

/*
TestPostgres_ConcurrentInsert verifies that racing inserts store exactly one row.
*/
func TestPostgres_ConcurrentInsert(t *testing.T) {
	repository := resetAddresses(t)
	input := fields("Baker St 221b", "London", "NW1 6XE", "UK")

	const workers = 12
	outcomes := make([]address.Outcome, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := repository.Insert(context.Background(), alice, input)
			assert.NoError(t, err)
			outcomes[i] = result.Outcome
		}()
	}
	wg.Wait()

	written := 0
	for _, outcome := range outcomes {
		if outcome == address.OutcomeWritten {
			written++
		}
	}
	assert.Equal(t, 1, written)

	_, total, err := repository.List(context.Background(), alice, address.Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

/*
TestPostgres_ListAndPaging verifies filters, ordering and the past-the-end count.
*/
func TestPostgres_ListAndPaging(t *testing.T) {
	repository := resetAddresses(t)
	ctx := context.Background()

	for _, input := range []address.Fields{
		fields("Baker St 221b", "London", "NW1 6XE", "UK"),
		fields("Długa 1", "Gdańsk", "80-831", "Poland"),
		fields("Fetter Ln 1", "London", "EC4A 1AA", "UK"),
	} {
		_, err := repository.Insert(ctx, alice, input)
		require.NoError(t, err)
	}

	items, total, err := repository.List(ctx, alice, address.Filter{City: "London"}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Less(t, items[0].ID, items[1].ID)

	items, total, err = repository.List(ctx, alice, address.Filter{City: "London"}, 10, 50)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 2, total)

	_, total, err = repository.List(ctx, bob, address.Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

/*
TestPostgres_UpdateAndDelete covers duplicate updates, ownership and bulk deletes.
*/
func TestPostgres_UpdateAndDelete(t *testing.T) {
	repository := resetAddresses(t)
	ctx := context.Background()

	first, err := repository.Insert(ctx, alice, fields("A 1", "Oslo", "0150", "Norway"))
	require.NoError(t, err)
	second, err := repository.Insert(ctx, alice, fields("B 2", "Oslo", "0150", "Norway"))
	require.NoError(t, err)
	foreign, err := repository.Insert(ctx, bob, fields("C 3", "Oslo", "0150", "Norway"))
	require.NoError(t, err)

	// 1. Colliding update
	result, err := repository.Update(ctx, alice, first.Address.ID, fields("B 2", "Oslo", "9999", "Norway"))
	require.NoError(t, err)
	assert.Equal(t, address.OutcomeDuplicate, result.Outcome)

	// 2. Foreign update and delete are not found
	_, err = repository.Update(ctx, alice, foreign.Address.ID, fields("X", "Y", "Z", "W"))
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	assert.True(t, apperr.HasCode(repository.Delete(ctx, alice, foreign.Address.ID), apperr.CodeNotFound))

	// 3. Bulk delete skips foreign ids
	deleted, err := repository.DeleteMany(ctx, alice, address.Selection{
		IDs: []int64{first.Address.ID, foreign.Address.ID, 424242},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{first.Address.ID}, deleted)

	// 4. Delete all only touches the owner
	deleted, err = repository.DeleteMany(ctx, alice, address.Selection{All: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{second.Address.ID}, deleted)

	stillThere, err := repository.FindByID(ctx, bob, foreign.Address.ID)
	require.NoError(t, err)
	assert.Equal(t, "C 3", stillThere.Street)
}

/*
TestPostgres_MaxLengthKey verifies that a key of maximum-length multi-byte fields
still fits the unique index and is still deduplicated.
*/
func TestPostgres_MaxLengthKey(t *testing.T) {
	repository := resetAddresses(t)
	ctx := context.Background()

	wide := strings.Repeat("\U0001D504", 300)
	input := fields(wide, wide, "0150", wide)

	first, err := repository.Insert(ctx, alice, input)
	require.NoError(t, err)
	assert.Equal(t, address.OutcomeWritten, first.Outcome)

	second, err := repository.Insert(ctx, alice, input)
	require.NoError(t, err)
	assert.Equal(t, address.OutcomeDuplicate, second.Outcome)

	other, err := repository.Insert(ctx, alice, fields(wide, wide, "0150", "Norway"))
	require.NoError(t, err)
	result, err := repository.Update(ctx, alice, other.Address.ID, input)
	require.NoError(t, err)
	assert.Equal(t, address.OutcomeDuplicate, result.Outcome)
}
