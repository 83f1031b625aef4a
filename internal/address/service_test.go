// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package address_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/addressbook/internal/address"
	"github.com/taibuivan/addressbook/internal/platform/apperr"
	"github.com/taibuivan/addressbook/pkg/pagination"
	"github.com/taibuivan/addressbook/pkg/pointer"
)

const (
	alice = "0190a1b2-0000-7000-8000-00000000a11c"
	bob   = "0190a1b2-0000-7000-8000-0000000000b0"
)

var firstPage = pagination.Params{Page: 1, PageSize: pagination.DefaultPageSize}

func fields(street, city, postcode, country string) address.Fields {
	return address.Fields{Street: street, City: city, Postcode: postcode, Country: country}
}

/*
TestCreate_UniquePerOwner verifies that a tuple is unique within one owner only.
*/
func TestCreate_UniquePerOwner(t *testing.T) {
	service, _, _ := newTestService(address.Options{})
	ctx := context.Background()
	input := fields("Main St 1", "Oslo", "0150", "Norway")

	// 1. First insert for each owner succeeds
	_, err := service.Create(ctx, alice, input)
	require.NoError(t, err)
	_, err = service.Create(ctx, bob, input)
	require.NoError(t, err)

	// 2. Second insert for the same owner is a duplicate
	_, err = service.Create(ctx, alice, input)
	assert.ErrorIs(t, err, address.ErrAlreadyExists)

	// 3. Postcode is not part of the key
	_, err = service.Create(ctx, alice, fields("Main St 1", "Oslo", "9999", "Norway"))
	assert.ErrorIs(t, err, address.ErrAlreadyExists)
}

/*
TestCreate_NormalizesBeforeKeyComparison verifies that whitespace and Unicode
composition do not produce distinct keys.
*/
func TestCreate_NormalizesBeforeKeyComparison(t *testing.T) {
	service, _, _ := newTestService(address.Options{})
	ctx := context.Background()

	created, err := service.Create(ctx, alice, fields("  Długa 1 ", "Gdańsk", "80-831", "Poland"))
	require.NoError(t, err)
	assert.Equal(t, "Długa 1", created.Street)

	_, err = service.Create(ctx, alice, fields("Długa 1", "Gdan\u0301sk", "80-831", "Poland"))
	assert.ErrorIs(t, err, address.ErrAlreadyExists)
}

/*
TestCreate_ConcurrentDuplicates verifies that racing inserts of one tuple store exactly one row.
*/
func TestCreate_ConcurrentDuplicates(t *testing.T) {
	service, repository, _ := newTestService(address.Options{})
	input := fields("Fetter Ln 1", "London", "EC4A 1AA", "UK")

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Create(context.Background(), alice, input)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, address.ErrAlreadyExists) {
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, dupes)
	assert.Len(t, repository.ownerRows(alice), 1)
}

/*
TestCreate_Validation covers required fields and configured bounds.
*/
func TestCreate_Validation(t *testing.T) {
	service, _, publisher := newTestService(address.Options{
		Limits: address.Limits{Street: 10, City: 50, Postcode: 50, Country: 50},
	})

	tests := []struct {
		name  string
		input address.Fields
		field string
	}{
		{"blank_street", fields("   ", "Oslo", "0150", "Norway"), address.FieldStreet},
		{"missing_city", fields("Main St 1", "", "0150", "Norway"), address.FieldCity},
		{"missing_postcode", fields("Main St 1", "Oslo", "", "Norway"), address.FieldPostcode},
		{"street_too_long", fields(strings.Repeat("s", 11), "Oslo", "0150", "Norway"), address.FieldStreet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), alice, tt.input)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, apperr.CodeValidation, ae.Code)
			assert.Equal(t, tt.field, ae.Details[0].Field)
		})
	}

	assert.Empty(t, publisher.types())
}

/*
TestOwnershipIsolation verifies that another owner's address behaves as missing.
*/
func TestOwnershipIsolation(t *testing.T) {
	service, repository, _ := newTestService(address.Options{})
	ctx := context.Background()

	owned, err := service.Create(ctx, alice, fields("Main St 1", "Oslo", "0150", "Norway"))
	require.NoError(t, err)

	// 1. Bob sees nothing
	page, err := service.List(ctx, bob, address.Filter{}, firstPage)
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	// 2. Bob cannot read, update, patch or delete it
	_, err = service.Get(ctx, bob, owned.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	_, err = service.Update(ctx, bob, owned.ID, fields("X", "Y", "Z", "W"))
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	_, err = service.Patch(ctx, bob, owned.ID, address.Patch{City: pointer.To("Bergen")})
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	err = service.Delete(ctx, bob, owned.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	// 3. Alice's row is untouched
	rows := repository.ownerRows(alice)
	require.Len(t, rows, 1)
	assert.Equal(t, "Oslo", rows[0].City)
}

/*
TestList_Filters verifies exact-match filtering and insertion order.
*/
func TestList_Filters(t *testing.T) {
	service, _, _ := newTestService(address.Options{})
	ctx := context.Background()

	for _, input := range []address.Fields{
		fields("Baker St 221b", "London", "NW1 6XE", "UK"),
		fields("Długa 1", "Gdańsk", "80-831", "Poland"),
		fields("Fetter Ln 1", "London", "EC4A 1AA", "UK"),
	} {
		_, err := service.Create(ctx, alice, input)
		require.NoError(t, err)
	}
	_, err := service.Create(ctx, bob, fields("Baker St 1", "London", "NW1", "UK"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		filter  address.Filter
		streets []string
	}{
		{"no_filter", address.Filter{}, []string{"Baker St 221b", "Długa 1", "Fetter Ln 1"}},
		{"city_london", address.Filter{City: "London"}, []string{"Baker St 221b", "Fetter Ln 1"}},
		{"city_gdansk", address.Filter{City: "Gdańsk"}, []string{"Długa 1"}},
		{"combined", address.Filter{City: "London", Postcode: "EC4A 1AA"}, []string{"Fetter Ln 1"}},
		{"no_prefix_match", address.Filter{City: "Lond"}, []string{}},
		{"filter_is_normalized", address.Filter{City: " London "}, []string{"Baker St 221b", "Fetter Ln 1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := service.List(ctx, alice, tt.filter, firstPage)
			require.NoError(t, err)

			streets := []string{}
			for _, item := range page.Items {
				streets = append(streets, item.Street)
			}
			assert.Equal(t, tt.streets, streets)
			assert.Equal(t, len(tt.streets), page.Total)
		})
	}
}

/*
TestList_Pagination verifies that the total covers every page.
*/
func TestList_Pagination(t *testing.T) {
	service, _, _ := newTestService(address.Options{})
	ctx := context.Background()

	for _, street := range []string{"A 1", "B 2", "C 3"} {
		_, err := service.Create(ctx, alice, fields(street, "Oslo", "0150", "Norway"))
		require.NoError(t, err)
	}

	page, err := service.List(ctx, alice, address.Filter{}, pagination.Params{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "C 3", page.Items[0].Street)
}

/*
TestUpdate_KeepsOwnerAndDetectsDuplicates verifies full updates.
*/
func TestUpdate_KeepsOwnerAndDetectsDuplicates(t *testing.T) {
	service, repository, publisher := newTestService(address.Options{})
	ctx := context.Background()

	first, err := service.Create(ctx, alice, fields("A 1", "Oslo", "0150", "Norway"))
	require.NoError(t, err)
	_, err = service.Create(ctx, alice, fields("B 2", "Oslo", "0150", "Norway"))
	require.NoError(t, err)

	// 1. A plain update keeps the id and the owner
	updated, err := service.Update(ctx, alice, first.ID, fields("A 1", "Bergen", "5003", "Norway"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, alice, updated.OwnerID)
	assert.Len(t, repository.ownerRows(alice), 2)
	assert.Empty(t, repository.ownerRows(bob))

	// 2. Updating onto another row's key is a duplicate
	_, err = service.Update(ctx, alice, first.ID, fields("B 2", "Oslo", "1234", "Norway"))
	assert.ErrorIs(t, err, address.ErrAlreadyExists)

	// 3. Updating a row onto its own key is fine
	_, err = service.Update(ctx, alice, first.ID, fields("A 1", "Bergen", "5004", "Norway"))
	require.NoError(t, err)

	assert.Equal(t, []address.EventType{
		address.EventCreated, address.EventCreated, address.EventUpdated, address.EventUpdated,
	}, publisher.types())
}

/*
TestPatch applies only the provided fields.
*/
func TestPatch(t *testing.T) {
	service, _, _ := newTestService(address.Options{})
	ctx := context.Background()

	created, err := service.Create(ctx, alice, fields("A 1", "Oslo", "0150", "Norway"))
	require.NoError(t, err)
	_, err = service.Create(ctx, alice, fields("A 1", "Bergen", "5003", "Norway"))
	require.NoError(t, err)

	// 1. Partial change
	patched, err := service.Patch(ctx, alice, created.ID, address.Patch{Postcode: pointer.To("0151")})
	require.NoError(t, err)
	assert.Equal(t, "Oslo", patched.City)
	assert.Equal(t, "0151", patched.Postcode)

	// 2. Empty patch returns the current row
	unchanged, err := service.Patch(ctx, alice, created.ID, address.Patch{})
	require.NoError(t, err)
	assert.Equal(t, "0151", unchanged.Postcode)

	// 3. Blanking a required field fails validation
	_, err = service.Patch(ctx, alice, created.ID, address.Patch{Street: pointer.To(" ")})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	// 4. Colliding with another row is a duplicate
	_, err = service.Patch(ctx, alice, created.ID, address.Patch{City: pointer.To("Bergen")})
	assert.ErrorIs(t, err, address.ErrAlreadyExists)
}

/*
TestDeleteMany_PartialSelection verifies that foreign and missing ids are skipped.
*/
func TestDeleteMany_PartialSelection(t *testing.T) {
	service, repository, publisher := newTestService(address.Options{})
	ctx := context.Background()

	var ids []int64
	for _, street := range []string{"A 1", "B 2", "C 3"} {
		created, err := service.Create(ctx, alice, fields(street, "Oslo", "0150", "Norway"))
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}
	foreign, err := service.Create(ctx, bob, fields("A 1", "Oslo", "0150", "Norway"))
	require.NoError(t, err)

	deleted, err := service.DeleteMany(ctx, alice, []int64{ids[0], ids[2], foreign.ID, 9999}, false)
	require.NoError(t, err)

	assert.ElementsMatch(t, []int64{ids[0], ids[2]}, deleted)
	remaining := repository.ownerRows(alice)
	require.Len(t, remaining, 1)
	assert.Equal(t, ids[1], remaining[0].ID)
	assert.Len(t, repository.ownerRows(bob), 1)
	assert.Contains(t, publisher.types(), address.EventDeleted)
}

/*
TestDeleteMany_EmptySelection covers the explicit and implicit "delete all" modes.
*/
func TestDeleteMany_EmptySelection(t *testing.T) {
	seed := func(t *testing.T, service *address.Service) {
		for _, street := range []string{"A 1", "B 2"} {
			_, err := service.Create(context.Background(), alice, fields(street, "Oslo", "0150", "Norway"))
			require.NoError(t, err)
		}
	}

	t.Run("rejected_by_default", func(t *testing.T) {
		service, repository, _ := newTestService(address.Options{})
		seed(t, service)

		_, err := service.DeleteMany(context.Background(), alice, nil, false)
		assert.True(t, apperr.HasCode(err, apperr.CodeMalformedRequest))
		assert.Len(t, repository.ownerRows(alice), 2)
	})

	t.Run("explicit_all", func(t *testing.T) {
		service, repository, _ := newTestService(address.Options{})
		seed(t, service)
		_, err := service.Create(context.Background(), bob, fields("A 1", "Oslo", "0150", "Norway"))
		require.NoError(t, err)

		deleted, err := service.DeleteMany(context.Background(), alice, nil, true)
		require.NoError(t, err)
		assert.Len(t, deleted, 2)
		assert.Empty(t, repository.ownerRows(alice))
		assert.Len(t, repository.ownerRows(bob), 1)
	})

	t.Run("implicit_all", func(t *testing.T) {
		service, repository, _ := newTestService(address.Options{ImplicitAll: true})
		seed(t, service)

		deleted, err := service.DeleteMany(context.Background(), alice, nil, false)
		require.NoError(t, err)
		assert.Len(t, deleted, 2)
		assert.Empty(t, repository.ownerRows(alice))
	})
}

/*
TestDeleteMany_IdsWithAll verifies that combining ids with all=true is rejected untouched.
*/
func TestDeleteMany_IdsWithAll(t *testing.T) {
	service, repository, _ := newTestService(address.Options{})

	created, err := service.Create(context.Background(), alice, fields("A 1", "Oslo", "0150", "Norway"))
	require.NoError(t, err)
	_, err = service.Create(context.Background(), alice, fields("B 2", "Oslo", "0150", "Norway"))
	require.NoError(t, err)

	_, err = service.DeleteMany(context.Background(), alice, []int64{created.ID}, true)
	assert.True(t, apperr.HasCode(err, apperr.CodeMalformedRequest))
	assert.Len(t, repository.ownerRows(alice), 2)
}

// stallingPublisher blocks until its context ends and records why.
type stallingPublisher struct {
	done chan error
}

func (publisher *stallingPublisher) Publish(ctx context.Context, _ address.Event) error {
	<-ctx.Done()
	publisher.done <- ctx.Err()
	return ctx.Err()
}

/*
TestPublish_Bounded verifies that a stalled broker delays a write by at most the publish timeout.
*/
func TestPublish_Bounded(t *testing.T) {
	publisher := &stallingPublisher{done: make(chan error, 1)}
	service := address.NewService(newMemoryRepository(), publisher, address.Options{
		Limits:         defaultLimits,
		PublishTimeout: 20 * time.Millisecond,
	}, discardLogger())

	started := time.Now()
	_, err := service.Create(context.Background(), alice, fields("A 1", "Oslo", "0150", "Norway"))
	require.NoError(t, err)
	assert.Less(t, time.Since(started), time.Second)
	assert.ErrorIs(t, <-publisher.done, context.DeadlineExceeded)
}

/*
TestPublish_OutlivesRequest verifies that a cancelled request still gets its event out.
*/
func TestPublish_OutlivesRequest(t *testing.T) {
	service, repository, publisher := newTestService(address.Options{})
	ctx, cancel := context.WithCancel(context.Background())

	created, err := service.Create(context.Background(), alice, fields("A 1", "Oslo", "0150", "Norway"))
	require.NoError(t, err)

	cancel()
	require.NoError(t, service.Delete(ctx, alice, created.ID))
	assert.Empty(t, repository.ownerRows(alice))
	assert.Contains(t, publisher.types(), address.EventDeleted)
}

/*
TestPublishFailure_DoesNotFailWrite verifies that a broken broker never undoes a committed write.
*/
func TestPublishFailure_DoesNotFailWrite(t *testing.T) {
	service, repository, publisher := newTestService(address.Options{})
	publisher.err = errors.New("broker unreachable")

	_, err := service.Create(context.Background(), alice, fields("A 1", "Oslo", "0150", "Norway"))
	require.NoError(t, err)
	assert.Len(t, repository.ownerRows(alice), 1)
}

/*
TestRequiresCaller rejects operations without an owner.
*/
func TestRequiresCaller(t *testing.T) {
	service, _, _ := newTestService(address.Options{})

	_, err := service.Create(context.Background(), "", fields("A 1", "Oslo", "0150", "Norway"))
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
}
