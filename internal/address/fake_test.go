// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package address_test

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/taibuivan/addressbook/internal/address"
	"github.com/taibuivan/addressbook/internal/platform/apperr"
)

// memoryRepository is an in-memory [address.Repository] that enforces the
// (owner, street, city, country) key under one lock, like the unique constraint.
type memoryRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   []*address.Address
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{nextID: 1}
}

func (repository *memoryRepository) collides(owner string, fields address.Fields, except int64) bool {
	for _, row := range repository.rows {
		if row.ID != except && row.OwnerID == owner &&
			row.Street == fields.Street && row.City == fields.City && row.Country == fields.Country {
			return true
		}
	}
	return false
}

func (repository *memoryRepository) Insert(_ context.Context, owner string, fields address.Fields) (address.WriteResult, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.collides(owner, fields, 0) {
		return address.WriteResult{Outcome: address.OutcomeDuplicate}, nil
	}

	now := time.Now()
	row := &address.Address{
		ID: repository.nextID, OwnerID: owner,
		Street: fields.Street, City: fields.City, Postcode: fields.Postcode, Country: fields.Country,
		CreatedAt: now, UpdatedAt: now,
	}
	repository.nextID++
	repository.rows = append(repository.rows, row)

	copied := *row
	return address.WriteResult{Address: &copied, Outcome: address.OutcomeWritten}, nil
}

func (repository *memoryRepository) List(_ context.Context, owner string, filter address.Filter, limit, offset int) ([]*address.Address, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	matches := []*address.Address{}
	for _, row := range repository.rows {
		if row.OwnerID != owner ||
			(filter.Street != "" && row.Street != filter.Street) ||
			(filter.City != "" && row.City != filter.City) ||
			(filter.Postcode != "" && row.Postcode != filter.Postcode) ||
			(filter.Country != "" && row.Country != filter.Country) {
			continue
		}
		copied := *row
		matches = append(matches, &copied)
	}

	total := len(matches)
	if offset >= total {
		return []*address.Address{}, total, nil
	}
	end := min(offset+limit, total)
	return matches[offset:end], total, nil
}

func (repository *memoryRepository) find(owner string, id int64) *address.Address {
	for _, row := range repository.rows {
		if row.ID == id && row.OwnerID == owner {
			return row
		}
	}
	return nil
}

func (repository *memoryRepository) FindByID(_ context.Context, owner string, id int64) (*address.Address, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	row := repository.find(owner, id)
	if row == nil {
		return nil, apperr.NotFound("Address")
	}
	copied := *row
	return &copied, nil
}

func (repository *memoryRepository) Update(_ context.Context, owner string, id int64, fields address.Fields) (address.WriteResult, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	row := repository.find(owner, id)
	if row == nil {
		return address.WriteResult{}, apperr.NotFound("Address")
	}
	if repository.collides(owner, fields, id) {
		return address.WriteResult{Outcome: address.OutcomeDuplicate}, nil
	}

	row.Street, row.City, row.Postcode, row.Country = fields.Street, fields.City, fields.Postcode, fields.Country
	row.UpdatedAt = time.Now()

	copied := *row
	return address.WriteResult{Address: &copied, Outcome: address.OutcomeWritten}, nil
}

func (repository *memoryRepository) Delete(_ context.Context, owner string, id int64) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	before := len(repository.rows)
	repository.rows = slices.DeleteFunc(repository.rows, func(row *address.Address) bool {
		return row.ID == id && row.OwnerID == owner
	})
	if len(repository.rows) == before {
		return apperr.NotFound("Address")
	}
	return nil
}

func (repository *memoryRepository) DeleteMany(_ context.Context, owner string, selection address.Selection) ([]int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	deleted := []int64{}
	repository.rows = slices.DeleteFunc(repository.rows, func(row *address.Address) bool {
		if row.OwnerID != owner || !(selection.All || slices.Contains(selection.IDs, row.ID)) {
			return false
		}
		deleted = append(deleted, row.ID)
		return true
	})
	return deleted, nil
}

// ownerRows returns every stored row of owner, bypassing the service.
func (repository *memoryRepository) ownerRows(owner string) []address.Address {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	rows := []address.Address{}
	for _, row := range repository.rows {
		if row.OwnerID == owner {
			rows = append(rows, *row)
		}
	}
	return rows
}

// recordingPublisher keeps every event published under a live context.
type recordingPublisher struct {
	mu     sync.Mutex
	events []address.Event
	err    error
}

func (publisher *recordingPublisher) Publish(ctx context.Context, event address.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	publisher.events = append(publisher.events, event)
	return publisher.err
}

func (publisher *recordingPublisher) types() []address.EventType {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	types := make([]address.EventType, 0, len(publisher.events))
	for _, event := range publisher.events {
		types = append(types, event.Type)
	}
	return types
}

var defaultLimits = address.Limits{Street: 300, City: 300, Postcode: 300, Country: 300}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(options address.Options) (*address.Service, *memoryRepository, *recordingPublisher) {
	if options.Limits == (address.Limits{}) {
		options.Limits = defaultLimits
	}
	repository := newMemoryRepository()
	publisher := &recordingPublisher{}
	return address.NewService(repository, publisher, options, discardLogger()), repository, publisher
}
