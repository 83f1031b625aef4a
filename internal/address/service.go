// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package address

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/addressbook/internal/platform/apperr"
	"github.com/taibuivan/addressbook/internal/platform/validate"
	"github.com/taibuivan/addressbook/pkg/pagination"
)

// # Service Layer

// Options configures the behaviour of the address [Service].
type Options struct {
	Limits Limits

	// ImplicitAll makes a bulk delete without ids remove the whole collection.
	ImplicitAll bool

	// PublishTimeout bounds each event publish. Zero means DefaultPublishTimeout.
	PublishTimeout time.Duration
}

// DefaultPublishTimeout caps how long a write waits on the event broker.
const DefaultPublishTimeout = 2 * time.Second

// Service orchestrates the business logic of an owner's address collection.
//
// The owner always comes from the authenticated caller; no input field can set it.
type Service struct {
	repository  Repository
	publisher   EventPublisher
	limits      Limits
	implicitAll bool
	timeout     time.Duration
	logger      *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(repository Repository, publisher EventPublisher, options Options, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if options.PublishTimeout <= 0 {
		options.PublishTimeout = DefaultPublishTimeout
	}
	return &Service{
		repository:  repository,
		publisher:   publisher,
		limits:      options.Limits,
		implicitAll: options.ImplicitAll,
		timeout:     options.PublishTimeout,
		logger:      logger,
	}
}

// # Address Lookups

/*
List retrieves a filtered page of the caller's addresses.

Parameters:
  - context: context.Context
  - caller: string (Authenticated user ID)
  - filter: Filter (Exact-match criteria, empty fields ignored)
  - params: pagination.Params

Returns:
  - *Page: The page and the total matching count
  - error: Repository level errors
*/
func (service *Service) List(context context.Context, caller string, filter Filter, params pagination.Params) (*Page, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	items, total, err := service.repository.List(context, caller, filter.Normalize(), params.Limit(), params.Offset())
	if err != nil {
		return nil, err
	}

	return &Page{Items: items, Total: total}, nil
}

// Get fetches one of the caller's addresses.
func (service *Service) Get(context context.Context, caller string, id int64) (*Address, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return service.repository.FindByID(context, caller, id)
}

// # Address Management

/*
Create stores a new address owned by the caller.

Description: Fields are normalised before validation so that the uniqueness
key compares canonical text. A duplicate key is reported as [ErrAlreadyExists].

Parameters:
  - context: context.Context
  - caller: string (Authenticated user ID, becomes the owner)
  - fields: Fields

Returns:
  - *Address: The stored address with its assigned id
  - error: Validation, duplicate or persistence errors
*/
func (service *Service) Create(context context.Context, caller string, fields Fields) (*Address, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	fields = fields.Normalize()
	if err := service.validate(fields); err != nil {
		return nil, err
	}

	result, err := service.repository.Insert(context, caller, fields)
	if err != nil {
		return nil, err
	}

	if result.Outcome == OutcomeDuplicate {
		return nil, ErrAlreadyExists
	}

	service.publish(context, Event{Type: EventCreated, OwnerID: caller, AddressIDs: []int64{result.Address.ID}, Address: result.Address})

	return result.Address, nil
}

/*
Update replaces every writable field of one of the caller's addresses.

Returns:
  - *Address: The updated address
  - error: NotFound, validation, duplicate or persistence errors
*/
func (service *Service) Update(context context.Context, caller string, id int64, fields Fields) (*Address, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	fields = fields.Normalize()
	if err := service.validate(fields); err != nil {
		return nil, err
	}

	return service.write(context, caller, id, fields)
}

/*
Patch changes only the fields present in patch.

Description: The current row is read first and the patch is overlaid on it, so
the merged address is validated as a whole before it is written.
*/
func (service *Service) Patch(context context.Context, caller string, id int64, patch Patch) (*Address, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	current, err := service.repository.FindByID(context, caller, id)
	if err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		return current, nil
	}

	fields := patch.Apply(current.Fields()).Normalize()
	if err := service.validate(fields); err != nil {
		return nil, err
	}

	return service.write(context, caller, id, fields)
}

// Delete removes one of the caller's addresses.
func (service *Service) Delete(context context.Context, caller string, id int64) error {
	if err := requireCaller(caller); err != nil {
		return err
	}

	if err := service.repository.Delete(context, caller, id); err != nil {
		return err
	}

	service.publish(context, Event{Type: EventDeleted, OwnerID: caller, AddressIDs: []int64{id}})
	return nil
}

/*
DeleteMany removes a selection of the caller's addresses.

Description: Ids that do not name one of the caller's addresses are skipped.
Without ids the caller must ask for the whole collection explicitly (all=true),
unless the service runs with ImplicitAll. Ids combined with all=true are rejected.

Parameters:
  - context: context.Context
  - caller: string (Authenticated user ID)
  - ids: []int64 (May be empty)
  - all: bool (Delete the whole collection)

Returns:
  - []int64: The ids actually deleted
  - error: MalformedRequest for an empty or ambiguous selection, or persistence errors
*/
func (service *Service) DeleteMany(context context.Context, caller string, ids []int64, all bool) ([]int64, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	if all && len(ids) > 0 {
		return nil, apperr.MalformedRequest("Provide either ids or all=true, not both.")
	}

	selection := Selection{IDs: ids, All: all}
	if !all && len(ids) == 0 {
		if !service.implicitAll {
			return nil, apperr.MalformedRequest("Provide ids to delete, or all=true to delete every address.")
		}
		selection.All = true
	}

	deleted, err := service.repository.DeleteMany(context, caller, selection)
	if err != nil {
		return nil, err
	}

	if len(deleted) > 0 {
		service.publish(context, Event{Type: EventDeleted, OwnerID: caller, AddressIDs: deleted})
	}

	return deleted, nil
}

// # Helpers

// write runs a repository update and maps its outcome.
func (service *Service) write(context context.Context, caller string, id int64, fields Fields) (*Address, error) {
	result, err := service.repository.Update(context, caller, id, fields)
	if err != nil {
		return nil, err
	}

	if result.Outcome == OutcomeDuplicate {
		return nil, ErrAlreadyExists
	}

	service.publish(context, Event{Type: EventUpdated, OwnerID: caller, AddressIDs: []int64{id}, Address: result.Address})

	return result.Address, nil
}

// validate checks presence and configured bounds of normalised fields.
func (service *Service) validate(fields Fields) error {
	validator := &validate.Validator{}

	validator.Required(FieldStreet, fields.Street).MaxLen(FieldStreet, fields.Street, service.limits.Street)
	validator.Required(FieldCity, fields.City).MaxLen(FieldCity, fields.City, service.limits.City)
	validator.Required(FieldPostcode, fields.Postcode).MaxLen(FieldPostcode, fields.Postcode, service.limits.Postcode)
	validator.Required(FieldCountry, fields.Country).MaxLen(FieldCountry, fields.Country, service.limits.Country)

	return validator.Err()
}

// publish emits an event. The change is already committed, so failures are only logged.
//
// The publish outlives a cancelled request but never the service's timeout.
func (service *Service) publish(parent context.Context, event Event) {
	event.OccurredAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), service.timeout)
	defer cancel()

	if err := service.publisher.Publish(ctx, event); err != nil {
		service.logger.WarnContext(parent, "address_event_publish_failed",
			slog.String("type", string(event.Type)),
			slog.String("owner_id", event.OwnerID),
			slog.Any("error", err),
		)
	}
}

// requireCaller rejects calls without an authenticated owner.
func requireCaller(caller string) error {
	if caller == "" {
		return apperr.Unauthorized("Authentication credentials were not provided.")
	}
	return nil
}
