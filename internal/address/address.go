// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package address manages each user's private collection of postal addresses.

Every operation is scoped to an owner taken from the authenticated caller. A
caller can never read, change or delete another user's address, and an address
that belongs to someone else is reported exactly like one that does not exist.

Core Responsibility:

  - Uniqueness: One owner cannot store the same (street, city, country) twice.
    Postcode is not part of the key.
  - Filtering: Exact-match filters over the four address fields.
  - Bulk operations: Deleting a selection of ids, or the whole collection.
*/
package address

import (
	"net/http"
	"time"

	"github.com/taibuivan/addressbook/internal/platform/apperr"
	"github.com/taibuivan/addressbook/pkg/pointer"
	"github.com/taibuivan/addressbook/pkg/textnorm"
)

// # Field Identifiers

const (
	FieldStreet   = "street"
	FieldCity     = "city"
	FieldPostcode = "postcode"
	FieldCountry  = "country"
	FieldIDs      = "ids"
)

// CodeAlreadyExists identifies a duplicate (owner, street, city, country) tuple.
const CodeAlreadyExists = "ADDRESS_ALREADY_EXISTS"

// ErrAlreadyExists is returned when the caller already stores the same address.
var ErrAlreadyExists = apperr.New(CodeAlreadyExists, "User already have this address", http.StatusBadRequest)

// # Domain Entities

// Address is one stored postal address.
//
// The owner is never serialised: clients only ever see their own addresses.
type Address struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"-"`
	Street    string    `json:"street"`
	City      string    `json:"city"`
	Postcode  string    `json:"postcode"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Fields holds the client-writable attributes of an address.
type Fields struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// Normalize returns a copy with every field trimmed and in Unicode NFC.
func (fields Fields) Normalize() Fields {
	return Fields{
		Street:   textnorm.Clean(fields.Street),
		City:     textnorm.Clean(fields.City),
		Postcode: textnorm.Clean(fields.Postcode),
		Country:  textnorm.Clean(fields.Country),
	}
}

// Fields returns the writable attributes of a stored address.
func (address *Address) Fields() Fields {
	return Fields{
		Street:   address.Street,
		City:     address.City,
		Postcode: address.Postcode,
		Country:  address.Country,
	}
}

// Patch is a partial update. Nil fields keep their current value.
type Patch struct {
	Street   *string `json:"street"`
	City     *string `json:"city"`
	Postcode *string `json:"postcode"`
	Country  *string `json:"country"`
}

// Apply overlays the patch on current.
func (patch Patch) Apply(current Fields) Fields {
	return Fields{
		Street:   pointer.Fallback(patch.Street, current.Street),
		City:     pointer.Fallback(patch.City, current.City),
		Postcode: pointer.Fallback(patch.Postcode, current.Postcode),
		Country:  pointer.Fallback(patch.Country, current.Country),
	}
}

// IsEmpty reports whether the patch changes nothing.
func (patch Patch) IsEmpty() bool {
	return patch.Street == nil && patch.City == nil && patch.Postcode == nil && patch.Country == nil
}

// Filter narrows a listing. Empty fields do not filter; set fields must match exactly.
type Filter struct {
	Street   string
	City     string
	Postcode string
	Country  string
}

// Normalize cleans filter values the same way stored values were cleaned.
func (filter Filter) Normalize() Filter {
	fields := Fields(filter).Normalize()
	return Filter(fields)
}

// Selection names the addresses a bulk delete removes.
//
// All and IDs are exclusive. An empty selection deletes nothing.
type Selection struct {
	IDs []int64
	All bool
}

// Limits bounds the character count of each field.
type Limits struct {
	Street   int
	City     int
	Postcode int
	Country  int
}

// # Write Outcomes

// Outcome tells how a write ended when it did not fail.
type Outcome int

const (
	// OutcomeWritten means the row was inserted or updated.
	OutcomeWritten Outcome = iota

	// OutcomeDuplicate means the owner already stores an address with the same key.
	OutcomeDuplicate
)

// String returns the outcome name for logs.
func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeWritten:
		return "written"
	case OutcomeDuplicate:
		return "duplicate"
	}
	return "unknown"
}

// WriteResult is the result of an insert or update that reached the store.
//
// Address is set only when Outcome is [OutcomeWritten].
type WriteResult struct {
	Address *Address
	Outcome Outcome
}

// Page is one page of an owner's addresses.
type Page struct {
	Items []*Address
	Total int
}
