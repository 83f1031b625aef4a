// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package address

import "context"

// # Address Data Access

// Repository defines the data access contract for the address domain.
//
// Every method takes the owner explicitly. Implementations never return or
// modify rows of another owner.
type Repository interface {

	/*
		Insert stores a new address for owner.

		Parameters:
		  - context: context.Context
		  - owner: string (User ID)
		  - fields: Fields (Already normalised and validated)

		Returns:
		  - WriteResult: OutcomeDuplicate if owner already stores the same key
		  - error: Storage failures only
	*/
	Insert(context context.Context, owner string, fields Fields) (WriteResult, error)

	/*
		List returns a filtered page of the owner's addresses in insertion order.

		Parameters:
		  - context: context.Context
		  - owner: string (User ID)
		  - filter: Filter (Exact-match criteria)
		  - limit: int
		  - offset: int

		Returns:
		  - []*Address: The requested page
		  - int: Total count of the owner's addresses matching the filter
		  - error: Database retrieval failures
	*/
	List(context context.Context, owner string, filter Filter, limit, offset int) ([]*Address, int, error)

	/*
		FindByID returns the owner's address with the given id.

		Returns:
		  - *Address: The stored address
		  - error: NotFound if missing or owned by someone else
	*/
	FindByID(context context.Context, owner string, id int64) (*Address, error)

	/*
		Update replaces the writable fields of the owner's address.

		Returns:
		  - WriteResult: OutcomeDuplicate if the new key collides with another of the owner's rows
		  - error: NotFound if missing or owned by someone else
	*/
	Update(context context.Context, owner string, id int64, fields Fields) (WriteResult, error)

	/*
		Delete removes the owner's address with the given id.

		Returns:
		  - error: NotFound if missing or owned by someone else
	*/
	Delete(context context.Context, owner string, id int64) error

	/*
		DeleteMany removes the selected addresses of owner.

		Ids that do not exist or belong to someone else are skipped silently.

		Returns:
		  - []int64: The ids actually deleted
		  - error: Storage failures
	*/
	DeleteMany(context context.Context, owner string, selection Selection) ([]int64, error)
}
