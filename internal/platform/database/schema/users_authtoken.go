// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// UserAuthTokenTable represents the 'users.authtoken' table
type UserAuthTokenTable struct {
	Table     string
	Key       string
	UserID    string
	CreatedAt string

	// PrimaryKey is the constraint name reported when two keys collide.
	PrimaryKey string
}

// UserAuthToken is the schema definition for users.authtoken
var UserAuthToken = UserAuthTokenTable{
	Table:      "users.authtoken",
	Key:        "key",
	UserID:     "userid",
	CreatedAt:  "createdat",
	PrimaryKey: "authtoken_pkey",
}
