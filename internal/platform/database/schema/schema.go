// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns of the database, so queries
// never spell them twice.
package schema

import "strings"

// List joins column names for a SELECT or RETURNING clause.
func List(columns []string) string {
	return strings.Join(columns, ", ")
}
