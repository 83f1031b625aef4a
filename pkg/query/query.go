// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-valued URL query parameters.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Int64List parses a comma-separated list of integers ("1,2,3").
//
// Unlike the lenient helpers in pkg/convert, every entry must parse: a single
// malformed entry (including an empty one, as in "1,,2") fails the whole list.
// Surrounding whitespace around an entry is tolerated. An empty input yields a
// nil slice and no error.
func Int64List(val string) ([]int64, error) {
	if strings.TrimSpace(val) == "" {
		return nil, nil
	}

	parts := strings.Split(val, ",")
	res := make([]int64, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("query: invalid integer %q", part)
		}
		res = append(res, n)
	}
	return res, nil
}
