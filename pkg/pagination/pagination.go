// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides shared types and helpers for API list endpoints.
//
// # Overview
//
// It standardizes how page-based navigation is requested via query parameters
// ("page", "page_size") and how the resulting metadata is delivered in the
// response body: {count, next, previous, results}.
package pagination

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/taibuivan/addressbook/pkg/convert"
)

const (
	// DefaultPageSize is the number of items per page if not specified.
	DefaultPageSize = 100
	// MaxPageSize is the upper bound for items per page to prevent system abuse.
	MaxPageSize = 1000
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1

	// maxOffset bounds Offset so that Offset plus one page still fits in an int.
	maxOffset = math.MaxInt - MaxPageSize

	pageParam     = "page"
	pageSizeParam = "page_size"
)

// Params holds the parsed page and page size from a request's query string.
type Params struct {
	Page     int
	PageSize int
}

// Offset returns the SQL OFFSET value derived from [Page] and [PageSize].
//
// It saturates at maxOffset instead of overflowing.
func (p Params) Offset() int {
	if p.Page <= 1 || p.PageSize <= 0 {
		return 0
	}
	if p.Page-1 > maxOffset/p.PageSize {
		return maxOffset
	}
	return (p.Page - 1) * p.PageSize
}

// Limit returns the SQL LIMIT value.
func (p Params) Limit() int {
	return p.PageSize
}

// Meta is the pagination metadata included in API list responses.
//
// Next and Previous are absolute-path links to the neighbouring pages, or nil
// at either end of the collection.
type Meta struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// NewMeta constructs pagination metadata for a response.
//
// The links reuse every query parameter of the current request (filters
// included) and only rewrite "page".
func NewMeta(request *http.Request, params Params, total int) Meta {
	meta := Meta{Count: total}

	if params.Offset() < total-params.PageSize {
		link := pageLink(request.URL, params.Page+1)
		meta.Next = &link
	}

	if params.Page > 1 {
		link := pageLink(request.URL, params.Page-1)
		meta.Previous = &link
	}

	return meta
}

// FromRequest parses "page" and "page_size" query parameters from an HTTP request.
//
// # Clamping
//
// Invalid, negative, or excessive values are automatically clamped to
// [DefaultPage], [DefaultPageSize], or [MaxPageSize]. The page is capped so
// that its offset never overflows.
func FromRequest(r *http.Request) Params {
	query := r.URL.Query()
	page := convert.ToIntD(query.Get(pageParam), DefaultPage)
	pageSize := convert.ToIntD(query.Get(pageSizeParam), DefaultPageSize)

	if page < 1 {
		page = DefaultPage
	}

	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	if lastPage := maxOffset/pageSize + 1; page > lastPage {
		page = lastPage
	}

	return Params{Page: page, PageSize: pageSize}
}

// pageLink rewrites the page parameter of source.
func pageLink(source *url.URL, page int) string {
	target := *source
	query := target.Query()
	query.Set(pageParam, strconv.Itoa(page))
	target.RawQuery = query.Encode()
	return target.RequestURI()
}
