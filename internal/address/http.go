// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package address

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/addressbook/internal/platform/apperr"
	"github.com/taibuivan/addressbook/internal/platform/ctxutil"
	"github.com/taibuivan/addressbook/internal/platform/middleware"
	requestutil "github.com/taibuivan/addressbook/internal/platform/request"
	"github.com/taibuivan/addressbook/internal/platform/respond"
	"github.com/taibuivan/addressbook/pkg/convert"
	"github.com/taibuivan/addressbook/pkg/pagination"
	"github.com/taibuivan/addressbook/pkg/query"
)

// # Handler Implementation

// Handler implements the HTTP layer of the address collection.
type Handler struct {
	service *Service
}

// NewHandler constructs a new address [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the address endpoints.
//
// Every route requires authentication. "/delete_multiple" is a static segment,
// so chi matches it before the "/{id}" pattern.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.listAddresses)
	router.Post("/", handler.createAddress)
	router.Delete("/delete_multiple", handler.deleteAddresses)

	router.Get("/{id}", handler.getAddress)
	router.Put("/{id}", handler.updateAddress)
	router.Patch("/{id}", handler.patchAddress)
	router.Delete("/{id}", handler.deleteAddress)

	return router
}

// # Collection Endpoints

/*
GET /api/addresses.

Description: Lists the caller's addresses in insertion order.

Request:
  - street, city, postcode, country: string (Exact match, optional)
  - page: int
  - page_size: int

Response:
  - 200: {count, next, previous, results}
*/
func (handler *Handler) listAddresses(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	queryParams := request.URL.Query()

	filter := Filter{
		Street:   queryParams.Get(FieldStreet),
		City:     queryParams.Get(FieldCity),
		Postcode: queryParams.Get(FieldPostcode),
		Country:  queryParams.Get(FieldCountry),
	}

	page, err := handler.service.List(request.Context(), caller, filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, page.Items, pagination.NewMeta(request, params, page.Total))
}

/*
POST /api/addresses.

Request:
  - Body: {street, city, postcode, country}

Response:
  - 201: Address
  - 400: Validation error, or {"error": "User already have this address"}
*/
func (handler *Handler) createAddress(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Fields
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	address, err := handler.service.Create(request.Context(), caller, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, address)
}

/*
DELETE /api/addresses/delete_multiple.

Request:
  - ids: string (Comma-separated ids, e.g. "1,2,3")
  - all: bool (Delete the whole collection when ids is absent)

Response:
  - 204: No content
  - 400: Unparsable ids, neither ids nor all=true given, or both given
*/
func (handler *Handler) deleteAddresses(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	queryParams := request.URL.Query()

	ids, err := query.Int64List(queryParams.Get(FieldIDs))
	if err != nil {
		respond.Error(writer, request, apperr.MalformedRequest("ids must be a comma-separated list of integers."))
		return
	}

	deleted, err := handler.service.DeleteMany(request.Context(), caller, ids, convert.ToBool(queryParams.Get("all")))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), "addresses_deleted",
		slog.Int("requested", len(ids)),
		slog.Any("deleted_ids", deleted),
	)

	respond.NoContent(writer)
}

// # Item Endpoints

/*
GET /api/addresses/{id}.

Response:
  - 200: Address
  - 404: Missing, foreign or non-numeric id
*/
func (handler *Handler) getAddress(writer http.ResponseWriter, request *http.Request) {
	caller, id, err := callerAndID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	address, err := handler.service.Get(request.Context(), caller, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, address)
}

/*
PUT /api/addresses/{id}.

Description: Full replacement. Every field is required.
*/
func (handler *Handler) updateAddress(writer http.ResponseWriter, request *http.Request) {
	caller, id, err := callerAndID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Fields
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	address, err := handler.service.Update(request.Context(), caller, id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, address)
}

/*
PATCH /api/addresses/{id}.

Description: Partial update. Absent fields keep their value.
*/
func (handler *Handler) patchAddress(writer http.ResponseWriter, request *http.Request) {
	caller, id, err := callerAndID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Patch
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	address, err := handler.service.Patch(request.Context(), caller, id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, address)
}

// DELETE /api/addresses/{id}.
func (handler *Handler) deleteAddress(writer http.ResponseWriter, request *http.Request) {
	caller, id, err := callerAndID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), caller, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// callerAndID extracts the authenticated owner and the {id} path parameter.
func callerAndID(request *http.Request) (string, int64, error) {
	caller, err := requestutil.RequiredUserID(request)
	if err != nil {
		return "", 0, err
	}

	id, err := requestutil.Int64Param(request, "id", "Address")
	if err != nil {
		return "", 0, err
	}

	return caller, id, nil
}
