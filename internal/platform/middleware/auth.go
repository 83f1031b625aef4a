// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taibuivan/addressbook/internal/platform/apperr"
	"github.com/taibuivan/addressbook/internal/platform/constants"
	"github.com/taibuivan/addressbook/internal/platform/ctxutil"
	"github.com/taibuivan/addressbook/internal/platform/respond"
	"github.com/taibuivan/addressbook/internal/platform/sec"
)

// TokenResolver defines the interface needed to resolve tokens in middleware.
//
// Defining it here decouples the middleware from the auth service, which lets
// tests inject a fake resolver.
type TokenResolver interface {
	Authenticate(context context.Context, token string) (*sec.Principal, error)
}

// Authenticate resolves the opaque token from the Authorization header.
//
// # Flow
//  1. Look for an 'Authorization: Token <value>' header.
//  2. If absent or using another scheme, the request proceeds as anonymous.
//  3. If present, resolve the token via [TokenResolver].
//  4. Inject the [*sec.Principal] into the request context for downstream use.
func Authenticate(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			parts := strings.Fields(request.Header.Get(constants.HeaderAuthorization))

			// 1. Anonymous access
			if len(parts) == 0 || !strings.EqualFold(parts[0], constants.AuthScheme) {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Format validation
			if len(parts) != 2 {
				respond.Error(writer, request, apperr.Unauthorized("Invalid token header."))
				return
			}

			// 3. Token resolution. Storage failures surface as 500, not 401.
			principal, err := resolver.Authenticate(request.Context(), parts[1])
			if err != nil {
				if !apperr.IsAppError(err) {
					err = apperr.Internal(err)
				}
				respond.Error(writer, request, err)
				return
			}

			// 4. Context injection
			trackPrincipal(request.Context(), principal.UserID)
			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetPrincipal(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication credentials were not provided."))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
