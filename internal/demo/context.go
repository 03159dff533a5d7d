package demo

import (
	"context"
	"net/http"

	"github.com/avilkin/classdesk/internal/model"
)

// contextWithUser stores the authenticated user in the request context.
func contextWithUser(ctx context.Context, u model.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// userFromRequest retrieves the authenticated user set by requireAuth.
func userFromRequest(r *http.Request) model.User {
	u, _ := r.Context().Value(userCtxKey{}).(model.User)
	return u
}
