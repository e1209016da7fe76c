package test_utils

import (
	"context"
	"net/http"

	"github.com/sequenceit/proposaldesk/pkg/user"
)

const TestUserId = "test-user-1"

func UserContext() context.Context {
	return user.WithId(context.Background(), TestUserId)
}

// WithUser wraps next so every request carries uid the way the X-User-Id
// middleware would set it.
func WithUser(uid string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(user.WithId(r.Context(), uid)))
	})
}
