package app

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sequenceit/proposaldesk/pkg/user"
	log "github.com/sirupsen/logrus"
)

const userIdHeader = "X-User-Id"

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {
	r.Use(requestLogging)
	r.Use(deps.Metrics.Middleware)
	r.Use(propagateUser)
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, req)
		log.WithFields(log.Fields{
			"method":   req.Method,
			"path":     req.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("request handled")
	})
}

// propagateUser stores the trusted X-User-Id header in the request context.
// Requests without it reach handlers anonymously; draft operations then
// answer 403.
func propagateUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		uid := req.Header.Get(userIdHeader)
		if uid == "" {
			log.Trace("request without user id")
			next.ServeHTTP(w, req)
			return
		}
		log.Tracef("request for user %s", uid)
		next.ServeHTTP(w, req.WithContext(user.WithId(req.Context(), uid)))
	})
}
