package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

const (
	HeaderUserKey  = "X-Herald-User-Key"
	HeaderUserName = "X-Herald-User-Name"
)

// Actor puts the calling user on the request context. The user is asserted
// by the fronting proxy through headers; requests without a user key get 401.
func Actor(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(HeaderUserKey))
			if key == "" {
				log.Debug("request without actor",
					logger.String("path", r.URL.Path))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthenticated","message":"missing ` + HeaderUserKey + ` header"}` + "\n"))
				return
			}

			actor := domain.Actor{
				Key:         key,
				DisplayName: strings.TrimSpace(r.Header.Get(HeaderUserName)),
			}
			recordActor(r, actor)
			next.ServeHTTP(w, r.WithContext(domain.WithActor(r.Context(), actor)))
		})
	}
}
