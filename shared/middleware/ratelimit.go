package middleware

import (
	"net/http"

	"github.com/boxforum/boxforum/shared/middleware/ratelimiter"
	"github.com/boxforum/boxforum/shared/utils"
)

// RateLimit rejects requests once the identity's bucket is empty. Admins
// are never limited.
func RateLimit(rl *ratelimiter.Limiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUserFromContext(r).IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := getIdentity(r)
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if !rl.Allow(identity) {
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserOrIP identifies signed-in users by id and everyone else by address.
func UserOrIP(r *http.Request) (string, error) {
	if user := GetUserFromContext(r); user != nil {
		return "user_" + user.Id, nil
	}
	return utils.GetIP(r)
}
