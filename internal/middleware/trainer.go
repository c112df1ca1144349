package middleware

import (
	"net/http"

	"github.com/fitcoach/backend/internal/contextkeys"
	"github.com/fitcoach/backend/internal/handler"
)

// TrainerOnly middleware ensures the user has 'trainer' role. Admins pass
// too. Must be used AFTER Auth middleware which sets contextkeys.UserRole.
func TrainerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(contextkeys.UserRole).(string)
		if !ok || (role != "trainer" && role != "admin") {
			handler.JSON(w, http.StatusForbidden, map[string]string{"error": "forbidden: trainer access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
