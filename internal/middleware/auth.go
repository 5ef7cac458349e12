package middleware

import (
	"net/http"
	"strings"
	"textwatch/internal/auth"
)

// publicPaths are reachable without the auth cookie.
var publicPaths = []string{"/login", "/auth/login", "/metrics"}

// publicPrefixes cover static assets.
var publicPrefixes = []string{"/static/css/", "/static/js/"}

func isPublic(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// AuthMiddleware sprawdza, czy użytkownik jest zalogowany (ma ważny token w cookie)
func AuthMiddleware(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(auth.CookieName)
		if err != nil || auth.Verify(secret, cookie.Value) != nil {
			// API i websocket dostają 401, przeglądarka przekierowanie na login
			if strings.HasPrefix(r.URL.Path, "/api/") ||
				r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
