package handler

import (
	"crypto/subtle"
	"net/http"
	"textwatch/internal/auth"
	"textwatch/internal/config"
	"textwatch/internal/logger"
)

// LoginHandler handles POST /auth/login by validating password and issuing an auth cookie.
func LoginHandler(config *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		password := r.FormValue("password")
		if subtle.ConstantTimeCompare([]byte(password), []byte(config.Password)) != 1 {
			logger.Warning("Failed login attempt from %s", r.RemoteAddr)
			http.Error(w, "Invalid password", http.StatusUnauthorized)
			return
		}

		token, expiresAt, err := auth.Sign(config.TokenSecret(), config.AuthTTL)
		if err != nil {
			logger.Error("Failed to issue auth token: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    token,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
			Secure:   config.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// LogoutHandler clears the auth cookie.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
