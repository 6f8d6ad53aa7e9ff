package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"time"
)

const (
	csrfTokenLength = 32
	CSRFCookie      = "csrf_token"
	CSRFHeader      = "X-CSRF-Token"
	csrfTokenExpiry = 24 * time.Hour
)

// CSRF protects requests authenticated by the token cookie with a
// double-submit check: unsafe methods must echo the csrf_token cookie in the
// X-CSRF-Token header. Requests carrying their token in a header cannot be
// forged cross-site and pass through.
func CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !usesTokenCookie(r) {
			next.ServeHTTP(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			if _, err := r.Cookie(CSRFCookie); err != nil {
				if err := SetCSRFCookie(w, r); err != nil {
					writeError(w, http.StatusInternalServerError, "Failed to issue CSRF token")
					return
				}
			}
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(CSRFCookie)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusForbidden, "CSRF token missing")
			return
		}
		provided := r.Header.Get(CSRFHeader)
		if provided == "" {
			writeError(w, http.StatusForbidden, "CSRF token missing")
			return
		}
		if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(provided)) != 1 {
			writeError(w, http.StatusForbidden, "Invalid CSRF token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func usesTokenCookie(r *http.Request) bool {
	if r.Header.Get("Authorization") != "" || r.Header.Get("X-Auth-Token") != "" {
		return false
	}
	cookie, err := r.Cookie(TokenCookie)
	return err == nil && cookie.Value != ""
}

// SetCSRFCookie issues a fresh token readable by the page's scripts.
func SetCSRFCookie(w http.ResponseWriter, r *http.Request) error {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: false,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(csrfTokenExpiry.Seconds()),
	})
	return nil
}
