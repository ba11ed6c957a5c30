// Package csrf protects the wizard endpoints with the double-submit cookie
// pattern.
//
// The token is set in a cookie and also returned to the client, which sends
// it back in the X-CSRF-Token header (or the csrf_token form field) on every
// state-changing request. A cross-site page can make the browser send the
// cookie but cannot read it, so it cannot produce the matching header.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/greenmarine/internal/domain"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// CookieName is the name of the CSRF token cookie.
	CookieName = "gm_csrf"

	// HeaderName carries the token on API requests.
	HeaderName = "X-CSRF-Token"

	// FormFieldName is the fallback for plain form posts.
	FormFieldName = "csrf_token"

	// TokenLength is the number of random bytes for the token (32 bytes = 256 bits).
	TokenLength = 32

	// CookieMaxAge matches the idle lifetime of a wizard session.
	CookieMaxAge = 2 * 60 * 60
)

// RejectedMessage is shown when the token check fails.
const RejectedMessage = "Uw sessie is verlopen. Vernieuw de pagina en probeer het opnieuw."

// =============================================================================
// Token Generation
// =============================================================================

// GenerateToken returns 32 random bytes, base64 URL-encoded (43 characters).
func GenerateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// =============================================================================
// Token Validation
// =============================================================================

// ValidateToken compares the cookie token with the submitted token in
// constant time.
func ValidateToken(cookieToken, submitted string) bool {
	if cookieToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) == 1
}

// ValidateRequest checks the header, falling back to the form field.
func ValidateRequest(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}

	submitted := r.Header.Get(HeaderName)
	if submitted == "" {
		submitted = r.PostFormValue(FormFieldName)
	}
	return ValidateToken(cookie.Value, submitted)
}

// =============================================================================
// Cookie Management
// =============================================================================

// SetCookie sets the token cookie. When isSecure is set the cookie is sent
// with SameSite=None so it works inside a cross-site iframe.
func SetCookie(w http.ResponseWriter, token string, isSecure bool) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: false, // the client echoes it in a header
		SameSite: http.SameSiteLaxMode,
	}
	if isSecure {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, cookie)
}

// GetTokenFromRequest returns the cookie token, or "".
func GetTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// EnsureToken returns the request's token, issuing a new cookie when there
// is none.
func EnsureToken(w http.ResponseWriter, r *http.Request, isSecure bool) (string, error) {
	if existing := GetTokenFromRequest(r); existing != "" {
		return existing, nil
	}

	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	SetCookie(w, token, isSecure)
	return token, nil
}

// =============================================================================
// Middleware
// =============================================================================

// Protect rejects unsafe requests without a matching token with 403.
func Protect(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			if !ValidateRequest(r) {
				logger.Warn("csrf token rejected",
					"path", r.URL.Path,
					"method", r.Method,
					"has_cookie", GetTokenFromRequest(r) != "",
				)
				writeRejected(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeRejected(w http.ResponseWriter) {
	e := domain.Forbidden("csrf.protect", RejectedMessage)
	body := map[string]any{
		"error": map[string]string{
			"code":    e.Code,
			"message": e.Message,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(body)
}
