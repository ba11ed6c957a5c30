package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
)

// BasicAuthMiddleware guards the operator endpoints: /metrics and the lead
// lookup. Without configured credentials it lets everything through.
type BasicAuthMiddleware struct {
	realm    string
	userHash [sha256.Size]byte
	passHash [sha256.Size]byte
	enabled  bool
}

func NewBasicAuthMiddleware(realm, username, password string) *BasicAuthMiddleware {
	return &BasicAuthMiddleware{
		realm:    realm,
		userHash: sha256.Sum256([]byte(username)),
		passHash: sha256.Sum256([]byte(password)),
		enabled:  username != "" || password != "",
	}
}

func (m *BasicAuthMiddleware) Enabled() bool { return m.enabled }

func (m *BasicAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.enabled && !m.authorized(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+m.realm+`"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authorized compares fixed-size digests so neither the length nor the
// content of the configured credentials leaks through timing.
func (m *BasicAuthMiddleware) authorized(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	u := sha256.Sum256([]byte(user))
	p := sha256.Sum256([]byte(pass))
	userOK := subtle.ConstantTimeCompare(u[:], m.userHash[:])
	passOK := subtle.ConstantTimeCompare(p[:], m.passHash[:])
	return userOK&passOK == 1
}
