package middleware

import (
	"net/http"
	"strings"
)

// SecurityHeadersMiddleware stamps a fixed set of security headers on every
// response. The set is computed once in the constructor.
type SecurityHeadersMiddleware struct {
	headers http.Header
}

// NewSecurityHeadersMiddleware builds the header set. frameAncestors are the
// sites allowed to embed the calculator in an iframe; with none, framing is
// denied. isSecure adds HSTS.
func NewSecurityHeadersMiddleware(isSecure bool, frameAncestors []string) *SecurityHeadersMiddleware {
	h := http.Header{}
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
	h.Set("Content-Security-Policy", contentSecurityPolicy(frameAncestors))

	// X-Frame-Options has no allow-list form.
	if len(frameAncestors) == 0 {
		h.Set("X-Frame-Options", "DENY")
	}
	if isSecure {
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
	return &SecurityHeadersMiddleware{headers: h}
}

func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dst := w.Header()
		for k, v := range m.headers {
			dst[k] = v
		}
		next.ServeHTTP(w, r)
	})
}

func contentSecurityPolicy(frameAncestors []string) string {
	ancestors := "'none'"
	if len(frameAncestors) > 0 {
		ancestors = "'self' " + strings.Join(frameAncestors, " ")
	}

	directives := []string{
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"connect-src 'self'",
		"frame-ancestors " + ancestors,
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(directives, "; ")
}
