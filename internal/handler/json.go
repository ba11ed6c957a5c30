package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/DukeRupert/greenmarine/internal/domain"
)

// maxBodyBytes caps request bodies on every JSON endpoint.
const maxBodyBytes = 64 << 10

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Invalid(op, "Verzoek is te groot")
		}
		return domain.Invalid(op, "Ongeldige JSON")
	}
	return nil
}

// isForm reports whether the request carries form-encoded data.
func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

// flexFloat accepts a JSON number or a numeric string. Anything else
// decodes to zero, which the engine replaces with its default.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// parseFormFloat parses a form value the same way flexFloat does.
func parseFormFloat(r *http.Request, key string) float64 {
	var f flexFloat
	_ = f.UnmarshalJSON([]byte(r.FormValue(key)))
	return float64(f)
}
