package storage

import (
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Sentinel causes carried inside *StorageError.
var (
	ErrNotFound     = errors.New("object not found")
	ErrKeyExists    = errors.New("key already in use")
	ErrInvalidKey   = errors.New("invalid key")
	ErrTooLarge     = errors.New("object too large")
	ErrAccessDenied = errors.New("access denied")
)

// StorageError records which operation on which key failed.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return "storage " + e.Op + ": " + e.Err.Error()
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// SheetKey names a lead's recommendation sheet: sheets/{leadID}.pdf.
func SheetKey(leadID uuid.UUID) string {
	return "sheets/" + leadID.String() + ".pdf"
}

// validateKey accepts relative slash-separated keys without ".." segments.
func validateKey(key string) error {
	switch {
	case key == "", strings.HasPrefix(key, "/"), strings.Contains(key, ".."):
		return ErrInvalidKey
	}
	return nil
}

// DetectContentType keeps an explicit type and otherwise guesses from the
// key's extension.
func DetectContentType(explicit, key string) string {
	if explicit != "" {
		return explicit
	}
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(key))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
