package id

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateFormat is the layout for effective dates.
const DateFormat = "2006-01-02"

// reservedChars cannot appear in account, category, or UTR keys.
const reservedChars = "/.#$[]"

// ErrEmptyKey is returned by ValidateKey for blank keys.
var ErrEmptyKey = errors.New("key is empty")

// NormalizeKey trims surrounding whitespace from a key.
func NormalizeKey(key string) string {
	return strings.TrimSpace(key)
}

// ValidateKey checks that a normalized key is non-empty and free of reserved characters.
func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if i := strings.IndexAny(key, reservedChars); i >= 0 {
		return fmt.Errorf("key %q contains reserved character %q", key, key[i])
	}
	return nil
}

// ParseDate parses "2025-01-03" into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate formats the calendar date of t.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// NewEventID returns a random identifier for published events.
func NewEventID() string {
	return uuid.NewString()
}
