package model

import (
	"fmt"
	"strings"
)

// Access is the capability granted to a caller by the external authorization gate.
type Access string

const (
	AccessReadOnly  Access = "read-only"
	AccessReadWrite Access = "read-write"
)

// CanWrite reports whether the capability allows mutations.
func (a Access) CanWrite() bool {
	return a == AccessReadWrite
}

// ParseAccess accepts "read-only"/"read-write" and the legacy "readonly"/"readwrite".
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read-only", "readonly", "read":
		return AccessReadOnly, nil
	case "read-write", "readwrite":
		return AccessReadWrite, nil
	default:
		return "", fmt.Errorf("unknown access %q", s)
	}
}
