package errors

import (
	"fmt"
	"regexp"
	"strings"
)

// Code is a validated "package.name" error code, e.g. "table.io_error".
type Code struct {
	value string
}

// CommonInternal is the code used when wrapping a non-*Error via the
// package-level AddContext, for errors that originate outside strata's
// own packages.
var CommonInternal = MustNewCode("common.internal")

var codeRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*$`)

// NewCode validates s as "package.name" and returns the corresponding Code.
func NewCode(s string) (Code, error) {
	if !codeRegex.MatchString(s) {
		return Code{}, fmt.Errorf("invalid code format '%s': must be 'package.name' (lowercase, underscores, dots only)", s)
	}
	return Code{value: s}, nil
}

// MustNewCode is NewCode for package-level var initializers; it panics on
// an invalid format.
func MustNewCode(s string) Code {
	code, err := NewCode(s)
	if err != nil {
		panic(err)
	}
	return code
}

// String returns the code as "package.name".
func (c Code) String() string {
	return c.value
}

// Package returns the prefix before the dot.
func (c Code) Package() string {
	if idx := strings.Index(c.value, "."); idx != -1 {
		return c.value[:idx]
	}
	return ""
}

// Name returns the part after the dot.
func (c Code) Name() string {
	if idx := strings.Index(c.value, "."); idx != -1 {
		return c.value[idx+1:]
	}
	return c.value
}

// IsValid reports whether the code matches the "package.name" format.
func (c Code) IsValid() bool {
	return codeRegex.MatchString(c.value)
}

// Equals reports whether two codes are the same.
func (c Code) Equals(other Code) bool {
	return c.value == other.value
}
