package lint

import (
	"errors"
	"fmt"
	"strings"

	"traitlint/internal/diag"
)

// ErrUnknownLevel is returned by ParseLevel for anything but
// allow, warn, deny or forbid.
var ErrUnknownLevel = errors.New("unknown lint level")

// Level is how a lint is reported.
type Level uint8

const (
	Allow Level = iota
	Warn
	Deny
	// Forbid is Deny that inner attributes cannot lower.
	Forbid
)

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow":
		return Allow, nil
	case "warn":
		return Warn, nil
	case "deny":
		return Deny, nil
	case "forbid":
		return Forbid, nil
	}
	return Allow, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

func (l Level) String() string {
	switch l {
	case Allow:
		return "allow"
	case Warn:
		return "warn"
	case Deny:
		return "deny"
	case Forbid:
		return "forbid"
	}
	return "unknown"
}

// Severity maps the level to a diagnostic severity. ok is false for Allow.
func (l Level) Severity() (sev diag.Severity, ok bool) {
	switch l {
	case Warn:
		return diag.SevWarning, true
	case Deny, Forbid:
		return diag.SevError, true
	}
	return diag.SevInfo, false
}
