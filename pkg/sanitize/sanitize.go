// Package sanitize validates and cleans raw event text before it is sent
// to the agent.
package sanitize

import (
	"errors"
	"strings"
)

// MaxLen is the hard cap, in runes, on a single outbound payload.
const MaxLen = 4096

// ErrEmpty is returned when a message has no content left after cleaning.
var ErrEmpty = errors.New("message empty after sanitization")

// Clean strips ASCII control characters (keeping tab, LF and CR), caps the
// result at MaxLen runes and trims surrounding whitespace. An all-whitespace
// result is an error: empty payloads must never reach the agent.
//
// When enabled is false the input is returned unchanged.
func Clean(raw string, enabled bool) (string, error) {
	if !enabled {
		return raw, nil
	}

	cleaned := strings.Map(func(r rune) rune {
		if isStrippedControl(r) {
			return -1
		}
		return r
	}, raw)

	runes := []rune(cleaned)
	if len(runes) > MaxLen {
		cleaned = string(runes[:MaxLen])
	}

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", ErrEmpty
	}
	return cleaned, nil
}

// isStrippedControl reports whether r falls in the stripped control ranges
// 0x00-0x08, 0x0B-0x0C and 0x0E-0x1F. Tab (0x09), LF (0x0A) and CR (0x0D)
// survive.
func isStrippedControl(r rune) bool {
	switch {
	case r <= 0x08:
		return true
	case r == 0x0B || r == 0x0C:
		return true
	case r >= 0x0E && r <= 0x1F:
		return true
	}
	return false
}
