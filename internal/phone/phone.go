// Package phone validates and normalizes Senegalese mobile numbers to the
// international format expected by the Orange SMS API.
package phone

import (
	"fmt"
	"strings"
)

const (
	// CountryCode is the Senegal dialing prefix without the plus sign.
	CountryCode = "221"

	localDigits = 9
)

// mobilePrefixes are the two-digit Sonatel/Tigo/Expresso mobile prefixes a
// bare local number may start with.
var mobilePrefixes = map[string]bool{
	"70": true,
	"75": true,
	"76": true,
	"77": true,
	"78": true,
}

// Result is the outcome of validating a raw phone number.
type Result struct {
	Valid     bool
	Formatted string
	Err       string
}

// Validate normalizes raw into +221XXXXXXXXX form. It never returns an error
// value; malformed input yields Valid=false with a human-readable reason.
func Validate(raw string) Result {
	cleaned := stripSeparators(raw)

	if cleaned == "" {
		return invalid("phone number is empty")
	}

	hasPlus := strings.HasPrefix(cleaned, "+")
	digits := strings.TrimPrefix(cleaned, "+")

	if !isDigits(digits) {
		return invalid(fmt.Sprintf("phone number %q contains non-digit characters", raw))
	}

	switch {
	case strings.HasPrefix(digits, CountryCode) && len(digits) == len(CountryCode)+localDigits:
		// Already international, with or without the leading plus.
		return valid("+" + digits)

	case !hasPlus && len(digits) == localDigits:
		if !mobilePrefixes[digits[:2]] {
			return invalid(fmt.Sprintf("local number %q does not start with a known mobile prefix", raw))
		}
		return valid("+" + CountryCode + digits)

	default:
		return invalid(fmt.Sprintf("phone number %q is not a valid Senegalese mobile number", raw))
	}
}

func valid(formatted string) Result {
	return Result{Valid: true, Formatted: formatted}
}

func invalid(reason string) Result {
	return Result{Err: reason}
}

func stripSeparators(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '.', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
