// Package phone converts between the single international phone string the
// portal persists and the (country, national number) pair that forms edit.
//
// The package is pure: every function is a deterministic function of its
// arguments and the compiled-in country registry, which is built once at
// init and never mutated afterwards. Nothing here returns an error; inputs
// that cannot be interpreted degrade to a best-effort value instead.
package phone

import (
	"regexp"
	"strings"
)

// Placeholder is the mask rune that stands for "next digit goes here".
const Placeholder = '#'

// Generic national-number bounds used when a country carries no max length.
const (
	GenericMinLength = 7
	GenericMaxLength = 15

	// lengthTolerance widens the lower bound for countries with a max length,
	// accommodating short local variants.
	lengthTolerance = 2
)

// Country is one entry of the registry. Values are copied out of the
// registry, so holding or modifying one never affects other callers.
type Country struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	DialCode  string `json:"dial_code"`
	Flag      string `json:"flag"`
	Mask      string `json:"mask,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
	Rule      Rule   `json:"-"`
}

// DialDigits returns the dial code without the leading plus.
func (c Country) DialDigits() string {
	return Digits(c.DialCode)
}

// Bounds returns the inclusive digit-count window a complete national number
// must fall in.
func (c Country) Bounds() (lo, hi int) {
	if c.MaxLength <= 0 {
		return GenericMinLength, GenericMaxLength
	}
	return max(c.MaxLength-lengthTolerance, GenericMinLength), c.MaxLength
}

// Rule is a per-country shape check layered on top of the length window.
// The set of rules is closed: GenericLength and FixedPattern.
type Rule interface {
	allows(digits string) bool
}

// GenericLength adds nothing beyond the length window.
type GenericLength struct{}

func (GenericLength) allows(string) bool { return true }

// FixedPattern requires the digit-only national number to match Pattern,
// typically pinning the total length and the leading digit.
type FixedPattern struct {
	Pattern *regexp.Regexp
}

func (r FixedPattern) allows(digits string) bool {
	return r.Pattern == nil || r.Pattern.MatchString(digits)
}

// Digits strips every non-digit rune from s.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// flag builds the regional-indicator emoji for a two-letter code.
func flag(code string) string {
	if len(code) != 2 {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}
