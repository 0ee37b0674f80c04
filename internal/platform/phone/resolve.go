package phone

import "strings"

// ResolveByPrefix returns the country whose dial code is the longest prefix
// of the digits in s. Non-digits are ignored, so "+57300" and "57300" resolve
// alike. When several countries share the winning dial code, the one listed
// first in display order wins.
func (r *Registry) ResolveByPrefix(s string) (Country, bool) {
	digits := Digits(s)
	if digits == "" {
		return Country{}, false
	}
	for _, c := range r.byDialLen {
		if dial := c.DialDigits(); dial != "" && strings.HasPrefix(digits, dial) {
			return c, true
		}
	}
	return Country{}, false
}

// ResolveByPrefix resolves against the default registry.
func ResolveByPrefix(s string) (Country, bool) { return std.ResolveByPrefix(s) }
