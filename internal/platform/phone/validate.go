package phone

// IsComplete reports whether national is a complete number for country.
// The digit count must fall within the country's Bounds and, for countries
// with a FixedPattern, match it. Unknown countries get the generic window.
func (r *Registry) IsComplete(country, national string) bool {
	digits := Digits(national)
	c, ok := r.Lookup(country)
	if !ok {
		return len(digits) >= GenericMinLength && len(digits) <= GenericMaxLength
	}
	lo, hi := c.Bounds()
	if len(digits) < lo || len(digits) > hi {
		return false
	}
	return c.Rule.allows(digits)
}

// IsComplete validates against the default registry.
func IsComplete(country, national string) bool { return std.IsComplete(country, national) }
