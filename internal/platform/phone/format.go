package phone

import "strings"

// Render lays the digits of national over mask, one digit per Placeholder.
// Literal mask runes appear only while digits remain, so a partially typed
// number never ends in a dangling separator. Digits beyond the mask are
// dropped. An empty mask returns the digits unchanged.
func Render(national, mask string) string {
	digits := Digits(national)
	if mask == "" {
		return digits
	}

	var b strings.Builder
	next := 0
	for _, m := range mask {
		if next >= len(digits) {
			break
		}
		if m == Placeholder {
			b.WriteByte(digits[next])
			next++
			continue
		}
		b.WriteRune(m)
	}
	return b.String()
}

// Format renders national with the country's mask, or as bare digits when
// the country is unknown.
func (r *Registry) Format(country, national string) string {
	c, _ := r.Lookup(country)
	return Render(national, c.Mask)
}

// Display renders a Value for read-only views, e.g. "+57 300 123 4567".
func (r *Registry) Display(v Value) string {
	c, ok := r.Lookup(v.Country)
	national := Render(v.National, c.Mask)
	if !ok {
		return national
	}
	if national == "" {
		return c.DialCode
	}
	return c.DialCode + " " + national
}

// Progress is the typed-digit counter shown under the national input.
type Progress struct {
	Digits int `json:"digits"`
	Max    int `json:"max"`
}

// Remaining is how many digits may still be typed.
func (p Progress) Remaining() int {
	if p.Digits >= p.Max {
		return 0
	}
	return p.Max - p.Digits
}

// Full reports whether the counter has reached its max.
func (p Progress) Full() bool { return p.Digits >= p.Max }

// Measure counts the digits of national against the country's max length,
// or GenericMaxLength when the country has none.
func (r *Registry) Measure(country, national string) Progress {
	c, _ := r.Lookup(country)
	_, hi := c.Bounds()
	return Progress{Digits: len(Digits(national)), Max: hi}
}

// Format formats against the default registry.
func Format(country, national string) string { return std.Format(country, national) }

// Display displays against the default registry.
func Display(v Value) string { return std.Display(v) }

// Measure measures against the default registry.
func Measure(country, national string) Progress { return std.Measure(country, national) }
