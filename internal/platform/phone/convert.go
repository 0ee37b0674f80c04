package phone

import "strings"

// internationalAccessPrefix is the dialled replacement for "+" used across
// Latin America and Europe.
const internationalAccessPrefix = "00"

// Value is the edit-side shape of a phone number: a country code plus the
// digits that follow the dial code.
type Value struct {
	Country  string `json:"country"`
	National string `json:"national"`
}

// Hint tells Split which country the caller already believes the number
// belongs to, and whether that belief should override prefix inference.
type Hint struct {
	code    string
	trusted bool
}

// Trusted wins over prefix inference whenever the number starts with the
// country's dial code. Use it for a country that was stored alongside the
// number, which is what keeps a Canadian +1 number Canadian.
func Trusted(code string) Hint {
	return Hint{code: normCode(code), trusted: true}
}

// Prefer only picks the fallback country for numbers no dial code explains.
func Prefer(code string) Hint {
	return Hint{code: normCode(code)}
}

// Infer carries no country; the number alone decides.
func Infer() Hint { return Hint{} }

// Code returns the hinted country code, upper-cased, or "".
func (h Hint) Code() string { return h.code }

// IsTrusted reports whether the hint overrides prefix inference.
func (h Hint) IsTrusted() bool { return h.trusted }

func normCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Split turns a stored international string into a Value.
//
// A trusted hint whose dial code prefixes the number wins outright. Otherwise
// the longest matching dial code decides. A number written with the "00"
// access prefix is also accepted for the fallback country. Anything else is
// kept whole as the national part of the fallback country, which is the
// hinted country when it is registered and DefaultCountry otherwise. An empty
// string yields the fallback country with no national part.
func (r *Registry) Split(international string, hint Hint) Value {
	fallback := r.fallback(hint)
	if international == "" {
		return Value{Country: fallback}
	}

	digits := Digits(international)

	if hint.trusted {
		if c, ok := r.Lookup(hint.code); ok {
			if rest, ok := strings.CutPrefix(digits, c.DialDigits()); ok {
				return Value{Country: c.Code, National: rest}
			}
		}
	}

	if c, ok := r.ResolveByPrefix(digits); ok {
		return Value{Country: c.Code, National: digits[len(c.DialDigits()):]}
	}

	if rest, ok := strings.CutPrefix(digits, internationalAccessPrefix); ok {
		if c, ok := r.Lookup(fallback); ok {
			if national, ok := strings.CutPrefix(rest, c.DialDigits()); ok {
				return Value{Country: c.Code, National: national}
			}
		}
	}

	return Value{Country: fallback, National: digits}
}

func (r *Registry) fallback(hint Hint) string {
	if _, ok := r.Lookup(hint.code); ok {
		return hint.code
	}
	return r.defaultCode
}

// Combine builds the stored international string "+<dial><digits>".
// It returns "" when either input is empty or national has no digits, and
// national unchanged when the country is not registered.
func (r *Registry) Combine(country, national string) string {
	if country == "" || national == "" {
		return ""
	}
	c, ok := r.Lookup(country)
	if !ok {
		return national
	}
	digits := Digits(national)
	if digits == "" {
		return ""
	}
	return c.DialCode + digits
}

// Split splits against the default registry.
func Split(international string, hint Hint) Value { return std.Split(international, hint) }

// Combine combines against the default registry.
func Combine(country, national string) string { return std.Combine(country, national) }
