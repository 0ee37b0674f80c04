package phone

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultCountry is the primary market and the fallback for every operation
// that cannot determine a country.
const DefaultCountry = "CO"

var (
	nanpPattern   = regexp.MustCompile(`^[2-9]\d{9}$`)
	mexicoPattern = regexp.MustCompile(`^\d{10}$`)
	spainPattern  = regexp.MustCompile(`^[6-9]\d{8}$`)
)

// countries is the curated display order. Colombia first, then the rest of
// the Americas, then Europe and Asia-Pacific.
var countries = []Country{
	{Code: "CO", Name: "Colombia", DialCode: "+57", Mask: "### ### ####", MaxLength: 10},
	{Code: "US", Name: "United States", DialCode: "+1", Mask: "(###) ###-####", MaxLength: 10, Rule: FixedPattern{Pattern: nanpPattern}},
	{Code: "CA", Name: "Canada", DialCode: "+1", Mask: "(###) ###-####", MaxLength: 10, Rule: FixedPattern{Pattern: nanpPattern}},
	{Code: "MX", Name: "México", DialCode: "+52", Mask: "## #### ####", MaxLength: 10, Rule: FixedPattern{Pattern: mexicoPattern}},
	{Code: "VE", Name: "Venezuela", DialCode: "+58", Mask: "###-#######", MaxLength: 10},
	{Code: "EC", Name: "Ecuador", DialCode: "+593", Mask: "## ### ####", MaxLength: 9},
	{Code: "PE", Name: "Perú", DialCode: "+51", Mask: "### ### ###", MaxLength: 9},
	{Code: "PA", Name: "Panamá", DialCode: "+507", Mask: "####-####", MaxLength: 8},
	{Code: "CR", Name: "Costa Rica", DialCode: "+506", Mask: "#### ####", MaxLength: 8},
	{Code: "AR", Name: "Argentina", DialCode: "+54", Mask: "## ####-####", MaxLength: 10},
	{Code: "CL", Name: "Chile", DialCode: "+56", Mask: "# #### ####", MaxLength: 9},
	{Code: "BR", Name: "Brasil", DialCode: "+55", Mask: "(##) #####-####", MaxLength: 11},
	{Code: "DO", Name: "República Dominicana", DialCode: "+1", Mask: "(###) ###-####", MaxLength: 10, Rule: FixedPattern{Pattern: nanpPattern}},
	{Code: "PR", Name: "Puerto Rico", DialCode: "+1", Mask: "(###) ###-####", MaxLength: 10, Rule: FixedPattern{Pattern: nanpPattern}},
	{Code: "GT", Name: "Guatemala", DialCode: "+502", Mask: "#### ####", MaxLength: 8},
	{Code: "SV", Name: "El Salvador", DialCode: "+503", Mask: "#### ####", MaxLength: 8},
	{Code: "HN", Name: "Honduras", DialCode: "+504", Mask: "####-####", MaxLength: 8},
	{Code: "NI", Name: "Nicaragua", DialCode: "+505", Mask: "#### ####", MaxLength: 8},
	{Code: "CU", Name: "Cuba", DialCode: "+53", Mask: "# ### ####", MaxLength: 8},
	{Code: "BO", Name: "Bolivia", DialCode: "+591", Mask: "########", MaxLength: 8},
	{Code: "PY", Name: "Paraguay", DialCode: "+595", Mask: "### ######", MaxLength: 9},
	{Code: "UY", Name: "Uruguay", DialCode: "+598", Mask: "#### ####", MaxLength: 8},
	{Code: "ES", Name: "España", DialCode: "+34", Mask: "### ## ## ##", MaxLength: 9, Rule: FixedPattern{Pattern: spainPattern}},
	{Code: "PT", Name: "Portugal", DialCode: "+351", Mask: "### ### ###", MaxLength: 9},
	{Code: "GB", Name: "United Kingdom", DialCode: "+44", Mask: "#### ######", MaxLength: 10},
	{Code: "FR", Name: "France", DialCode: "+33", Mask: "# ## ## ## ##", MaxLength: 9},
	{Code: "DE", Name: "Deutschland", DialCode: "+49"},
	{Code: "IT", Name: "Italia", DialCode: "+39", Mask: "### ### ####", MaxLength: 10},
	{Code: "IN", Name: "India", DialCode: "+91", Mask: "##### #####", MaxLength: 10},
	{Code: "CN", Name: "China", DialCode: "+86", Mask: "### #### ####", MaxLength: 11},
	{Code: "JP", Name: "Japan", DialCode: "+81", Mask: "##-####-####", MaxLength: 10},
	{Code: "AU", Name: "Australia", DialCode: "+61", Mask: "### ### ###", MaxLength: 9},
}

var std = NewRegistry(countries...)

// Registry is an immutable, ordered country table. It is safe for concurrent
// use; nothing on it mutates after NewRegistry returns.
type Registry struct {
	ordered     []Country
	byCode      map[string]int
	byDialLen   []Country
	defaultCode string
}

// NewRegistry builds a registry in the given display order. Codes are
// upper-cased; a repeated code keeps its first occurrence. Dial codes are
// normalised to "+digits".
func NewRegistry(list ...Country) *Registry {
	r := &Registry{
		ordered: make([]Country, 0, len(list)),
		byCode:  make(map[string]int, len(list)),
	}
	for _, c := range list {
		c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
		if _, dup := r.byCode[c.Code]; dup || c.Code == "" {
			continue
		}
		c.DialCode = "+" + c.DialDigits()
		if c.Rule == nil {
			c.Rule = GenericLength{}
		}
		if c.Flag == "" {
			c.Flag = flag(c.Code)
		}
		r.byCode[c.Code] = len(r.ordered)
		r.ordered = append(r.ordered, c)
	}

	// Longest dial code first; the stable sort keeps display order among
	// equal lengths, which makes the first registered +1 country canonical.
	r.byDialLen = slices.Clone(r.ordered)
	slices.SortStableFunc(r.byDialLen, func(a, b Country) int {
		return len(b.DialDigits()) - len(a.DialDigits())
	})

	r.defaultCode = DefaultCountry
	if _, ok := r.byCode[DefaultCountry]; !ok && len(r.ordered) > 0 {
		r.defaultCode = r.ordered[0].Code
	}
	return r
}

// Default returns the compiled-in registry.
func Default() *Registry { return std }

// DefaultCode is the country used when nothing better is known.
func (r *Registry) DefaultCode() string { return r.defaultCode }

// Lookup finds a country by its two-letter code, case-insensitively.
func (r *Registry) Lookup(code string) (Country, bool) {
	i, ok := r.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Country{}, false
	}
	return r.ordered[i], true
}

// All returns the countries in display order. The slice is a copy.
func (r *Registry) All() []Country {
	return slices.Clone(r.ordered)
}

// Search returns the countries whose name, code or dial code matches query,
// in display order. Names are compared without case or diacritics, so "peru"
// finds "Perú". An empty query returns All.
func (r *Registry) Search(query string) []Country {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.All()
	}
	folded := foldName(query)
	code := strings.ToUpper(query)
	dial := strings.TrimPrefix(query, "+")
	if dial == "" || Digits(dial) != dial {
		dial = ""
	}

	var out []Country
	for _, c := range r.ordered {
		switch {
		case c.Code == code:
		case strings.Contains(foldName(c.Name), folded):
		case dial != "" && strings.HasPrefix(c.DialDigits(), dial):
		default:
			continue
		}
		out = append(out, c)
	}
	return out
}

func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// Package-level shorthands over the compiled-in registry.

// Lookup finds a country in the default registry.
func Lookup(code string) (Country, bool) { return std.Lookup(code) }

// All lists the default registry in display order.
func All() []Country { return std.All() }

// Search queries the default registry.
func Search(query string) []Country { return std.Search(query) }
