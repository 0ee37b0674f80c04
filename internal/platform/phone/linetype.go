package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Line types reported by LineType.
const (
	LineMobile        = "mobile"
	LineFixed         = "fixed_line"
	LineFixedOrMobile = "fixed_line_or_mobile"
	LineTollFree      = "toll_free"
	LineVoIP          = "voip"
	LineUnknown       = "unknown"
)

// LineType classifies a combined international string using libphonenumber
// metadata. It is advisory only and never affects IsComplete.
func LineType(international string) string {
	if !strings.HasPrefix(international, "+") {
		return LineUnknown
	}
	num, err := phonenumbers.Parse(international, "")
	if err != nil {
		return LineUnknown
	}
	switch phonenumbers.GetNumberType(num) {
	case phonenumbers.MOBILE:
		return LineMobile
	case phonenumbers.FIXED_LINE:
		return LineFixed
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		return LineFixedOrMobile
	case phonenumbers.TOLL_FREE:
		return LineTollFree
	case phonenumbers.VOIP:
		return LineVoIP
	default:
		return LineUnknown
	}
}
