package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineType(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"colombian mobile", "+573001234567", LineMobile},
		{"us toll free", "+18002345678", LineTollFree},
		{"empty", "", LineUnknown},
		{"missing plus", "573001234567", LineUnknown},
		{"unassigned dial code", "+9991234567", LineUnknown},
		{"not a number", "+abc", LineUnknown},
		{"bare plus", "+", LineUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LineType(tt.in))
		})
	}
}

func TestLineType_FromCombine(t *testing.T) {
	assert.Equal(t, LineMobile, LineType(Combine("CO", "300 123 4567")))
}
