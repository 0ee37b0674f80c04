package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		national string
		mask     string
		want     string
	}{
		{"partial", "3001234", "### ### ####", "300 123 4"},
		{"complete", "3001234567", "### ### ####", "300 123 4567"},
		{"no trailing literal", "300", "### ### ####", "300"},
		{"leading literal", "4165550123", "(###) ###-####", "(416) 555-0123"},
		{"leading literal partial", "4", "(###) ###-####", "(4"},
		{"overflow dropped", "300123456789", "### ### ####", "300 123 4567"},
		{"non-digits ignored", "300-123", "### ### ####", "300 123"},
		{"no mask", "30-01", "", "3001"},
		{"no digits", "", "### ###", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.national, tt.mask))
		})
	}
}

func TestRender_NeverPads(t *testing.T) {
	mask := "### ### ####"
	for n := 0; n <= 10; n++ {
		out := Render("3001234567"[:n], mask)
		assert.Len(t, Digits(out), n)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "300 123 4567", Format("CO", "3001234567"))
	assert.Equal(t, "(416) 555-0123", Format("CA", "4165550123"))
	assert.Equal(t, "3001234567", Format("DE", "300 123 4567"))
	assert.Equal(t, "3001234567", Format("ZZ", "300-123-4567"))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "+57 300 123 4567", Display(Value{Country: "CO", National: "3001234567"}))
	assert.Equal(t, "+57", Display(Value{Country: "CO"}))
	assert.Equal(t, "12345", Display(Value{Country: "ZZ", National: "12345"}))
}

func TestMeasure(t *testing.T) {
	p := Measure("CO", "300 123")
	assert.Equal(t, Progress{Digits: 6, Max: 10}, p)
	assert.Equal(t, 4, p.Remaining())
	assert.False(t, p.Full())

	p = Measure("CO", "300123456789")
	assert.Equal(t, 0, p.Remaining())
	assert.True(t, p.Full())

	assert.Equal(t, GenericMaxLength, Measure("ZZ", "1").Max)
	assert.Equal(t, GenericMaxLength, Measure("DE", "1").Max)
}
