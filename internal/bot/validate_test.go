package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"9159383529", "9159383529", true},
		{"89159383529", "9159383529", true},
		{"79159383529", "9159383529", true},
		{"+79159383529", "9159383529", true},
		{"+7 915 938-35-29", "9159383529", true},
		{"8 (915) 938 35 29", "9159383529", true},
		{"12345", "", false},
		{"991593835299", "", false},
		{"phone", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizePhone(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAge(t *testing.T) {
	age, ok := ParseAge("5")
	assert.True(t, ok)
	assert.Equal(t, 5.0, age)

	age, ok = ParseAge("5,5")
	assert.True(t, ok)
	assert.Equal(t, 5.5, age)

	age, ok = ParseAge("5.5")
	assert.True(t, ok)
	assert.Equal(t, 5.5, age)

	for _, bad := range []string{"0", "-3", "19", "пять", ""} {
		_, ok := ParseAge(bad)
		assert.False(t, ok, "input %q", bad)
	}
}

func TestParseQty(t *testing.T) {
	n, ok := ParseQty(" 7 ", 1, 15)
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	for _, bad := range []string{"0", "16", "x", ""} {
		_, ok := ParseQty(bad, 1, 15)
		assert.False(t, ok, "input %q", bad)
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, validEmail("user@example.com"))
	assert.True(t, validEmail("  user@example.com  "))
	assert.False(t, validEmail("user"))
	assert.False(t, validEmail("@example.com"))
	assert.False(t, validEmail("user@"))
	assert.False(t, validEmail("us er@example.com"))
}
