package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"ten digits", "9876543210", "+919876543210"},
		{"separators", "98765-43210", "+919876543210"},
		{"spaces and parens", "(987) 654 3210", "+919876543210"},
		{"trunk zero", "09876543210", "+919876543210"},
		{"country code no plus", "919876543210", "+919876543210"},
		{"country code with plus", "+91 98765 43210", "+919876543210"},
		{"extra leading digit", "0919876543210", "+919876543210"},
		{"too short", "123", ""},
		{"nine digits", "987654321", ""},
		{"other country kept", "4420794601234", "4420794601234"},
		{"letters only", "call us", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in, "91"))
		})
	}
}

func TestNormalize_DefaultCountryCode(t *testing.T) {
	assert.Equal(t, "+919876543210", Normalize("9876543210", ""))
	assert.Equal(t, "+919876543210", Normalize("9876543210", "+91"))
}

func TestNormalize_OtherCountryCode(t *testing.T) {
	assert.Equal(t, "+12025550123", Normalize("202-555-0123", "1"))
	assert.Equal(t, "+12025550123", Normalize("1 202 555 0123", "1"))
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{"9876543210", "09876543210", "+91 98765 43210", "4420794601234"} {
		once := Normalize(in, "91")
		assert.Equal(t, once, Normalize(once, "91"), in)
	}
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "919876543210", Digits("+91 (98765) 43210"))
	assert.Empty(t, Digits("n/a"))
}
