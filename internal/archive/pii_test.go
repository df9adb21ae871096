package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPatient(t *testing.T) {
	h1 := HashPatient("Jane Doe", "+91 98765 43210")
	h2 := HashPatient("  jane   DOE ", "+919876543210")
	h3 := HashPatient("Jane Doe", "+91 90000 00000")

	assert.Equal(t, h1, h2, "normalized input should produce same hash")
	assert.NotEqual(t, h1, h3, "different phone should produce different hash")
	assert.Len(t, h1, 64, "SHA-256 hex should be 64 chars")
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"+91 9876543210", "********3210"},
		{"98765-43210", "******3210"},
		{"+91 ", "**"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskPhone(tt.in), tt.in)
	}
}
