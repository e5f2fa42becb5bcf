package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+976 99112233", "+976 99112233"},
		{"  +976 99112233  ", "+976 99112233"},
		{"+976   99112233", "+976 99112233"},
		{"\t+976\t99112233\n", "+976 99112233"},
		{"   ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in), "input %q", tt.in)
	}
}

func TestValidPhone(t *testing.T) {
	valid := []string{
		"+976 99112233",
		"+1 5551234",
		"+44 123456789012",
		"+976 123456",
	}
	for _, phone := range valid {
		assert.True(t, ValidPhone(phone), "expected valid: %q", phone)
	}

	invalid := []string{
		"",
		"99112233",
		"976 99112233",
		"+9761 99112233",
		"+976  99112233",
		"+976 99x12233",
		"+976 12345",
		"+976 1234567890123",
		"+976 99112233 ",
		"+ 99112233",
	}
	for _, phone := range invalid {
		assert.False(t, ValidPhone(phone), "expected invalid: %q", phone)
	}
}
