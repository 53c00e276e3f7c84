package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
	}{
		{name: "dotted local part", address: "maria.santos@example.com", want: "Maria Santos"},
		{name: "single word", address: "ben@example.com", want: "Ben"},
		{name: "underscores and dashes", address: "jose_luis-reyes@example.com", want: "Jose Luis Reyes"},
		{name: "plus tag kept as word", address: "ana+family@example.com", want: "Ana Family"},
		{name: "trailing digits stripped", address: "maria.santos99@example.com", want: "Maria Santos"},
		{name: "digits only local part", address: "12345@example.com", want: ""},
		{name: "no at sign", address: "plainname", want: "Plainname"},
		{name: "empty", address: "", want: ""},
		{name: "only separators", address: "._-@example.com", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.address))
		})
	}
}
