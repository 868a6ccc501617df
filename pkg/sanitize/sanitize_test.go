package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogString(t *testing.T) {
	assert.Equal(t, "curl/8.0 fake=entry", LogString("curl/8.0\nfake=entry"))
	assert.Equal(t, "a  b", LogString("a\r\nb"))
}

func TestLogField(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "FunnelFox/1.0", 64, "FunnelFox/1.0"},
		{"trimmed", "  x  ", 64, "x"},
		{"truncated", "abcdefgh", 4, "abcd..."},
		{"rune boundary", "héllo", 2, "h..."},
		{"no limit", "abcdefgh", 0, "abcdefgh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogField(tt.in, tt.max))
		})
	}
}
