package head

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		suffix    string
		titleCase bool
		expected  string
	}{
		{
			name:     "last segment with suffix",
			path:     "/docs/intro",
			suffix:   " - Site",
			expected: "intro - Site",
		},
		{
			name:     "single segment",
			path:     "/about",
			suffix:   "",
			expected: "about",
		},
		{
			name:     "trailing slash ignored",
			path:     "/docs/intro/",
			suffix:   " - Site",
			expected: "intro - Site",
		},
		{
			name:     "root path falls back to trimmed suffix",
			path:     "/",
			suffix:   " - Site",
			expected: "Site",
		},
		{
			name:     "root path with empty suffix",
			path:     "/",
			suffix:   "",
			expected: "",
		},
		{
			name:     "empty path treated as root",
			path:     "",
			suffix:   " | Site",
			expected: "Site",
		},
		{
			name:     "percent-escaped segment decoded",
			path:     "/docs/getting%20started",
			suffix:   "",
			expected: "getting started",
		},
		{
			name:      "title case applied to segment only",
			path:      "/docs/getting-started",
			suffix:    " - site",
			titleCase: true,
			expected:  "Getting-Started - site",
		},
		{
			name:     "suffix appended verbatim",
			path:     "/x",
			suffix:   "→ Site",
			expected: "x→ Site",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveTitle(tt.path, tt.suffix, tt.titleCase))
		})
	}
}

func TestDeriveTitle_IsPure(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, "intro - Site", DeriveTitle("/docs/intro", " - Site", false))
	}
}
