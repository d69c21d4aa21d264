package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases scheme and host",
			in:   "HTTPS://Acme.COM/Pricing",
			want: "https://acme.com/Pricing/",
		},
		{
			name: "strips utm parameters",
			in:   "https://acme.com/blog/post/?utm_source=news&utm_medium=email&ref=x",
			want: "https://acme.com/blog/post/?ref=x",
		},
		{
			name: "strips all parameters when only utm present",
			in:   "https://acme.com/?UTM_Campaign=spring",
			want: "https://acme.com/",
		},
		{
			name: "adds trailing slash to non-root path",
			in:   "https://acme.com/docs",
			want: "https://acme.com/docs/",
		},
		{
			name: "root path untouched",
			in:   "https://acme.com/",
			want: "https://acme.com/",
		},
		{
			name: "empty path becomes root",
			in:   "https://acme.com",
			want: "https://acme.com/",
		},
		{
			name: "drops fragment",
			in:   "https://acme.com/docs/#install",
			want: "https://acme.com/docs/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	inputs := []string{
		"HTTPS://Acme.COM/Pricing?utm_source=x&page=2",
		"https://acme.com",
		"http://www.example.org/a/b/c",
		"https://acme.com/search/?q=widgets&utm_term=w",
	}
	for _, in := range inputs {
		once, err := NormalizeURL(in)
		require.NoError(t, err)
		twice, err := NormalizeURL(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", in)
		assert.NotContains(t, strings.ToLower(twice), "utm_")
	}
}

func TestNormalizeURL_Invalid(t *testing.T) {
	for _, in := range []string{"", "not-a-url", "/relative/path", "://bad"} {
		_, err := NormalizeURL(in)
		assert.Error(t, err, "expected error for %q", in)
	}
}
