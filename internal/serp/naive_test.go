package serp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineNameFromHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"subdomains", "foo.search.example.com", "example"},
		{"plain", "search.acme.org", "acme"},
		{"withPort", "search.acme.org:8080", "acme"},
		{"countryTLD", "search.site.co.uk", "site"},
		{"noPublicSuffix", "search.internal", "search"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engineNameFromHost(tt.host))
		})
	}
}

func TestNaiveHostPattern(t *testing.T) {
	t.Parallel()

	assert.True(t, naiveHostPattern.MatchString("foo.search.example.com"))
	assert.True(t, naiveHostPattern.MatchString("search.example.com"))
	// The embedded label matches too; the heuristic trades precision for recall.
	assert.True(t, naiveHostPattern.MatchString("research.example.com"))
	assert.False(t, naiveHostPattern.MatchString("example.com"))
	assert.False(t, naiveHostPattern.MatchString("searchengine.example.com"))
}
