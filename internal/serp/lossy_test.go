package serp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalLossyDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"www", "www.google.com", "google.com"},
		{"www2", "www2.example.com", "example.com"},
		{"mobile", "m.bing.com", "bing.com"},
		{"searchSubdomain", "search.aol.com", "aol.com"},
		{"stackedSubdomains", "www.search.example.com", "example.com"},
		{"ccTLD", "google.de", "google.{}"},
		{"ccTLDWithGenericSLD", "www.google.co.uk", "google.{}"},
		{"ccTLDUnstripped", "google.co.uk", "google.{}"},
		{"plainCom", "duckduckgo.com", "duckduckgo.com"},
		{"ccSubdomain", "de.startpage.com", "de.startpage.com"},
		{"noTLDMatch", "go.mail.ru", "go.mail.{}"},
		{"bareHost", "localhost", "localhost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, canonicalLossyDomain(tt.host))
		})
	}
}

func TestLossyDomainCaching(t *testing.T) {
	t.Parallel()

	e, err := New(WithDomainCacheSize(2))
	require.NoError(t, err)

	assert.Equal(t, "google.com", e.lossyDomain("www.google.com"))
	assert.Equal(t, 1, e.domains.Len())

	// Hit: same host, no new entry.
	assert.Equal(t, "google.com", e.lossyDomain("www.google.com"))
	assert.Equal(t, 1, e.domains.Len())

	// Fill and overflow the cache; the oldest host gets evicted.
	e.lossyDomain("m.bing.com")
	e.lossyDomain("search.yahoo.com")
	assert.Equal(t, 2, e.domains.Len())
	_, ok := e.domains.Get("www.google.com")
	assert.False(t, ok)
}
