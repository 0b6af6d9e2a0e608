package serp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New()
	require.NoError(t, err)
	return e
}

func TestFindRule(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)

	t.Run("exact host plus path beats the host", func(t *testing.T) {
		rule := e.FindRule("https://www.bing.com/images/search?q=cats")
		require.NotNil(t, rule)
		assert.Equal(t, "Bing Images", rule.Name)
	})

	t.Run("lossy host collapses throwaway subdomains", func(t *testing.T) {
		rule := e.FindRule("https://www.bing.com/search?q=cats")
		require.NotNil(t, rule)
		assert.Equal(t, "Bing", rule.Name)
	})

	t.Run("lossy host collapses regional TLDs", func(t *testing.T) {
		for _, raw := range []string{
			"https://www.google.de/search?q=katzen",
			"https://www.google.co.uk/search?q=cats",
			"https://google.fr/search?q=chats",
		} {
			rule := e.FindRule(raw)
			require.NotNil(t, rule, raw)
			assert.Equal(t, "Google", rule.Name, raw)
		}
	})

	t.Run("exact host is the last regular tier", func(t *testing.T) {
		rule := e.FindRule("https://go.mail.ru/search?q=test")
		require.NotNil(t, rule)
		assert.Equal(t, "Mail.ru", rule.Name)
	})

	t.Run("custom search engine query prefix", func(t *testing.T) {
		rule := e.FindRule("https://anyhost.example.com/?cx=partner-pub-123:456&q=widgets")
		require.NotNil(t, rule)
		assert.Equal(t, "Google Custom Search", rule.Name)
	})

	t.Run("infospace hosted results path", func(t *testing.T) {
		rule := e.FindRule("https://search.acme.example/pemonitorhosted/ws/results/Web/widgets/1/")
		require.NotNil(t, rule)
		assert.Equal(t, "InfoSpace", rule.Name)
	})

	t.Run("regional yahoo hosts", func(t *testing.T) {
		rule := e.FindRule("https://de.images.search.yahoo.com/search/images?p=katzen")
		require.NotNil(t, rule)
		assert.Equal(t, "Yahoo! Images", rule.Name)

		rule = e.FindRule("https://de.search.yahoo.com/search?p=katzen")
		require.NotNil(t, rule)
		assert.Equal(t, "Yahoo!", rule.Name)
	})

	t.Run("host plus path beats host for custom rules", func(t *testing.T) {
		own, err := New()
		require.NoError(t, err)

		hostRule := mustRule(t, "Example", []string{"q"})
		pathRule := mustRule(t, "Example Search", []string{"x"})
		own.AddCustomRule("example.com", hostRule)
		own.AddCustomRule("example.com/search", pathRule)

		assert.Same(t, pathRule, own.FindRule("http://example.com/search?x=1"))
		assert.Same(t, hostRule, own.FindRule("http://example.com/?q=1"))
	})

	t.Run("unknown host has no rule", func(t *testing.T) {
		assert.Nil(t, e.FindRule("https://example.com/page?q=nope"))
	})

	t.Run("malformed URL has no rule", func(t *testing.T) {
		assert.Nil(t, e.FindRule("http://[::1"))
	})
}

func TestExtract(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)

	t.Run("classic google search", func(t *testing.T) {
		res := e.Extract("https://www.google.com/search?q=Hello+World")
		require.NotNil(t, res)
		assert.Equal(t, "Google", res.Engine)
		assert.Equal(t, "hello world", res.Keyword)
		require.NotNil(t, res.Rule)
		link, ok := res.Rule.SERPURL("https://www.google.com", res.Keyword)
		require.True(t, ok)
		assert.Equal(t, "https://www.google.com/search?q=hello world", link)
	})

	t.Run("yahoo p parameter", func(t *testing.T) {
		res := e.Extract("https://search.yahoo.com/search?p=sunsets")
		require.NotNil(t, res)
		assert.Equal(t, "Yahoo!", res.Engine)
		assert.Equal(t, "sunsets", res.Keyword)
	})

	t.Run("non-SERP returns nil", func(t *testing.T) {
		assert.Nil(t, e.Extract("https://example.com/blog/post?q=query"))
		assert.Nil(t, e.Extract("https://www.google.com/maps?place=york"))
	})

	t.Run("keyword case and whitespace options", func(t *testing.T) {
		raw := "https://www.bing.com/search?q=%20Mixed++CASE%20"

		res := e.Extract(raw)
		require.NotNil(t, res)
		assert.Equal(t, "mixed case", res.Keyword)

		res = e.Extract(raw, WithoutLowerCase())
		require.NotNil(t, res)
		assert.Equal(t, "Mixed CASE", res.Keyword)

		res = e.Extract(raw, WithoutLowerCase(), WithoutTrim(), WithoutCollapseWhitespace())
		require.NotNil(t, res)
		assert.Equal(t, " Mixed  CASE ", res.Keyword)
	})

	t.Run("explicit rule skips resolution", func(t *testing.T) {
		rule := mustRule(t, "Internal Search", []string{"term"})
		res := e.Extract("https://intranet.local/find?term=reports", WithRule(rule))
		require.NotNil(t, res)
		assert.Equal(t, "Internal Search", res.Engine)
		assert.Equal(t, "reports", res.Keyword)
	})

	t.Run("infospace keyword from the path", func(t *testing.T) {
		res := e.Extract("https://search.acme.example/pemonitorhosted/ws/results/Web/plumbers/1/417/TopNavigation/")
		require.NotNil(t, res)
		assert.Equal(t, "InfoSpace", res.Engine)
		assert.Equal(t, "plumbers", res.Keyword)
	})
}

func TestExtractNaive(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	raw := "https://foo.search.example.com/results?query=Needle++Stack"

	t.Run("disabled by default", func(t *testing.T) {
		assert.Nil(t, e.Extract(raw))
	})

	t.Run("heuristic match skips post-processing", func(t *testing.T) {
		res := e.Extract(raw, WithNaive())
		require.NotNil(t, res)
		assert.Equal(t, "example", res.Engine)
		assert.Equal(t, "Needle  Stack", res.Keyword)
		assert.Nil(t, res.Rule)
	})

	t.Run("host without search label stays unmatched", func(t *testing.T) {
		assert.Nil(t, e.Extract("https://foo.example.com/results?query=needle", WithNaive()))
	})

	t.Run("no candidate parameter stays unmatched", func(t *testing.T) {
		assert.Nil(t, e.Extract("https://foo.search.example.com/results?s=needle", WithNaive()))
	})

	t.Run("first candidate parameter wins", func(t *testing.T) {
		res := e.Extract("https://foo.search.example.com/results?term=second&q=first", WithNaive())
		require.NotNil(t, res)
		assert.Equal(t, "first", res.Keyword)
	})
}

func TestIsSERP(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	assert.True(t, e.IsSERP("https://duckduckgo.com/?q=privacy"))
	assert.False(t, e.IsSERP("https://example.com/?q=privacy"))
	assert.True(t, e.IsSERP("https://example.search.acme.com/?q=x", WithNaive()))
}

func TestAddCustomRule(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	rule, err := NewEngineRule("Acme Search", []string{"find"}, "search?find={k}", nil)
	require.NoError(t, err)
	e.AddCustomRule("search.acme.com", rule)

	res := e.Extract("https://search.acme.com/results?find=gadgets")
	require.NotNil(t, res)
	assert.Equal(t, "Acme Search", res.Engine)
	assert.Equal(t, "gadgets", res.Keyword)
	assert.Same(t, rule, res.Rule)

	snapshot := e.Rules()
	assert.Same(t, rule, snapshot["search.acme.com"])
}

func TestDefaultExtractor(t *testing.T) {
	t.Parallel()

	assert.Same(t, Default(), Default())

	res := Extract("https://www.google.com/search?q=cats")
	require.NotNil(t, res)
	assert.Equal(t, "cats", res.Keyword)
	assert.True(t, IsSERP("https://duckduckgo.com/?q=x"))
	assert.NotNil(t, FindRule("https://www.bing.com/search?q=x"))
	assert.NotEmpty(t, AllQueryParamNames())
}

func TestAllQueryParamNames(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	names := e.AllQueryParamNames()

	assert.Contains(t, names, "q")
	assert.Contains(t, names, "p")
	assert.Contains(t, names, "wd")
	assert.IsIncreasing(t, names)

	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		_, dup := seen[n]
		assert.False(t, dup, "duplicate %s", n)
		seen[n] = struct{}{}
	}
}
