package serp

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// ParsedURL is a referrer URL broken into the components the matching engine
// works on. Every field holds valid UTF-8; bytes that cannot be decoded are
// dropped during construction, never carried along.
type ParsedURL struct {
	Scheme   string
	Host     string
	Path     string
	RawQuery string
	Fragment string
}

// Parse normalizes a raw referrer URL into a ParsedURL. It returns an error
// only when the input cannot be split into structural components at all;
// decode problems inside individual components are tolerated.
func Parse(raw string) (*ParsedURL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("malformed URL %q: %w", raw, err)
	}
	return FromURL(u), nil
}

// ParseWithEncoding is Parse for referrers logged in a legacy text encoding.
// The charset name is resolved through the WHATWG encoding index, so aliases
// like "latin1" or "gb2312" work.
func ParseWithEncoding(raw, charset string) (*ParsedURL, error) {
	if charset != "" && !strings.EqualFold(charset, "utf-8") {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
		}
		decoded, err := enc.NewDecoder().String(raw)
		if err != nil {
			return nil, fmt.Errorf("decode URL as %s: %w", charset, err)
		}
		raw = decoded
	}
	return Parse(raw)
}

// FromURL normalizes an already-parsed net/url URL. Clients hand us URLs from
// all kinds of log pipelines, so each component is scrubbed to valid UTF-8.
func FromURL(u *url.URL) *ParsedURL {
	return &ParsedURL{
		Scheme:   u.Scheme,
		Host:     strings.ToValidUTF8(u.Host, ""),
		Path:     strings.ToValidUTF8(u.Path, ""),
		RawQuery: strings.ToValidUTF8(u.RawQuery, ""),
		// EscapedFragment keeps the fragment in wire form; decoding happens
		// once, in the query parser.
		Fragment: strings.ToValidUTF8(u.EscapedFragment(), ""),
	}
}

// EffectiveQuery returns the query string joined with the fragment. Several
// engines smuggle the keyword into the fragment, so keyword lookups always go
// through this synthesized form.
func (p *ParsedURL) EffectiveQuery() string {
	if p.Fragment == "" {
		return p.RawQuery
	}
	return p.RawQuery + "&" + p.Fragment
}

// isBare reports whether the URL has no path segments, no query string and no
// fragment, e.g. a plain http://www.google.com/ referrer.
func (p *ParsedURL) isBare() bool {
	return strings.Trim(p.Path, "/") == "" && p.RawQuery == "" && p.Fragment == ""
}

// parseQuery decodes a query string into parameter name -> ordered values.
// Decoding is deliberately forgiving: invalid percent escapes stay literal,
// bytes that are not UTF-8 are dropped, and a parameter that decodes to an
// empty name is skipped rather than aborting the rest of the parse.
func parseQuery(qs string, keepBlank bool) map[string][]string {
	params := make(map[string][]string)
	for _, field := range strings.FieldsFunc(qs, isQuerySeparator) {
		name, value, hasValue := strings.Cut(field, "=")
		if (!hasValue || value == "") && !keepBlank {
			continue
		}
		name = decodeComponent(name)
		if name == "" {
			continue
		}
		params[name] = append(params[name], decodeComponent(value))
	}
	return params
}

func isQuerySeparator(r rune) bool {
	return r == '&' || r == ';'
}

// decodeComponent applies form decoding ('+' means space) without ever
// failing: malformed escapes are kept as-is and invalid UTF-8 is dropped.
func decodeComponent(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	if strings.IndexByte(s, '%') >= 0 {
		s = unescapeTolerant(s)
	}
	return strings.ToValidUTF8(s, "")
}

func unescapeTolerant(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(hexByte(s[i+1])<<4 | hexByte(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func hexByte(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	default:
		return c - '0'
	}
}
