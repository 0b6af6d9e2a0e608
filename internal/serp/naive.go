package serp

import (
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Naive search engine detection: look for "search." in the host, then try
// the query parameter names engines commonly use.
var (
	naiveHostPattern = regexp.MustCompile(`\.?search\.`)
	naiveParams      = []string{"q", "query", "k", "keyword", "term"}
)

// naiveExtract is the heuristic last resort for hosts with no registered
// rule. The result carries no rule reference and skips post-processing: the
// keyword is reported exactly as the visitor typed it.
func (e *Extractor) naiveExtract(u *ParsedURL) *ExtractResult {
	if !naiveHostPattern.MatchString(u.Host) {
		return nil
	}
	query := parseQuery(u.RawQuery, true)
	for _, param := range naiveParams {
		if vs, ok := query[param]; ok {
			return &ExtractResult{Engine: engineNameFromHost(u.Host), Keyword: vs[0]}
		}
	}
	return nil
}

// engineNameFromHost derives a display name from the second-level label of
// the host's registrable domain, e.g. "example" for foo.search.example.com.
func engineNameFromHost(host string) string {
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// No recognizable public suffix; fall back to the leading label.
		registrable = host
	}
	label, _, _ := strings.Cut(registrable, ".")
	return label
}
