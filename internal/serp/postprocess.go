package serp

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// postProcess applies the optional keyword cleanups in a fixed order:
// lower-case, trim, then collapse every whitespace run into a single space.
// The whole pipeline is idempotent.
func postProcess(keyword string, lower, trim, collapse bool) string {
	if lower {
		keyword = strings.ToLower(keyword)
	}
	if trim {
		keyword = strings.TrimSpace(keyword)
	}
	if collapse {
		keyword = whitespaceRun.ReplaceAllString(keyword, " ")
	}
	return keyword
}
