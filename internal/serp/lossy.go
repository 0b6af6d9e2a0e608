package serp

import (
	"regexp"
	"strings"
)

// ccTLDPlaceholder stands in for whichever country-code TLD was matched.
// Registry keys carry the same token, e.g. "google.{}" covers google.de,
// google.fr and every other regional Google host.
const ccTLDPlaceholder = ".{}"

// lossyPattern canonicalizes a host for fuzzy registry lookups: it strips
// throwaway subdomains (www., www2., search., m.), captures an optional
// country-code subdomain, the core domain labels, an optional generic
// commercial TLD and an optional country-code TLD. Everything is optional,
// so the pattern matches any host.
var lossyPattern, lossyGroups = func() (*regexp.Regexp, [4]int) {
	codes := strings.Join(countryCodes, "|")
	re := regexp.MustCompile(
		`^(?:w+\d*\.|search\.|m\.)*` +
			`(?:(?P<ccsub>` + codes + `)\.)?` +
			`(?P<domain>.*?)` +
			`(?P<tld>\.(?:com|org|net|co|edu))?` +
			`(?P<tldcc>\.(?:` + codes + `))?$`)
	return re, [4]int{
		re.SubexpIndex("ccsub"),
		re.SubexpIndex("domain"),
		re.SubexpIndex("tld"),
		re.SubexpIndex("tldcc"),
	}
}()

// canonicalLossyDomain reduces a host to its canonical lossy form. A captured
// generic TLD is kept literally; a captured country-code TLD renders the
// registry placeholder instead of the matched code, so regional variants
// collapse onto one key.
func canonicalLossyDomain(host string) string {
	m := lossyPattern.FindStringSubmatch(host)
	if m == nil {
		return host
	}
	ccsub, domain, tld, tldcc := m[lossyGroups[0]], m[lossyGroups[1]], m[lossyGroups[2]], m[lossyGroups[3]]

	var b strings.Builder
	if ccsub != "" {
		b.WriteString(ccsub)
		b.WriteByte('.')
	}
	b.WriteString(domain)
	switch {
	case tldcc != "":
		b.WriteString(ccTLDPlaceholder)
	case tld != "":
		b.WriteString(tld)
	}
	return b.String()
}

// lossyDomain is the cached entry point; a hit refreshes recency.
func (e *Extractor) lossyDomain(host string) string {
	if canonical, ok := e.domains.Get(host); ok {
		return canonical
	}
	canonical := canonicalLossyDomain(host)
	e.domains.Set(host, canonical)
	return canonical
}
