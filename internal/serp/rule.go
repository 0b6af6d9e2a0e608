package serp

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// directiveKind tags how a Directive pulls a keyword out of a URL.
type directiveKind int

const (
	directiveQueryParam directiveKind = iota
	directivePathPattern
)

// Directive is a single keyword-extraction instruction: either a literal
// query-string parameter name or a compiled path pattern with one capture
// group. Directives are resolved once at registry build time and immutable
// afterwards.
type Directive struct {
	kind    directiveKind
	param   string
	pattern *regexp.Regexp
}

// QueryParam returns a directive that reads the named query-string parameter.
func QueryParam(name string) Directive {
	return Directive{kind: directiveQueryParam, param: name}
}

// PathPattern returns a directive that matches the URL path against pattern
// and extracts its first capture group.
func PathPattern(pattern *regexp.Regexp) Directive {
	return Directive{kind: directivePathPattern, pattern: pattern}
}

// compileDirective interprets a raw extractor spec from the rule data: specs
// wrapped in slashes are path patterns, everything else names a query
// parameter.
func compileDirective(spec string) (Directive, error) {
	if strings.HasPrefix(spec, "/") {
		pattern, err := regexp.Compile(strings.Trim(spec, "/"))
		if err != nil {
			return Directive{}, fmt.Errorf("compile path extractor %q: %w", spec, err)
		}
		return PathPattern(pattern), nil
	}
	return QueryParam(spec), nil
}

func (d Directive) String() string {
	if d.kind == directivePathPattern {
		return "/" + d.pattern.String() + "/"
	}
	return d.param
}

// EngineRule is the complete parsing configuration for one search engine:
// the friendly name, the ordered extraction directives, an optional template
// for building a results-page link and the charsets the engine encodes
// keywords in.
type EngineRule struct {
	Name         string
	Directives   []Directive
	LinkTemplate string
	Charsets     []string
}

// NewEngineRule builds an EngineRule from raw extractor specs. Every rule
// needs at least one extractor; charsets default to utf-8 and are normalized
// to lower case.
func NewEngineRule(name string, extractors []string, linkTemplate string, charsets []string) (*EngineRule, error) {
	if name == "" {
		return nil, errors.New("engine rule needs a name")
	}
	if len(extractors) == 0 {
		return nil, fmt.Errorf("engine rule %s needs at least one extractor", name)
	}
	directives := make([]Directive, 0, len(extractors))
	for _, spec := range extractors {
		d, err := compileDirective(spec)
		if err != nil {
			return nil, fmt.Errorf("engine rule %s: %w", name, err)
		}
		directives = append(directives, d)
	}
	if len(charsets) == 0 {
		charsets = []string{"utf-8"}
	}
	lowered := make([]string, len(charsets))
	for i, c := range charsets {
		lowered[i] = strings.ToLower(c)
	}
	return &EngineRule{
		Name:         name,
		Directives:   directives,
		LinkTemplate: linkTemplate,
		Charsets:     lowered,
	}, nil
}

// SERPURL builds a link to this engine's results page for the given keyword.
// baseURL has the form "<scheme>://<host>". ok is false when the rule carries
// no link template.
func (r *EngineRule) SERPURL(baseURL, keyword string) (link string, ok bool) {
	if r.LinkTemplate == "" {
		return "", false
	}
	return baseURL + "/" + strings.ReplaceAll(r.LinkTemplate, "{k}", keyword), true
}

func (r *EngineRule) String() string {
	specs := make([]string, len(r.Directives))
	for i, d := range r.Directives {
		specs[i] = d.String()
	}
	return fmt.Sprintf("%s extractors=[%s] link=%q charsets=%s",
		r.Name, strings.Join(specs, " "), r.LinkTemplate, strings.Join(r.Charsets, ","))
}

// ExtractResult carries the outcome of a successful extraction. Keyword may
// legitimately be empty: some engines serve result pages without echoing the
// search terms. Rule is nil when the naive fallback produced the result.
type ExtractResult struct {
	Engine  string
	Keyword string
	Rule    *EngineRule
}

// parseState threads the mutable extraction state through the pre-check
// hooks. found distinguishes "no keyword" from a legitimately empty one.
type parseState struct {
	url      *ParsedURL
	effQuery string
	query    map[string][]string
	engine   string
	keyword  string
	found    bool
}

// enginePrechecks run before the generic directive loop and may relabel the
// engine or settle the keyword outright. Order matters: the images hook
// relabels the engine away from "Google", which keeps the advanced-search
// hook from firing on the same URL.
var enginePrechecks = []func(*parseState){
	googleImagesPrecheck,
	googleAdvancedSearchPrecheck,
	googleVerticalPrecheck,
}

// googleImagesPrecheck handles Google's image preview mode, which hides the
// keyword inside the prev parameter: prev itself contains a path plus query
// string, e.g. prev=/search%3Fq%3Dcats%26tbm%3Disch.
func googleImagesPrecheck(st *parseState) {
	images := st.engine == "Google Images" ||
		(st.engine == "Google" && strings.Contains(st.effQuery, "/imgres"))
	if !images {
		return
	}
	st.engine = "Google Images"
	prev, ok := st.query["prev"]
	if !ok {
		return
	}
	nested, err := url.Parse(prev[0])
	if err != nil {
		return
	}
	if vs, ok := parseQuery(nested.RawQuery, false)["q"]; ok {
		st.keyword, st.found = vs[0], true
	}
}

// googleAdvancedSearchPrecheck reassembles a keyword from Google's advanced
// search parameters, which replace the plain q parameter when result filters
// are applied. The parts keep a fixed order and render the search operators:
// as_q verbatim, as_oq as OR terms, as_epq quoted, as_eq negated.
func googleAdvancedSearchPrecheck(st *parseState) {
	if st.engine != "Google" || !strings.Contains(st.effQuery, "as_") {
		return
	}
	var parts []string
	if vs, ok := st.query["as_q"]; ok {
		parts = append(parts, vs[0])
	}
	if vs, ok := st.query["as_oq"]; ok {
		parts = append(parts, strings.ReplaceAll(vs[0], "+", " OR "))
	}
	if vs, ok := st.query["as_epq"]; ok {
		parts = append(parts, `"`+vs[0]+`"`)
	}
	if vs, ok := st.query["as_eq"]; ok {
		parts = append(parts, "-"+vs[0])
	}
	st.keyword, st.found = strings.TrimSpace(strings.Join(parts, " ")), true
}

// googleVerticalPrecheck relabels the engine when the tbm parameter shows the
// visitor used one of Google's top-bar verticals.
func googleVerticalPrecheck(st *parseState) {
	if st.engine != "Google" {
		return
	}
	vs, ok := st.query["tbm"]
	if !ok {
		return
	}
	switch vs[0] {
	case "isch":
		st.engine = "Google Images"
	case "vid":
		st.engine = "Google Video"
	case "shop":
		st.engine = "Google Shopping"
	}
}

// parse runs this rule against u and extracts the search keyword. It returns
// nil when the URL carries no keyword for this rule.
func (r *EngineRule) parse(u *ParsedURL) *ExtractResult {
	eff := u.EffectiveQuery()
	st := &parseState{
		url:      u,
		effQuery: eff,
		query:    parseQuery(eff, true),
		engine:   r.Name,
	}

	for _, precheck := range enginePrechecks {
		precheck(st)
	}
	if st.found {
		return &ExtractResult{Engine: st.engine, Keyword: st.keyword, Rule: r}
	}

	for _, d := range r.Directives {
		if d.kind == directivePathPattern {
			// First matching path pattern wins outright.
			if m := d.pattern.FindStringSubmatch(u.Path); m != nil {
				st.keyword, st.found = m[1], true
				break
			}
			continue
		}
		if vs, ok := st.query[d.param]; ok {
			// The last occurrence of a parameter is the most recent, and a
			// later directive may still overwrite an earlier match.
			st.keyword, st.found = vs[len(vs)-1], true
		}
		if !st.found && d.param == "q" {
			// Keywordless SERPs: Google Images and DuckDuckGo serve result
			// pages without a q parameter, and a bare google.com referrer is
			// a search that hid its terms.
			switch {
			case st.engine == "Google Images" || st.engine == "DuckDuckGo":
				st.keyword, st.found = "", true
			case st.engine == "Google" && u.isBare():
				st.keyword, st.found = "", true
			}
		}
	}

	if !st.found {
		return nil
	}
	return &ExtractResult{Engine: st.engine, Keyword: st.keyword, Rule: r}
}
