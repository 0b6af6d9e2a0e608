// Package serp determines whether an HTTP referrer points at a search engine
// results page and, if so, which engine it was and what the visitor searched
// for.
package serp

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bnema/serpref/internal/cache"
)

// DefaultDomainCacheSize bounds the lossy-domain cache. Referrer streams are
// heavily repetitive, so a small cache absorbs nearly all regex work.
const DefaultDomainCacheSize = 500

// Extractor owns the engine rule registry and the lossy-domain cache.
// Construct one per process with New, or use the package-level Default.
// All methods are safe for concurrent use.
type Extractor struct {
	log     zerolog.Logger
	mu      sync.RWMutex
	engines map[string]*EngineRule
	domains *cache.LRU[string, string]
}

// Option customizes an Extractor at construction time.
type Option func(*Extractor)

// WithLogger routes the extractor's diagnostics to log.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Extractor) { e.log = log }
}

// WithDomainCacheSize overrides the lossy-domain cache capacity.
func WithDomainCacheSize(n int) Option {
	return func(e *Extractor) { e.domains = cache.NewLRU[string, string](n) }
}

// New builds an Extractor over the embedded engine rule registry.
func New(opts ...Option) (*Extractor, error) {
	engines, err := loadDefaultEngines()
	if err != nil {
		return nil, err
	}
	e := &Extractor{
		log:     zerolog.Nop(),
		engines: engines,
		domains: cache.NewLRU[string, string](DefaultDomainCacheSize),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log.Debug().Int("rules", len(engines)).Msg("engine registry built")
	return e, nil
}

var (
	defaultOnce      sync.Once
	defaultExtractor *Extractor
)

// Default returns the process-wide Extractor, building it on first use. The
// rule data ships inside the binary, so a build failure is unrecoverable and
// panics loudly rather than degrading silently.
func Default() *Extractor {
	defaultOnce.Do(func() {
		e, err := New()
		if err != nil {
			panic(fmt.Sprintf("serp: building default extractor: %v", err))
		}
		defaultExtractor = e
	})
	return defaultExtractor
}

// AddCustomRule registers rule under matchKey (a domain, or domain+path),
// overwriting any existing rule for that key.
func (e *Extractor) AddCustomRule(matchKey string, rule *EngineRule) {
	e.mu.Lock()
	e.engines[matchKey] = rule
	e.mu.Unlock()
}

// Rules returns a snapshot of the registry keyed by match key.
func (e *Extractor) Rules() map[string]*EngineRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]*EngineRule, len(e.engines))
	for k, r := range e.engines {
		out[k] = r
	}
	return out
}

// AllQueryParamNames returns the distinct literal query-parameter names used
// by any registered rule, sorted. Path-pattern directives are not included.
func (e *Extractor) AllQueryParamNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, rule := range e.engines {
		for _, d := range rule.Directives {
			if d.kind == directiveQueryParam {
				seen[d.param] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindRule resolves the engine rule for a referrer URL, or nil when the URL
// is malformed or not a known SERP.
func (e *Extractor) FindRule(rawURL string) *EngineRule {
	u, err := Parse(rawURL)
	if err != nil {
		e.log.Debug().Err(err).Msg("referrer could not be parsed")
		return nil
	}
	return e.FindRuleURL(u)
}

// FindRuleURL resolves the engine rule for an already-normalized URL. Lookup
// goes from most to least specific: exact host+path, lossy host+path, lossy
// host, exact host. When all four miss, a handful of hosted-search services
// are recognized by their query or path shape.
func (e *Extractor) FindRuleURL(u *ParsedURL) *EngineRule {
	query := u.EffectiveQuery()
	host, path := u.Host, u.Path
	lossy := e.lossyDomain(host)

	e.mu.RLock()
	defer e.mu.RUnlock()

	key := host
	switch {
	case e.engines[host+path] != nil:
		key = host + path
	case e.engines[lossy+path] != nil:
		key = lossy + path
	case e.engines[lossy] != nil:
		key = lossy
	case e.engines[host] != nil:
		// key already holds the exact host
	case strings.HasPrefix(query, "cx=partner-pub"):
		// Google custom search engine
		key = "google.com/cse"
	case strings.HasPrefix(path, "/pemonitorhosted/ws/results/"):
		// private-label search powered by InfoSpace metasearch
		key = "wsdsold.infospace.com"
	case strings.Contains(host, ".images.search.yahoo.com"):
		key = "images.search.yahoo.com"
	case strings.Contains(host, ".search.yahoo.com"):
		key = "search.yahoo.com"
	default:
		return nil
	}
	return e.engines[key]
}

// extractOptions collects the per-call extraction switches.
type extractOptions struct {
	rule     *EngineRule
	naive    bool
	lower    bool
	trim     bool
	collapse bool
}

// ExtractOption adjusts a single extraction call.
type ExtractOption func(*extractOptions)

// WithRule skips rule resolution and parses with rule directly.
func WithRule(rule *EngineRule) ExtractOption {
	return func(o *extractOptions) { o.rule = rule }
}

// WithNaive enables the heuristic fallback for URLs no rule matches.
func WithNaive() ExtractOption {
	return func(o *extractOptions) { o.naive = true }
}

// WithoutLowerCase keeps the keyword's original casing.
func WithoutLowerCase() ExtractOption {
	return func(o *extractOptions) { o.lower = false }
}

// WithoutTrim keeps leading and trailing whitespace on the keyword.
func WithoutTrim() ExtractOption {
	return func(o *extractOptions) { o.trim = false }
}

// WithoutCollapseWhitespace keeps internal whitespace runs in the keyword.
func WithoutCollapseWhitespace() ExtractOption {
	return func(o *extractOptions) { o.collapse = false }
}

// Extract classifies a referrer URL and pulls out the search keyword. It
// returns nil when the URL cannot be parsed or is not a SERP; neither is an
// error condition.
func (e *Extractor) Extract(rawURL string, opts ...ExtractOption) *ExtractResult {
	u, err := Parse(rawURL)
	if err != nil {
		e.log.Debug().Err(err).Msg("referrer could not be parsed")
		return nil
	}
	return e.ExtractURL(u, opts...)
}

// ExtractURL is Extract for an already-normalized URL.
func (e *Extractor) ExtractURL(u *ParsedURL, opts ...ExtractOption) *ExtractResult {
	o := extractOptions{lower: true, trim: true, collapse: true}
	for _, opt := range opts {
		opt(&o)
	}

	rule := o.rule
	if rule == nil {
		rule = e.FindRuleURL(u)
	}
	if rule == nil {
		if !o.naive {
			return nil
		}
		return e.naiveExtract(u)
	}

	res := rule.parse(u)
	if res == nil {
		return nil
	}
	res.Keyword = postProcess(res.Keyword, o.lower, o.trim, o.collapse)
	return res
}

// IsSERP reports whether the referrer URL is a search engine results page.
func (e *Extractor) IsSERP(rawURL string, opts ...ExtractOption) bool {
	return e.Extract(rawURL, opts...) != nil
}

// Package-level convenience wrappers over the Default extractor.

// Extract classifies rawURL with the default extractor.
func Extract(rawURL string, opts ...ExtractOption) *ExtractResult {
	return Default().Extract(rawURL, opts...)
}

// IsSERP reports whether rawURL is a SERP, per the default extractor.
func IsSERP(rawURL string, opts ...ExtractOption) bool {
	return Default().IsSERP(rawURL, opts...)
}

// FindRule resolves rawURL's engine rule with the default extractor.
func FindRule(rawURL string) *EngineRule {
	return Default().FindRule(rawURL)
}

// AddCustomRule registers a rule in the default extractor's registry.
func AddCustomRule(matchKey string, rule *EngineRule) {
	Default().AddCustomRule(matchKey, rule)
}

// AllQueryParamNames enumerates the default registry's query parameters.
func AllQueryParamNames() []string {
	return Default().AllQueryParamNames()
}
