package config

// defaultDomainCacheSize matches the extractor's built-in lossy-domain cache
// bound.
const defaultDomainCacheSize = 500

// DefaultConfig returns the default configuration values for serpref.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Cache: CacheConfig{
			DomainCacheSize: defaultDomainCacheSize,
		},
		Extract: ExtractConfig{
			LowerCase:          true,
			Trim:               true,
			CollapseWhitespace: true,
			NaiveFallback:      false,
		},
	}
}
