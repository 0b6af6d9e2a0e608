package cli

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bnema/serpref/internal/config"
	"github.com/bnema/serpref/internal/logging"
	"github.com/bnema/serpref/internal/serp"
)

// App wires configuration, logging and the extractor together for the CLI
// commands.
type App struct {
	Manager   *config.Manager
	Log       zerolog.Logger
	Extractor *serp.Extractor

	mu      sync.RWMutex
	extract config.ExtractConfig
}

// newApp loads configuration, builds the logger and the extractor, and
// registers any user-defined custom rules.
func newApp() (*App, error) {
	// Config is not loaded yet, so bootstrap diagnostics go through the
	// env-configured logger.
	bootLog := logging.NewFromEnv()

	manager, err := config.NewManager()
	if err != nil {
		bootLog.Error().Err(err).Msg("config initialization failed")
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	if err := manager.Load(); err != nil {
		bootLog.Error().Err(err).Msg("config load failed")
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := manager.Get()

	log := logging.New(logging.Config{
		Level:      logging.ParseLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		TimeFormat: logging.DefaultConfig().TimeFormat,
	})

	extractor, err := serp.New(
		serp.WithLogger(log),
		serp.WithDomainCacheSize(cfg.Cache.DomainCacheSize),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build extractor: %w", err)
	}

	for _, custom := range cfg.CustomRules {
		rule, err := serp.NewEngineRule(custom.Engine, custom.Extractors, custom.Link, custom.Charsets)
		if err != nil {
			return nil, fmt.Errorf("invalid custom rule %q: %w", custom.Key, err)
		}
		extractor.AddCustomRule(custom.Key, rule)
		log.Debug().Str("key", custom.Key).Str("engine", custom.Engine).Msg("registered custom rule")
	}

	app := &App{
		Manager:   manager,
		Log:       log,
		Extractor: extractor,
		extract:   cfg.Extract,
	}
	manager.OnConfigChange(func(c *config.Config) {
		app.mu.Lock()
		app.extract = c.Extract
		app.mu.Unlock()
		log.Debug().Msg("extraction defaults reloaded")
	})
	return app, nil
}

// extractOptions translates the current extraction defaults, plus any
// explicit flag overrides, into serp options.
func (a *App) extractOptions(flags extractFlags) []serp.ExtractOption {
	a.mu.RLock()
	cfg := a.extract
	a.mu.RUnlock()

	var opts []serp.ExtractOption
	if flags.naive || cfg.NaiveFallback {
		opts = append(opts, serp.WithNaive())
	}
	if flags.noLowerCase || !cfg.LowerCase {
		opts = append(opts, serp.WithoutLowerCase())
	}
	if flags.noTrim || !cfg.Trim {
		opts = append(opts, serp.WithoutTrim())
	}
	if flags.noCollapse || !cfg.CollapseWhitespace {
		opts = append(opts, serp.WithoutCollapseWhitespace())
	}
	return opts
}
