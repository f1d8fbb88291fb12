package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/kb-resolver/internal/brain"
	"github.com/sells-group/kb-resolver/internal/config"
	"github.com/sells-group/kb-resolver/internal/dispatch"
	"github.com/sells-group/kb-resolver/internal/fetcher"
	"github.com/sells-group/kb-resolver/internal/kb"
	"github.com/sells-group/kb-resolver/internal/registry"
	"github.com/sells-group/kb-resolver/internal/store"
	"github.com/sells-group/kb-resolver/pkg/gemini"
)

// appEnv holds everything the ask and serve commands share.
type appEnv struct {
	Dispatcher *dispatch.Dispatcher
	Brain      *brain.Brain // nil when disabled
	Store      store.Store  // nil when history is disabled
	Opener     kb.Opener
	Registry   *registry.Registry
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// Reload rebuilds the knowledge-base state and swaps it in. On failure the
// current state keeps serving.
func (e *appEnv) Reload(ctx context.Context) error {
	st, err := loadState(ctx, cfg, e.Opener, e.Registry)
	if err != nil {
		return err
	}
	e.Dispatcher.Swap(st)
	return nil
}

// initApp loads the registry and snapshot, connects the history store and
// builds the dispatcher. Callers should defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	reg, err := registry.Load(cfg.Registry.Overrides)
	if err != nil {
		return nil, eris.Wrap(err, "load registry")
	}

	env := &appEnv{
		Opener:   fetcher.NewOpener(cfg.Fetch.Options()),
		Registry: reg,
	}

	st, err := loadState(ctx, cfg, env.Opener, reg)
	if err != nil {
		return nil, err
	}

	opts := dispatch.Options{Thresholds: cfg.Semantic.Thresholds()}
	if cfg.Brain.Enabled {
		env.Brain = newBrain(cfg)
		opts.Brain = env.Brain
	}
	if !cfg.Store.Disabled {
		s, err := store.Open(ctx, cfg.StoreOptions())
		if err != nil {
			// Answering continues without history.
			zap.L().Warn("history store unavailable", zap.Error(err))
		} else {
			env.Store = s
			opts.History = s
		}
	}

	env.Dispatcher = dispatch.New(st, opts)
	return env, nil
}

// loadState fetches the snapshot plus any price sheets and derives a State.
func loadState(ctx context.Context, c *config.Config, opener kb.Opener, reg *registry.Registry) (*dispatch.State, error) {
	snap, err := kb.Load(ctx, c.KB.Source, opener)
	if err != nil {
		return nil, err
	}
	for _, sheet := range c.KB.PriceSheets {
		recs, err := kb.LoadPriceSheet(ctx, sheet, opener)
		if err != nil {
			return nil, err
		}
		snap = snap.WithMarket(recs)
	}
	return dispatch.Build(snap, reg, c.EngineOptions()), nil
}

// newBrain builds the external brain from the configured primary and
// fallback providers.
func newBrain(c *config.Config) *brain.Brain {
	primary := deployment(c, c.Brain.Primary)
	var fallback brain.Deployment
	if c.Brain.Fallback != "" {
		fallback = deployment(c, c.Brain.Fallback)
	}
	return brain.New(primary, fallback, brain.Config{
		Timeout:       c.Brain.Timeout(),
		RatePerSecond: c.Brain.RatePerSecond,
		Burst:         c.Brain.Burst,
		Breaker:       c.Brain.Breaker(),
	})
}

func deployment(c *config.Config, provider string) brain.Deployment {
	switch provider {
	case config.ProviderGemini:
		return brain.GeminiDeployment(provider, gemini.Config{
			APIKey:      c.Gemini.Key,
			Model:       c.Gemini.Model,
			BaseURL:     c.Gemini.BaseURL,
			Temperature: c.Gemini.Temperature,
		})
	default:
		return brain.AnthropicDeployment(provider, brain.AnthropicConfig{
			APIKey:    c.Anthropic.Key,
			BaseURL:   c.Anthropic.BaseURL,
			Model:     c.Anthropic.Model,
			MaxTokens: c.Anthropic.MaxTokens,
		})
	}
}
