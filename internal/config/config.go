package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/kb-resolver/internal/dispatch"
	"github.com/sells-group/kb-resolver/internal/engine"
	"github.com/sells-group/kb-resolver/internal/fetcher"
	"github.com/sells-group/kb-resolver/internal/resilience"
	"github.com/sells-group/kb-resolver/internal/store"
	"github.com/sells-group/kb-resolver/internal/valuation"
)

// Config holds the full application configuration.
type Config struct {
	KB        KBConfig        `yaml:"kb" mapstructure:"kb"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Brain     BrainConfig     `yaml:"brain" mapstructure:"brain"`
	Semantic  SemanticConfig  `yaml:"semantic" mapstructure:"semantic"`
	Valuation ValuationConfig `yaml:"valuation" mapstructure:"valuation"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// KBConfig locates the knowledge-base snapshot.
type KBConfig struct {
	// Source is a local path or a file://, http(s):// or ftp:// URL.
	Source string `yaml:"source" mapstructure:"source"`
	// PriceSheets are optional xlsx/csv price files merged into market data.
	PriceSheets []string `yaml:"price_sheets" mapstructure:"price_sheets"`
}

// RegistryConfig points at an optional YAML file of synonym overrides.
type RegistryConfig struct {
	Overrides string `yaml:"overrides" mapstructure:"overrides"`
}

// StoreConfig configures the query-history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	// Disabled turns history recording off.
	Disabled bool `yaml:"disabled" mapstructure:"disabled"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Model       string  `yaml:"model" mapstructure:"model"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
}

// Brain providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// BrainConfig configures the external generative brain.
type BrainConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Primary and Fallback name a provider: "anthropic" or "gemini".
	Primary          string  `yaml:"primary" mapstructure:"primary"`
	Fallback         string  `yaml:"fallback" mapstructure:"fallback"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSecond    float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst            int     `yaml:"burst" mapstructure:"burst"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// Breaker returns the circuit breaker settings for the primary deployment.
func (c BrainConfig) Breaker() resilience.BreakerConfig {
	return resilience.BreakerFromConfig(c.Primary, c.FailureThreshold, c.ResetTimeoutSecs)
}

// Timeout returns the per-call timeout.
func (c BrainConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// requestSlackSecs is the request time reserved beyond the two brain calls
// (primary and its fallback retry) for the local stages and the response.
const requestSlackSecs = 5

// MinRequestTimeoutSecs is the shortest request timeout that still lets a
// hung primary deployment time out and the fallback retry run to its own
// timeout.
func (c BrainConfig) MinRequestTimeoutSecs() int {
	return 2*c.TimeoutSecs + requestSlackSecs
}

// SemanticConfig sets the retrieval thresholds.
type SemanticConfig struct {
	Descriptive float64 `yaml:"descriptive" mapstructure:"descriptive"`
	Numeric     float64 `yaml:"numeric" mapstructure:"numeric"`
	Default     float64 `yaml:"default" mapstructure:"default"`
	HybridFloor float64 `yaml:"hybrid_floor" mapstructure:"hybrid_floor"`
	TopK        int     `yaml:"top_k" mapstructure:"top_k"`
}

// Thresholds converts to dispatch.Thresholds.
func (c SemanticConfig) Thresholds() dispatch.Thresholds {
	return dispatch.Thresholds{
		Descriptive: c.Descriptive,
		Numeric:     c.Numeric,
		Default:     c.Default,
		HybridFloor: c.HybridFloor,
		TopK:        c.TopK,
	}
}

// ValuationConfig guards the P/E calculation.
type ValuationConfig struct {
	MinEPS   float64 `yaml:"min_eps" mapstructure:"min_eps"`
	MaxRatio float64 `yaml:"max_ratio" mapstructure:"max_ratio"`
}

// EngineConfig names the organisations the knowledge base describes.
type EngineConfig struct {
	Organisation    string   `yaml:"organisation" mapstructure:"organisation"`
	Symbol          string   `yaml:"symbol" mapstructure:"symbol"`
	Firm            string   `yaml:"firm" mapstructure:"firm"`
	Assistant       string   `yaml:"assistant" mapstructure:"assistant"`
	ComplaintsEmail string   `yaml:"complaints_email" mapstructure:"complaints_email"`
	SummaryMetrics  []string `yaml:"summary_metrics" mapstructure:"summary_metrics"`
}

// EngineOptions combines the engine and valuation sections into engine.Options.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		Organisation:    c.Engine.Organisation,
		Symbol:          c.Engine.Symbol,
		Firm:            c.Engine.Firm,
		Assistant:       c.Engine.Assistant,
		ComplaintsEmail: c.Engine.ComplaintsEmail,
		SummaryMetrics:  c.Engine.SummaryMetrics,
		Valuation:       valuation.Filters{MinEPS: c.Valuation.MinEPS, MaxRatio: c.Valuation.MaxRatio},
	}
}

// StoreOptions converts the store section to store.Config.
func (c *Config) StoreOptions() store.Config {
	return store.Config{
		Driver:   c.Store.Driver,
		DSN:      c.Store.DatabaseURL,
		MaxConns: c.Store.MaxConns,
		MinConns: c.Store.MinConns,
	}
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	// RequestTimeoutSecs bounds one /ask request. It must cover two brain
	// calls; see BrainConfig.MinRequestTimeoutSecs.
	RequestTimeoutSecs int `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	// ReloadEnabled exposes POST /reload. Periodic reloads via
	// serve --reload-interval do not need it.
	ReloadEnabled bool `yaml:"reload_enabled" mapstructure:"reload_enabled"`
}

// FetchConfig configures snapshot downloads.
type FetchConfig struct {
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries    int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int     `yaml:"burst" mapstructure:"burst"`
	BackoffMs     int     `yaml:"backoff_ms" mapstructure:"backoff_ms"`
}

// Options converts to fetcher.Options.
func (c FetchConfig) Options() fetcher.Options {
	timeout := time.Duration(c.TimeoutSecs) * time.Second
	return fetcher.Options{
		HTTP: fetcher.HTTPOptions{
			UserAgent:     c.UserAgent,
			Timeout:       timeout,
			MaxRetries:    c.MaxRetries,
			RatePerSecond: c.RatePerSecond,
			Burst:         c.Burst,
			BaseBackoff:   time.Duration(c.BackoffMs) * time.Millisecond,
		},
		FTP: fetcher.FTPOptions{
			Timeout: timeout,
			Retry:   resilience.RetryFromConfig(c.MaxRetries, c.BackoffMs, 0),
		},
	}
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("KBR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Provider keys are commonly exported without the prefix.
	if cfg.Anthropic.Key == "" {
		cfg.Anthropic.Key = v.GetString("anthropic_api_key_fallback")
	}
	if cfg.Gemini.Key == "" {
		cfg.Gemini.Key = v.GetString("gemini_api_key_fallback")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "serve", "ask", "kb" and "history".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Brain.Enabled && c.Brain.TimeoutSecs > 0 && c.Server.RequestTimeoutSecs < c.Brain.MinRequestTimeoutSecs() {
			errs = append(errs, fmt.Sprintf("server.request_timeout_secs must be >= %d (twice brain.timeout_secs plus %ds)",
				c.Brain.MinRequestTimeoutSecs(), requestSlackSecs))
		}
		errs = append(errs, c.validateResolver()...)
	case "ask":
		errs = append(errs, c.validateResolver()...)
	case "kb":
		if c.KB.Source == "" {
			errs = append(errs, "kb.source is required")
		}
	case "history":
		if c.Store.Disabled {
			errs = append(errs, "store is disabled")
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateResolver() []string {
	var errs []string
	if c.KB.Source == "" {
		errs = append(errs, "kb.source is required")
	}
	for _, th := range []struct {
		name  string
		value float64
	}{
		{"semantic.descriptive", c.Semantic.Descriptive},
		{"semantic.numeric", c.Semantic.Numeric},
		{"semantic.default", c.Semantic.Default},
		{"semantic.hybrid_floor", c.Semantic.HybridFloor},
	} {
		if th.value < 0 || th.value > 1 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 1", th.name))
		}
	}
	if c.Semantic.TopK < 1 {
		errs = append(errs, "semantic.top_k must be >= 1")
	}
	if c.Valuation.MinEPS < 0 {
		errs = append(errs, "valuation.min_eps must be >= 0")
	}
	if c.Valuation.MaxRatio <= 0 {
		errs = append(errs, "valuation.max_ratio must be > 0")
	}
	if c.Brain.Enabled {
		if !knownProvider(c.Brain.Primary) {
			errs = append(errs, fmt.Sprintf("brain.primary %q is not a known provider", c.Brain.Primary))
		}
		if c.Brain.Fallback != "" && !knownProvider(c.Brain.Fallback) {
			errs = append(errs, fmt.Sprintf("brain.fallback %q is not a known provider", c.Brain.Fallback))
		}
	}
	return errs
}

func knownProvider(name string) bool {
	return name == ProviderAnthropic || name == ProviderGemini
}

func setDefaults(v *viper.Viper) {
	d := engine.DefaultOptions()
	th := dispatch.DefaultThresholds()

	v.SetDefault("kb.source", "data/knowledge_base.json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "kbr.db")
	// Empty keys are registered so KBR_ANTHROPIC_KEY and friends unmarshal.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("registry.overrides", "")
	v.SetDefault("store.disabled", false)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 512)
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.2)
	v.SetDefault("brain.enabled", true)
	v.SetDefault("brain.primary", "anthropic")
	v.SetDefault("brain.fallback", "gemini")
	v.SetDefault("brain.timeout_secs", 20)
	v.SetDefault("brain.rate_per_second", 2.0)
	v.SetDefault("brain.burst", 4)
	v.SetDefault("brain.failure_threshold", 3)
	v.SetDefault("brain.reset_timeout_secs", 60)
	v.SetDefault("semantic.descriptive", th.Descriptive)
	v.SetDefault("semantic.numeric", th.Numeric)
	v.SetDefault("semantic.default", th.Default)
	v.SetDefault("semantic.hybrid_floor", th.HybridFloor)
	v.SetDefault("semantic.top_k", th.TopK)
	v.SetDefault("valuation.min_eps", valuation.DefaultMinEPS)
	v.SetDefault("valuation.max_ratio", valuation.DefaultMaxRatio)
	v.SetDefault("engine.organisation", d.Organisation)
	v.SetDefault("engine.symbol", d.Symbol)
	v.SetDefault("engine.firm", d.Firm)
	v.SetDefault("engine.assistant", d.Assistant)
	v.SetDefault("engine.complaints_email", d.ComplaintsEmail)
	v.SetDefault("engine.summary_metrics", d.SummaryMetrics)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.request_timeout_secs", 45)
	v.SetDefault("server.reload_enabled", false)
	v.SetDefault("fetch.user_agent", "kb-resolver/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_second", 2.0)
	v.SetDefault("fetch.burst", 2)
	v.SetDefault("fetch.backoff_ms", 500)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	_ = v.BindEnv("anthropic_api_key_fallback", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("gemini_api_key_fallback", "GEMINI_API_KEY", "GOOGLE_API_KEY")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
