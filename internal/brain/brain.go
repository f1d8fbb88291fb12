// Package brain calls an external generative model for questions the
// knowledge base cannot answer. A primary deployment is guarded by a circuit
// breaker; on error or an empty reply the fallback deployment is connected
// afresh and tried exactly once.
package brain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/kb-resolver/internal/resilience"
)

// OfflineMessage is returned to callers when neither deployment answers.
const OfflineMessage = "My external knowledge service is currently unavailable, so I can't answer that right now. " +
	"Please try again later, or ask about the financial data, stock prices, or company information in my knowledge base."

// SystemPrompt is the instruction sent with every question.
const SystemPrompt = "You are a financial research assistant. Answer factually and concisely in plain prose. " +
	"If you do not know the answer, say so instead of guessing."

var (
	// ErrEmptyResponse is returned by generators that produced no text.
	ErrEmptyResponse = eris.New("brain: empty response")
	// ErrUnavailable is returned when both deployments failed.
	ErrUnavailable = eris.New("brain: unavailable")
	// ErrNotConfigured is returned when a deployment has no connector.
	ErrNotConfigured = eris.New("brain: deployment not configured")
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Deployment names a model endpoint and how to connect to it.
type Deployment struct {
	Name    string
	Connect func(ctx context.Context) (Generator, error)
}

func (d Deployment) connect(ctx context.Context) (Generator, error) {
	if d.Connect == nil {
		return nil, ErrNotConfigured
	}
	g, err := d.Connect(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "brain: connect %s", d.Name)
	}
	return g, nil
}

// Config tunes a Brain.
type Config struct {
	// Timeout bounds each model call. Default: 20s.
	Timeout time.Duration
	// RatePerSecond limits model calls across all requests. Zero disables.
	RatePerSecond float64
	Burst         int
	// Breaker guards the primary deployment.
	Breaker resilience.BreakerConfig
}

// Result is a successful model answer.
type Result struct {
	Text       string
	Deployment string
	Fallback   bool
}

// Brain answers free-form questions through the primary and fallback
// deployments. It is safe for concurrent use.
type Brain struct {
	primary  Deployment
	fallback Deployment
	timeout  time.Duration
	limiter  *rate.Limiter
	breaker  *resilience.Breaker

	mu  sync.Mutex
	gen Generator
}

// New creates a Brain. The primary deployment is connected on first use.
func New(primary, fallback Deployment, cfg Config) *Brain {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = primary.Name
	}
	if cfg.Breaker.OnStateChange == nil {
		cfg.Breaker.OnStateChange = func(name string, from, to resilience.State) {
			zap.L().Warn("brain: circuit state changed",
				zap.String("deployment", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		}
	}
	b := &Brain{
		primary:  primary,
		fallback: fallback,
		timeout:  cfg.Timeout,
		breaker:  resilience.NewBreaker(cfg.Breaker),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return b
}

// Breaker exposes the primary deployment's circuit breaker.
func (b *Brain) Breaker() *resilience.Breaker {
	return b.breaker
}

// Prompt builds the user prompt sent for a question. Facts from the
// knowledge base, when given, are listed ahead of the question.
func Prompt(question string, facts ...string) string {
	var b strings.Builder
	b.WriteString("Answer the following question in two or three sentences.\n\n")
	if len(facts) > 0 {
		b.WriteString("Facts from the knowledge base that may be relevant:\n")
		for _, f := range facts {
			fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(f))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Question: %s", strings.TrimSpace(question))
	return b.String()
}

// Ask sends question to the primary deployment and, if that fails or
// returns nothing, once to a freshly connected fallback deployment. The
// returned error wraps ErrUnavailable when neither answered.
func (b *Brain) Ask(ctx context.Context, question string, facts ...string) (Result, error) {
	prompt := Prompt(question, facts...)

	text, err := resilience.Call(ctx, b.breaker, func(ctx context.Context) (string, error) {
		g, err := b.primaryGenerator(ctx)
		if err != nil {
			return "", err
		}
		return b.generate(ctx, g, prompt)
	})
	if err == nil {
		return Result{Text: text, Deployment: b.primary.Name}, nil
	}
	if eris.Is(err, resilience.ErrOpen) {
		zap.L().Debug("brain: primary circuit open, using fallback", zap.String("deployment", b.primary.Name))
	} else {
		zap.L().Warn("brain: primary deployment failed",
			zap.String("deployment", b.primary.Name),
			zap.Error(err),
		)
		b.dropPrimary()
	}

	g, ferr := b.fallback.connect(ctx)
	if ferr == nil {
		text, ferr = b.generate(ctx, g, prompt)
	}
	if ferr != nil {
		zap.L().Warn("brain: fallback deployment failed",
			zap.String("deployment", b.fallback.Name),
			zap.Error(ferr),
		)
		return Result{}, eris.Wrapf(ErrUnavailable, "primary: %v; fallback: %v", err, ferr)
	}
	return Result{Text: text, Deployment: b.fallback.Name, Fallback: true}, nil
}

func (b *Brain) primaryGenerator(ctx context.Context) (Generator, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gen != nil {
		return b.gen, nil
	}
	g, err := b.primary.connect(ctx)
	if err != nil {
		return nil, err
	}
	b.gen = g
	return g, nil
}

// dropPrimary forces a reconnect on the next call.
func (b *Brain) dropPrimary() {
	b.mu.Lock()
	b.gen = nil
	b.mu.Unlock()
}

func (b *Brain) generate(ctx context.Context, g Generator, prompt string) (string, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "brain: rate limit wait")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	text, err := g.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
