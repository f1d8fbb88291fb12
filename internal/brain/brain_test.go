package brain

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/kb-resolver/internal/resilience"
	"github.com/sells-group/kb-resolver/pkg/anthropic"
	"github.com/sells-group/kb-resolver/pkg/gemini"
)

type genFunc func(ctx context.Context, prompt string) (string, error)

func (f genFunc) Generate(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }

type counter struct {
	connects atomic.Int32
	calls    atomic.Int32
}

func (c *counter) deployment(name string, fn genFunc) Deployment {
	return Deployment{
		Name: name,
		Connect: func(context.Context) (Generator, error) {
			c.connects.Add(1)
			return genFunc(func(ctx context.Context, prompt string) (string, error) {
				c.calls.Add(1)
				return fn(ctx, prompt)
			}), nil
		},
	}
}

func reply(text string) genFunc {
	return func(context.Context, string) (string, error) { return text, nil }
}

func failing(msg string) genFunc {
	return func(context.Context, string) (string, error) { return "", errors.New(msg) }
}

func TestAsk_Primary(t *testing.T) {
	var p, f counter
	var gotPrompt string
	b := New(p.deployment("anthropic", func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "  Diversification spreads risk.  ", nil
	}), f.deployment("gemini", reply("unused")), Config{})

	res, err := b.Ask(context.Background(), " What is diversification? ")
	require.NoError(t, err)
	assert.Equal(t, Result{Text: "Diversification spreads risk.", Deployment: "anthropic"}, res)
	assert.Contains(t, gotPrompt, "Question: What is diversification?")
	assert.Zero(t, f.connects.Load())

	// The primary generator is reused.
	_, err = b.Ask(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.connects.Load())
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestAsk_FallbackOnError(t *testing.T) {
	var p, f counter
	b := New(p.deployment("anthropic", failing("overloaded")), f.deployment("gemini", reply("Fallback answer.")), Config{})

	res, err := b.Ask(context.Background(), "What is a bond?")
	require.NoError(t, err)
	assert.Equal(t, "Fallback answer.", res.Text)
	assert.Equal(t, "gemini", res.Deployment)
	assert.True(t, res.Fallback)
	assert.Equal(t, int32(1), p.calls.Load())
	assert.Equal(t, int32(1), f.connects.Load())
}

func TestAsk_FallbackOnEmpty(t *testing.T) {
	var p, f counter
	b := New(p.deployment("anthropic", reply("   ")), f.deployment("gemini", reply("From fallback.")), Config{})

	res, err := b.Ask(context.Background(), "What is inflation?")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, 1, b.Breaker().Failures())
}

func TestAsk_BothFail(t *testing.T) {
	var p, f counter
	b := New(p.deployment("anthropic", failing("network down")), f.deployment("gemini", reply("")), Config{})

	res, err := b.Ask(context.Background(), "What is a dividend?")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "network down")
	assert.Empty(t, res.Text)

	// Exactly one attempt on each deployment.
	assert.Equal(t, int32(1), p.calls.Load())
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestAsk_Unconfigured(t *testing.T) {
	b := New(Deployment{Name: "anthropic"}, Deployment{Name: "gemini"}, Config{})

	_, err := b.Ask(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "not configured")
}

func TestAsk_ConnectErrorReconnects(t *testing.T) {
	var connects int
	primary := Deployment{
		Name: "anthropic",
		Connect: func(context.Context) (Generator, error) {
			connects++
			if connects == 1 {
				return nil, errors.New("no credentials")
			}
			return reply("Recovered."), nil
		},
	}
	var f counter
	b := New(primary, f.deployment("gemini", reply("Fallback.")), Config{})

	res, err := b.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.True(t, res.Fallback)

	res, err = b.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "Recovered.", res.Text)
	assert.False(t, res.Fallback)
}

func TestAsk_Timeout(t *testing.T) {
	var p, f counter
	slow := func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	b := New(p.deployment("anthropic", slow), f.deployment("gemini", reply("Quick.")), Config{Timeout: 20 * time.Millisecond})

	start := time.Now()
	res, err := b.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "Quick.", res.Text)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAsk_OpenCircuitSkipsPrimary(t *testing.T) {
	var p, f counter
	b := New(p.deployment("anthropic", failing("boom")), f.deployment("gemini", reply("Fallback.")), Config{
		Breaker: resilience.BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour},
	})

	for range 2 {
		_, err := b.Ask(context.Background(), "q")
		require.NoError(t, err)
	}
	require.Equal(t, resilience.StateOpen, b.Breaker().State())
	assert.Equal(t, "anthropic", b.Breaker().Name())

	res, err := b.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, int32(2), p.calls.Load())
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestAsk_RateLimitCancelled(t *testing.T) {
	var p, f counter
	b := New(p.deployment("anthropic", reply("a")), f.deployment("gemini", reply("b")), Config{RatePerSecond: 0.001, Burst: 1})

	_, err := b.Ask(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = b.Ask(ctx, "second")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnavailable))
}

type fakeAnthropic struct {
	req  anthropic.MessageRequest
	resp *anthropic.MessageResponse
	err  error
}

func (f *fakeAnthropic) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestAnthropicGenerator(t *testing.T) {
	fake := &fakeAnthropic{resp: &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "Equity is ownership."}},
	}}
	g := NewAnthropicGenerator(fake, "", 0)

	text, err := g.Generate(context.Background(), "What is equity?")
	require.NoError(t, err)
	assert.Equal(t, "Equity is ownership.", text)
	assert.Equal(t, DefaultAnthropicModel, fake.req.Model)
	assert.Equal(t, int64(512), fake.req.MaxTokens)
	require.Len(t, fake.req.System, 1)
	assert.Equal(t, SystemPrompt, fake.req.System[0].Text)
	assert.Equal(t, "What is equity?", fake.req.Messages[0].Content)

	fake.err = errors.New("529 overloaded")
	_, err = g.Generate(context.Background(), "x")
	assert.EqualError(t, err, "529 overloaded")
}

func TestAnthropicDeployment_RequiresKey(t *testing.T) {
	_, err := AnthropicDeployment("anthropic", AnthropicConfig{}).Connect(context.Background())
	require.Error(t, err)

	g, err := AnthropicDeployment("anthropic", AnthropicConfig{APIKey: "k"}).Connect(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, g)
}

type fakeGemini struct{ system string }

func (f *fakeGemini) Generate(_ context.Context, prompt, system string) (string, error) {
	f.system = system
	return "echo: " + prompt, nil
}

func TestGeminiGenerator(t *testing.T) {
	fake := &fakeGemini{}
	text, err := NewGeminiGenerator(fake).Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", text)
	assert.Equal(t, SystemPrompt, fake.system)

	_, err = GeminiDeployment("gemini", gemini.Config{}).Connect(context.Background())
	assert.Error(t, err)
}

func TestPrompt(t *testing.T) {
	assert.Equal(t, "Answer the following question in two or three sentences.\n\nQuestion: What is a bond?", Prompt(" What is a bond? "))

	got := Prompt("Who audits the bank?", "Auditor: Ernst & Young.", " Head Office: Abuja. ")
	assert.Equal(t, "Answer the following question in two or three sentences.\n\n"+
		"Facts from the knowledge base that may be relevant:\n"+
		"- Auditor: Ernst & Young.\n"+
		"- Head Office: Abuja.\n\n"+
		"Question: Who audits the bank?", got)
}
