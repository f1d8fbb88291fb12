// Package dispatch routes a question through the chain of resolution
// stages: structured lookup by the domain engines, semantic retrieval over
// the knowledge base, the external generative brain, and finally a fixed
// guidance answer.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sells-group/kb-resolver/internal/brain"
	"github.com/sells-group/kb-resolver/internal/engine"
	"github.com/sells-group/kb-resolver/internal/metric"
	"github.com/sells-group/kb-resolver/internal/model"
)

// Stage names, in chain order.
const (
	StageStructured = "structured_lookup"
	StageSemantic   = "semantic_fallback"
	StageExternal   = "external_brain"
	StageDefault    = "default"
)

// Provenance values for answers not produced by a named engine.
const (
	ProvenanceInputValidation = "input_validation"
	ProvenanceDefault         = "default"
	ProvenanceSemantic        = "semantic_index"
	ProvenanceBrainOffline    = "external_brain_unavailable"
	ProvenanceInternalError   = "internal_error"
)

// historyTimeout bounds a history write. The write outlives the request so
// timed-out answers are still recorded.
const historyTimeout = 5 * time.Second

// EmptyQuestionMessage answers blank input.
const EmptyQuestionMessage = "Please provide a specific question."

// DefaultMessage answers questions no stage could resolve.
const DefaultMessage = "I don't have specific information about that query in my knowledge base. " +
	"Please try rephrasing or asking about financial data, stock prices, or company information."

// Brain answers free-form questions, optionally grounded on facts.
type Brain interface {
	Ask(ctx context.Context, question string, facts ...string) (brain.Result, error)
}

// History records answered questions.
type History interface {
	RecordQuery(ctx context.Context, rec model.QueryRecord) error
}

// Options configures a Dispatcher. A nil Brain skips the external stage; a
// nil History records nothing.
type Options struct {
	Brain      Brain
	History    History
	Thresholds Thresholds
}

// Dispatcher answers questions against the current State. It holds no
// per-request state and is safe for concurrent use.
type Dispatcher struct {
	state      atomic.Pointer[State]
	brain      Brain
	history    History
	thresholds Thresholds
}

// New creates a Dispatcher over st.
func New(st *State, opts Options) *Dispatcher {
	d := &Dispatcher{
		brain:      opts.Brain,
		history:    opts.History,
		thresholds: opts.Thresholds.withDefaults(),
	}
	if st == nil {
		st = Build(nil, nil, engine.Options{})
	}
	d.state.Store(st)
	return d
}

// State returns the State questions are currently answered against.
func (d *Dispatcher) State() *State {
	return d.state.Load()
}

// Swap replaces the State. In-flight questions finish on the State they
// started with.
func (d *Dispatcher) Swap(st *State) {
	if st == nil {
		return
	}
	d.state.Store(st)
	zap.L().Info("dispatch: knowledge base swapped",
		zap.Int("metrics", st.Index.Len()),
		zap.Int("documents", st.Semantic.Len()),
		zap.Time("built_at", st.BuiltAt),
	)
}

// Plan returns the stages tried for an intent, in order. The default stage
// always follows.
func Plan(in model.Intent) []string {
	switch in {
	case model.IntentConcept, model.IntentNews:
		return []string{StageExternal}
	default:
		return []string{StageStructured, StageSemantic, StageExternal}
	}
}

// Ask answers question. It never fails: internal errors and panics degrade
// to a guidance answer whose provenance says so.
func (d *Dispatcher) Ask(ctx context.Context, question string) (resp model.DispatchResponse) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "dispatch.Ask")
	defer span.End()

	st := d.state.Load()
	question = strings.TrimSpace(question)

	defer func() {
		if r := recover(); r != nil {
			panicsTotal.Inc()
			zap.L().Error("dispatch: recovered panic",
				zap.String("question", question),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			span.SetStatus(codes.Error, fmt.Sprint(r))
			resp = model.DispatchResponse{
				Answer:     DefaultMessage,
				BrainUsed:  model.BrainLocal,
				Provenance: ProvenanceInternalError,
				Confidence: model.ConfidenceLow,
				Intent:     resp.Intent,
			}
		}
		d.finish(ctx, span, question, start, &resp)
	}()

	if question == "" {
		return model.DispatchResponse{
			Answer:     EmptyQuestionMessage,
			BrainUsed:  model.BrainLocal,
			Provenance: ProvenanceInputValidation,
			Confidence: model.ConfidenceLow,
			Intent:     model.IntentUnknown,
		}
	}

	in := st.Classifier.Classify(question)
	resp.Intent = in
	span.SetAttributes(attribute.String("intent", string(in)))

	q := engine.NewQuery(question, in, metric.ParseQuery(question, st.Registry))

	var facts []string
	var factRefs []model.SourceRef
	for _, stage := range Plan(in) {
		var (
			out model.DispatchResponse
			ok  bool
		)
		switch stage {
		case StageStructured:
			out, ok = d.structured(ctx, st, q)
		case StageSemantic:
			out, ok, facts, factRefs = d.semantic(ctx, st, q)
		case StageExternal:
			out, ok = d.external(ctx, question, facts, factRefs)
		}
		if ok {
			out.Intent = in
			return out
		}
	}

	stageOutcomesTotal.WithLabelValues(StageDefault, outcomeAnswered).Inc()
	return model.DispatchResponse{
		Answer:     DefaultMessage,
		BrainUsed:  model.BrainLocal,
		Provenance: ProvenanceDefault,
		Confidence: model.ConfidenceLow,
		Intent:     in,
	}
}

func (d *Dispatcher) finish(ctx context.Context, span trace.Span, question string, start time.Time, resp *model.DispatchResponse) {
	elapsed := time.Since(start)
	resp.ElapsedMS = elapsed.Milliseconds()

	asksTotal.WithLabelValues(string(resp.Intent), string(resp.BrainUsed), resp.Provenance).Inc()
	askLatencySeconds.WithLabelValues(string(resp.BrainUsed)).Observe(elapsed.Seconds())
	span.SetAttributes(
		attribute.String("brain", string(resp.BrainUsed)),
		attribute.String("provenance", resp.Provenance),
		attribute.String("confidence", string(resp.Confidence)),
	)

	zap.L().Info("dispatch: answered",
		zap.String("intent", string(resp.Intent)),
		zap.String("brain", string(resp.BrainUsed)),
		zap.String("provenance", resp.Provenance),
		zap.String("confidence", string(resp.Confidence)),
		zap.Int64("elapsed_ms", resp.ElapsedMS),
	)

	if d.history == nil || question == "" {
		return
	}
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()
	if err := d.history.RecordQuery(hctx, model.NewQueryRecord(question, *resp)); err != nil {
		zap.L().Warn("dispatch: record query failed", zap.Error(err))
	}
}

func (d *Dispatcher) structured(ctx context.Context, st *State, q engine.Query) (model.DispatchResponse, bool) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "dispatch.structured")
	defer span.End()

	for _, e := range st.Engines {
		a, ok := safeAnswer(ctx, e, q)
		if !ok || (a.Text == "" && !a.Terminal) {
			continue
		}
		conf := a.Confidence
		if conf == "" {
			conf = model.ConfidenceHigh
		}
		stageOutcomesTotal.WithLabelValues(StageStructured, outcomeAnswered).Inc()
		span.SetAttributes(attribute.String("engine", e.Name()))
		return model.DispatchResponse{
			Answer:     a.Text,
			BrainUsed:  model.BrainLocal,
			Provenance: e.Name(),
			Confidence: conf,
			SourceRefs: a.Sources,
		}, true
	}
	stageOutcomesTotal.WithLabelValues(StageStructured, outcomeEmpty).Inc()
	return model.DispatchResponse{}, false
}

// safeAnswer runs one engine, treating a panic as no answer so the chain
// can continue.
func safeAnswer(ctx context.Context, e engine.Engine, q engine.Query) (a engine.Answer, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			panicsTotal.Inc()
			stageOutcomesTotal.WithLabelValues(StageStructured, outcomeFailed).Inc()
			zap.L().Error("dispatch: engine panicked",
				zap.String("engine", e.Name()),
				zap.Any("panic", r),
			)
			a, ok = engine.Answer{}, false
		}
	}()
	return e.Answer(ctx, q)
}

// semantic returns an answer when the best hit clears the threshold for the
// question. Otherwise it returns the near misses as facts for the brain.
func (d *Dispatcher) semantic(ctx context.Context, st *State, q engine.Query) (model.DispatchResponse, bool, []string, []model.SourceRef) {
	_, span := otel.Tracer(tracerName).Start(ctx, "dispatch.semantic")
	defer span.End()

	if !st.Semantic.Available() {
		stageOutcomesTotal.WithLabelValues(StageSemantic, outcomeSkipped).Inc()
		return model.DispatchResponse{}, false, nil, nil
	}

	threshold := d.thresholds.For(q.Intent, q.Context)
	hits := inPeriod(st.Semantic.Search(q.Text, d.thresholds.TopK), q.Context)
	span.SetAttributes(attribute.Float64("threshold", threshold), attribute.Int("hits", len(hits)))
	if len(hits) == 0 {
		stageOutcomesTotal.WithLabelValues(StageSemantic, outcomeEmpty).Inc()
		return model.DispatchResponse{}, false, nil, nil
	}

	top := hits[0]
	span.SetAttributes(attribute.Float64("score", top.Score))
	if top.Score >= threshold {
		text, conf := Render(top)
		stageOutcomesTotal.WithLabelValues(StageSemantic, outcomeAnswered).Inc()
		return model.DispatchResponse{
			Answer:     text,
			BrainUsed:  model.BrainSemanticFallback,
			Provenance: ProvenanceSemantic,
			Confidence: conf,
			SourceRefs: []model.SourceRef{top.Document.Source},
		}, true, nil, nil
	}

	stageOutcomesTotal.WithLabelValues(StageSemantic, outcomeEmpty).Inc()
	floor := threshold * d.thresholds.HybridFloor
	var facts []string
	var refs []model.SourceRef
	for _, h := range hits {
		if h.Score < floor {
			break
		}
		facts = append(facts, Clean(h.Document.Text))
		refs = append(refs, h.Document.Source)
	}
	return model.DispatchResponse{}, false, facts, refs
}

func (d *Dispatcher) external(ctx context.Context, question string, facts []string, refs []model.SourceRef) (model.DispatchResponse, bool) {
	if d.brain == nil {
		stageOutcomesTotal.WithLabelValues(StageExternal, outcomeSkipped).Inc()
		return model.DispatchResponse{}, false
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "dispatch.external",
		trace.WithAttributes(attribute.Int("facts", len(facts))),
	)
	defer span.End()

	res, err := d.brain.Ask(ctx, question, facts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "brain unavailable")
		stageOutcomesTotal.WithLabelValues(StageExternal, outcomeFailed).Inc()
		zap.L().Warn("dispatch: external brain unavailable", zap.Error(err))
		return model.DispatchResponse{
			Answer:     brain.OfflineMessage,
			BrainUsed:  model.BrainExternal,
			Provenance: ProvenanceBrainOffline,
			Confidence: model.ConfidenceLow,
		}, true
	}

	stageOutcomesTotal.WithLabelValues(StageExternal, outcomeAnswered).Inc()
	out := model.DispatchResponse{
		Answer:     res.Text,
		BrainUsed:  model.BrainExternal,
		Provenance: StageExternal + ":" + res.Deployment,
		Confidence: model.ConfidenceMedium,
	}
	if len(facts) > 0 {
		out.BrainUsed = model.BrainHybrid
		out.Provenance += "+" + ProvenanceSemantic
		out.SourceRefs = refs
	}
	return out, true
}
