package dispatch

import (
	"strings"
	"time"

	"github.com/sells-group/kb-resolver/internal/engine"
	"github.com/sells-group/kb-resolver/internal/intent"
	"github.com/sells-group/kb-resolver/internal/kb"
	"github.com/sells-group/kb-resolver/internal/metric"
	"github.com/sells-group/kb-resolver/internal/registry"
	"github.com/sells-group/kb-resolver/internal/semantic"
)

// State is one immutable build of the knowledge base and everything derived
// from it. A Dispatcher swaps whole States; nothing in a State is mutated
// after Build returns.
type State struct {
	Snapshot   *kb.Snapshot
	Registry   *registry.Registry
	Index      *metric.Index
	Classifier *intent.Classifier
	Engines    []engine.Engine
	Semantic   *semantic.Index
	BuiltAt    time.Time
}

// Build derives the metric index, classifier, engines and semantic index
// from a snapshot. A nil registry uses registry.Default.
func Build(snap *kb.Snapshot, reg *registry.Registry, opts engine.Options) *State {
	if snap == nil {
		snap = &kb.Snapshot{}
	}
	if reg == nil {
		reg = registry.Default()
	}
	def := engine.DefaultOptions()
	if opts.Organisation == "" {
		opts.Organisation = def.Organisation
	}
	if opts.Firm == "" {
		opts.Firm = def.Firm
	}

	idx := metric.BuildIndex(snap.Reports)
	env := engine.Env{Snapshot: snap, Index: idx, Registry: reg}
	return &State{
		Snapshot: snap,
		Registry: reg,
		Index:    idx,
		Classifier: intent.New(reg, intent.Options{
			Symbols:       snap.Symbols(),
			Organisations: Organisations(opts.Organisation, opts.Firm),
		}),
		Engines:  engine.All(env, opts),
		Semantic: semantic.NewIndex(semantic.BuildDocuments(snap, reg, opts.Organisation)),
		BuiltAt:  time.Now().UTC(),
	}
}

var legalSuffixes = []string{" limited", " ltd", " plc", " group"}

// Organisations expands organisation names into the phrases questions use
// for them: the full name, the name without a legal suffix, and its first
// word. "Skyview Capital Limited" yields "Skyview Capital Limited",
// "Skyview Capital" and "Skyview".
func Organisations(names ...string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if len(s) < 3 || seen[strings.ToLower(s)] {
			return
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	for _, n := range names {
		add(n)
		short := n
		for _, suf := range legalSuffixes {
			if strings.HasSuffix(strings.ToLower(short), suf) {
				short = short[:len(short)-len(suf)]
			}
		}
		add(short)
		if f := strings.Fields(short); len(f) > 1 && len(f[0]) >= 4 {
			add(f[0])
		}
	}
	return out
}
