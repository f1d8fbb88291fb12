// Package registry holds the canonical metric vocabulary: names, synonyms,
// scaling and value semantics for every financial-statement metric the
// resolver understands.
package registry

import (
	"sort"
	"strings"
	"unicode"

	"github.com/sells-group/kb-resolver/internal/format"
)

// Scaling is the unit the extraction pipeline recorded a metric in.
type Scaling string

const (
	ScalingRaw       Scaling = "raw"
	ScalingThousands Scaling = "thousands"
)

// Multiplier returns the factor that converts a recorded value to naira.
func (s Scaling) Multiplier() float64 {
	if s == ScalingThousands {
		return 1000
	}
	return 1
}

// ValueType describes how a metric value should be read and rendered.
type ValueType string

const (
	ValueCurrency ValueType = "currency"
	ValueRatio    ValueType = "ratio"
	ValuePerShare ValueType = "per_share"
)

// Entry is one canonical metric and its aliases.
type Entry struct {
	Canonical       string    `yaml:"canonical" json:"canonical"`
	Synonyms        []string  `yaml:"synonyms" json:"synonyms"`
	Scaling         Scaling   `yaml:"scaling" json:"scaling"`
	ValueType       ValueType `yaml:"value_type" json:"value_type"`
	AnnualPreferred bool      `yaml:"annual_preferred" json:"annual_preferred"`
}

// Key returns the normalized index key of the canonical name.
func (e Entry) Key() string {
	return NormalizeKey(e.Canonical)
}

// Display renders a recorded value with the entry's scaling and value type.
func (e Entry) Display(v float64) string {
	switch e.ValueType {
	case ValuePerShare:
		return format.PerShare(v)
	case ValueRatio:
		return format.Ratio(v)
	default:
		return format.Currency(v * e.Scaling.Multiplier())
	}
}

// Exact renders a recorded value without unit abbreviation, used for deltas.
func (e Entry) Exact(v float64) string {
	switch e.ValueType {
	case ValuePerShare:
		return format.PerShare(v)
	case ValueRatio:
		return format.Ratio(v)
	default:
		return format.Grouped(v * e.Scaling.Multiplier())
	}
}

// Registry is an immutable lookup table over metric entries. It is safe for
// concurrent use.
type Registry struct {
	entries []Entry
	byKey   map[string]int
	aliases []alias
}

type alias struct {
	phrase string // space-separated lowercase words
	entry  int
}

// New builds a registry. Entries sharing a canonical key are merged: the later
// entry's attributes win and synonyms are unioned.
func New(entries []Entry) *Registry {
	r := &Registry{byKey: make(map[string]int, len(entries))}
	for _, e := range entries {
		key := e.Key()
		if key == "" {
			continue
		}
		if e.Scaling == "" {
			e.Scaling = ScalingRaw
		}
		if e.ValueType == "" {
			e.ValueType = ValueCurrency
		}
		if i, ok := r.byKey[key]; ok {
			e.Synonyms = unionStrings(r.entries[i].Synonyms, e.Synonyms)
			r.entries[i] = e
			continue
		}
		r.byKey[key] = len(r.entries)
		r.entries = append(r.entries, e)
	}

	seen := make(map[string]bool)
	for i, e := range r.entries {
		for _, s := range append([]string{e.Canonical}, e.Synonyms...) {
			phrase := phraseOf(s)
			if phrase == "" || seen[phrase] {
				continue
			}
			seen[phrase] = true
			r.aliases = append(r.aliases, alias{phrase: phrase, entry: i})
		}
	}
	return r
}

// Entries returns a copy of all entries in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of canonical metrics.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Lookup finds an entry by canonical name, index key or synonym.
func (r *Registry) Lookup(name string) (Entry, bool) {
	if i, ok := r.byKey[NormalizeKey(name)]; ok {
		return r.entries[i], true
	}
	phrase := phraseOf(name)
	for _, a := range r.aliases {
		if a.phrase == phrase {
			return r.entries[a.entry], true
		}
	}
	return Entry{}, false
}

// Match returns the entries whose canonical name or synonym occurs in the
// question as whole words, most specific first. Specificity is the length of
// the longest matching alias; ties go to the earliest occurrence.
func (r *Registry) Match(question string) []Entry {
	text := " " + phraseOf(question) + " "

	type hit struct {
		entry  int
		length int
		pos    int
	}
	best := make(map[int]hit)
	for _, a := range r.aliases {
		pos := strings.Index(text, " "+a.phrase+" ")
		if pos < 0 {
			continue
		}
		h := hit{entry: a.entry, length: len(a.phrase), pos: pos}
		if cur, ok := best[a.entry]; !ok || h.length > cur.length || (h.length == cur.length && h.pos < cur.pos) {
			best[a.entry] = h
		}
	}

	hits := make([]hit, 0, len(best))
	for _, h := range best {
		hits = append(hits, h)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].length != hits[j].length {
			return hits[i].length > hits[j].length
		}
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].entry < hits[j].entry
	})

	out := make([]Entry, 0, len(hits))
	for _, h := range hits {
		out = append(out, r.entries[h.entry])
	}
	return out
}

// Mentions reports whether any registered metric occurs in the question.
func (r *Registry) Mentions(question string) bool {
	return len(r.Match(question)) > 0
}

// NormalizeKey lowercases s and strips every non-alphanumeric character.
func NormalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range strings.ToLower(s) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// phraseOf lowercases s, drops apostrophes and collapses every other run of
// non-alphanumerics into a single space.
func phraseOf(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "'", "")
	fields := strings.FieldsFunc(s, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
	return strings.Join(fields, " ")
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
