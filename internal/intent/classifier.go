// Package intent classifies question text into a fixed set of query
// categories using an ordered list of pure rules.
package intent

import (
	"sort"
	"strings"

	"github.com/sells-group/kb-resolver/internal/model"
	"github.com/sells-group/kb-resolver/internal/registry"
)

// Rule pairs an intent with its predicate. Match must be a pure function of
// the question.
type Rule struct {
	Intent model.Intent
	Match  func(Question) bool
}

// Options supplies the knowledge-base vocabulary the rules depend on.
type Options struct {
	// Symbols are the instrument symbols present in market data.
	Symbols []string
	// Organisations are names that refer to the organisations the
	// knowledge base describes, e.g. "skyview capital".
	Organisations []string
}

// Classifier assigns an intent to a question. It holds only immutable
// vocabulary and is safe for concurrent use.
type Classifier struct {
	reg      *registry.Registry
	symbols  map[string]bool
	orgs     []string
	concepts []string
	rules    []Rule
}

// New builds a classifier over the metric registry and knowledge-base
// vocabulary.
func New(reg *registry.Registry, opts Options) *Classifier {
	c := &Classifier{
		reg:     reg,
		symbols: make(map[string]bool, len(opts.Symbols)),
	}
	for _, s := range opts.Symbols {
		if s = strings.TrimSpace(s); s != "" {
			c.symbols[s] = true
		}
	}
	for _, o := range opts.Organisations {
		if p := normalizePhrase(o); p != "" {
			c.orgs = append(c.orgs, p)
		}
	}
	for _, t := range ConceptTerms {
		c.concepts = append(c.concepts, normalizePhrase(t))
	}
	// Longest first so "earnings per share" wins over "eps"-style prefixes.
	sort.SliceStable(c.concepts, func(i, j int) bool { return len(c.concepts[i]) > len(c.concepts[j]) })

	c.rules = []Rule{
		{Intent: model.IntentConcept, Match: c.isConcept},
		{Intent: model.IntentNews, Match: isNews},
		{Intent: model.IntentMarketPrice, Match: c.isMarketPrice},
		{Intent: model.IntentFinancialMetric, Match: c.isFinancialMetric},
		{Intent: model.IntentPersonnel, Match: isPersonnel},
		{Intent: model.IntentCompanyProfile, Match: c.isCompanyProfile},
		{Intent: model.IntentSummary, Match: isSummary},
	}
	return c
}

// Rules returns the rules in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify returns the intent of the first matching rule, or IntentUnknown.
func (c *Classifier) Classify(question string) model.Intent {
	q := NewQuestion(question)
	if q.Empty() {
		return model.IntentUnknown
	}
	for _, r := range c.rules {
		if r.Match(q) {
			return r.Intent
		}
	}
	return model.IntentUnknown
}

func (c *Classifier) isConcept(q Question) bool {
	if q.HasYear() || q.HasAny(anchorPhrases...) || c.hasSymbol(q) || c.hasOrg(q) {
		return false
	}

	for _, lead := range []string{"define", "explain", "definition of", "meaning of", "what is meant by", "describe the concept"} {
		if q.Has(lead) && c.hasConcept(q) {
			return true
		}
	}

	text := q.Text()
	for _, lead := range []string{"what is", "what are", "whats", "what does"} {
		rest, ok := after(text, lead)
		if !ok {
			continue
		}
		rest = stripArticles(rest)
		for _, term := range c.concepts {
			if rest != term && !strings.HasPrefix(rest, term+" ") {
				continue
			}
			if genericTail(strings.TrimPrefix(rest, term)) {
				return true
			}
		}
	}
	return false
}

func isNews(q Question) bool {
	return q.HasAny(newsPhrases...)
}

func (c *Classifier) isMarketPrice(q Question) bool {
	if q.HasAny(nonCorporateRoles...) {
		return false
	}
	return q.HasAny(pricePhrases...) && c.hasSymbol(q)
}

func (c *Classifier) isFinancialMetric(q Question) bool {
	if q.HasAny("summary", "summarize", "summarise", "overview", "highlights") {
		return false
	}
	if q.HasAny(nonCorporateRoles...) {
		return false
	}
	return c.reg.Mentions(q.Raw)
}

func isPersonnel(q Question) bool {
	return q.HasAny(rolePhrases...)
}

func (c *Classifier) isCompanyProfile(q Question) bool {
	if !c.hasOrg(q) && !q.HasAny(organisationReferences...) {
		return false
	}
	return q.HasAny(profileTopics...)
}

func isSummary(q Question) bool {
	return q.HasAny(summaryPhrases...)
}

// hasSymbol reports whether a token equals a known symbol exactly.
func (c *Classifier) hasSymbol(q Question) bool {
	for _, t := range q.Tokens {
		if c.symbols[t] {
			return true
		}
	}
	return false
}

func (c *Classifier) hasOrg(q Question) bool {
	for _, o := range c.orgs {
		if q.Has(o) {
			return true
		}
	}
	return false
}

func (c *Classifier) hasConcept(q Question) bool {
	for _, t := range c.concepts {
		if q.Has(t) {
			return true
		}
	}
	return false
}

// after returns the text following the first whole-word occurrence of lead.
func after(text, lead string) (string, bool) {
	padded := " " + text + " "
	i := strings.Index(padded, " "+lead+" ")
	if i < 0 {
		return "", false
	}
	return strings.TrimSpace(padded[i+len(lead)+2:]), true
}

func stripArticles(s string) string {
	for _, a := range []string{"a ", "an ", "the "} {
		if strings.HasPrefix(s, a) {
			return s[len(a):]
		}
	}
	return s
}

func genericTail(tail string) bool {
	for _, w := range strings.Fields(tail) {
		if !conceptTail[w] {
			return false
		}
	}
	return true
}
