// Package semantic is the retrieval fallback: an immutable BM25 index over
// short fact sentences derived from the knowledge base.
package semantic

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/sells-group/kb-resolver/internal/model"
)

// BM25 tuning constants.
const (
	k1 = 1.5
	b  = 0.75
)

// Document is one retrievable fact sentence.
type Document struct {
	Text   string          `json:"text"`
	Kind   string          `json:"kind"`
	Source model.SourceRef `json:"source_ref"`
}

// Hit is a scored search result. Score lies in [0,1].
type Hit struct {
	Score    float64
	Document Document
}

type doc struct {
	tf  map[string]int
	len int
}

// Index ranks documents against a query with Okapi BM25. It is immutable
// after NewIndex and safe for concurrent use.
type Index struct {
	docs      []Document
	terms     []doc
	idf       map[string]float64
	avgLen    float64
	unseenIDF float64
}

// NewIndex tokenizes and indexes docs. IDF uses Lucene-style smoothing:
// log((N+1)/(df+1)) + 1.
func NewIndex(docs []Document) *Index {
	idx := &Index{idf: make(map[string]float64)}
	if len(docs) == 0 {
		return idx
	}

	df := make(map[string]int)
	total := 0
	for _, d := range docs {
		toks := Tokenize(d.Text)
		if len(toks) == 0 {
			continue
		}
		tf := make(map[string]int, len(toks))
		for _, t := range toks {
			tf[t]++
		}
		for t := range tf {
			df[t]++
		}
		idx.docs = append(idx.docs, d)
		idx.terms = append(idx.terms, doc{tf: tf, len: len(toks)})
		total += len(toks)
	}
	if len(idx.docs) == 0 {
		return idx
	}

	n := len(idx.docs)
	idx.avgLen = float64(total) / float64(n)
	for t, f := range df {
		idx.idf[t] = math.Log(float64(n+1)/float64(f+1)) + 1
	}
	idx.unseenIDF = math.Log(float64(n+1)) + 1
	return idx
}

// Available reports whether the index holds any documents.
func (idx *Index) Available() bool {
	return idx != nil && len(idx.docs) > 0
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.docs)
}

// Search returns up to k hits ordered by descending score, ties by document
// order. Scores are normalised against a single-occurrence match of every
// query term in an average-length document and capped at 1, so terms the
// corpus has never seen lower the score.
func (idx *Index) Search(query string, k int) []Hit {
	if !idx.Available() || k <= 0 {
		return nil
	}
	qterms := uniq(Tokenize(query))
	if len(qterms) == 0 {
		return nil
	}

	var ref float64
	for _, t := range qterms {
		if w, ok := idx.idf[t]; ok {
			ref += w
		} else {
			ref += idx.unseenIDF
		}
	}

	type scored struct {
		i     int
		score float64
	}
	var results []scored
	for i, d := range idx.terms {
		var s float64
		norm := k1 * (1 - b + b*float64(d.len)/idx.avgLen)
		for _, t := range qterms {
			f := d.tf[t]
			if f == 0 {
				continue
			}
			s += idx.idf[t] * float64(f) * (k1 + 1) / (float64(f) + norm)
		}
		if s > 0 {
			results = append(results, scored{i: i, score: math.Min(s/ref, 1)})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > k {
		results = results[:k]
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{Score: r.score, Document: idx.docs[r.i]})
	}
	return hits
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true, "by": true,
	"can": true, "did": true, "do": true, "does": true, "for": true, "from": true, "how": true,
	"i": true, "in": true, "is": true, "it": true, "me": true, "of": true, "on": true, "or": true,
	"please": true, "tell": true, "that": true, "the": true, "this": true, "to": true, "was": true,
	"were": true, "what": true, "whats": true, "when": true, "which": true, "who": true, "with": true,
	"you": true, "your": true, "about": true, "give": true, "show": true, "s": true,
}

// Tokenize lowercases text, splits on anything that is not a letter or digit
// and drops stopwords. Apostrophes are removed before splitting.
func Tokenize(text string) []string {
	text = strings.NewReplacer("'", "", "’", "").Replace(strings.ToLower(text))
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

func uniq(toks []string) []string {
	seen := make(map[string]bool, len(toks))
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
