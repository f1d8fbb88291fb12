package intent

import (
	"strings"
	"unicode"
)

// Question is a question pre-split for rule matching. Rules only read it.
type Question struct {
	Raw string
	// Words are the lowercase alphanumeric words of Raw.
	Words []string
	// Tokens are the alphanumeric runs of Raw with their case preserved.
	Tokens []string

	padded string
}

// NewQuestion normalizes raw question text.
func NewQuestion(raw string) Question {
	tokens := splitAlnum(strings.ReplaceAll(raw, "'", ""))
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = strings.ToLower(t)
	}
	return Question{
		Raw:    raw,
		Words:  words,
		Tokens: tokens,
		padded: " " + strings.Join(words, " ") + " ",
	}
}

// Empty reports whether the question has no words.
func (q Question) Empty() bool {
	return len(q.Words) == 0
}

// Has reports whether phrase occurs in the question as whole words.
// Punctuation in phrase is treated as a word break.
func (q Question) Has(phrase string) bool {
	p := normalizePhrase(phrase)
	if p == "" {
		return false
	}
	return strings.Contains(q.padded, " "+p+" ")
}

// HasAny reports whether any of the phrases occurs in the question.
func (q Question) HasAny(phrases ...string) bool {
	for _, p := range phrases {
		if q.Has(p) {
			return true
		}
	}
	return false
}

// HasYear reports whether the question mentions a four-digit year.
func (q Question) HasYear() bool {
	for _, w := range q.Words {
		if len(w) == 4 && (strings.HasPrefix(w, "19") || strings.HasPrefix(w, "20")) && isDigits(w) {
			return true
		}
	}
	return false
}

// Text returns the normalized word sequence.
func (q Question) Text() string {
	return strings.TrimSpace(q.padded)
}

func normalizePhrase(s string) string {
	return strings.Join(splitAlnum(strings.ToLower(strings.ReplaceAll(s, "'", ""))), " ")
}

func splitAlnum(s string) []string {
	return strings.FieldsFunc(s, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// AsksPrice reports whether text uses price wording such as "closing" or
// "share price".
func AsksPrice(text string) bool {
	return NewQuestion(text).HasAny(pricePhrases...)
}
