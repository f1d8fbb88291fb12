package metric

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sells-group/kb-resolver/internal/model"
	"github.com/sells-group/kb-resolver/internal/registry"
)

var (
	yearRe       = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	quarterRe    = regexp.MustCompile(`\bq([1-4])\b`)
	quarterStrRe = regexp.MustCompile(`\b(first|second|third|fourth|1st|2nd|3rd|4th)\s+quarter\b`)
	halfYearRe   = regexp.MustCompile(`\b(h1|half[\s-]year|first half|six months)\b`)
	annualRe     = regexp.MustCompile(`\b(full[\s-]year|annual|annually|year[\s-]end|fy)\b`)
	rangeRe      = regexp.MustCompile(`\bfrom\s+((?:19|20)\d{2})\s+(?:to|until|through|-)\s+((?:19|20)\d{2})\b`)
)

var quarterWords = map[string]int{
	"first": 1, "1st": 1,
	"second": 2, "2nd": 2,
	"third": 3, "3rd": 3,
	"fourth": 4, "4th": 4,
}

var comparisonWords = []string{"compare", "comparison", " vs ", " vs. ", "versus", "between", "difference", "changed from", "change from"}

var trendWords = []string{"trend", "over the years", "history", "historical", "evolution", "progression", "year by year", "year-by-year", "over time"}

// ParseQuery derives the metric and time constraints of one question. The
// result is built fresh on every call.
func ParseQuery(question string, reg *registry.Registry) model.QueryContext {
	lower := strings.ToLower(question)
	padded := " " + lower + " "

	var q model.QueryContext
	for _, e := range reg.Match(question) {
		q.Metrics = append(q.Metrics, e.Canonical)
		if len(q.Metrics) == 1 && e.AnnualPreferred {
			q.PreferAnnual = true
		}
	}

	seen := make(map[int]bool)
	for _, m := range yearRe.FindAllStringSubmatch(lower, -1) {
		y, _ := strconv.Atoi(m[1])
		if q.TargetYear == 0 {
			q.TargetYear = y
		}
		if !seen[y] {
			seen[y] = true
			q.Years = append(q.Years, y)
		}
	}
	sort.Ints(q.Years)

	if m := quarterRe.FindStringSubmatch(lower); m != nil {
		q.Quarter, _ = strconv.Atoi(m[1])
	} else if m := quarterStrRe.FindStringSubmatch(lower); m != nil {
		q.Quarter = quarterWords[m[1]]
	} else if halfYearRe.MatchString(lower) {
		q.Quarter = 2
	}

	if annualRe.MatchString(lower) {
		q.PreferAnnual = true
	}

	for _, w := range comparisonWords {
		if strings.Contains(padded, w) {
			q.IsComparison = true
			break
		}
	}
	for _, w := range trendWords {
		if strings.Contains(lower, w) {
			q.IsTrend = true
			break
		}
	}
	if rangeRe.MatchString(lower) && !q.IsComparison {
		q.IsTrend = true
	}
	return q
}
