package schools

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Query holds the listing parameters accepted by GET /schools.
type Query struct {
	State        string
	TrainingType string
	Programs     []string
	// MaxBudget is nil when the supplied maxBudget does not start with an
	// integer; such a query matches no school.
	MaxBudget      *int64
	MaxBudgetGiven bool
	SortBy         string
}

// ParseQuery reads listing parameters from API Gateway query parameters.
func ParseQuery(params map[string]string) Query {
	q := Query{
		State:        params["state"],
		TrainingType: params["trainingType"],
		SortBy:       params["sortBy"],
	}
	if v := params["programs"]; v != "" {
		q.Programs = strings.Split(v, ",")
	}
	if v := params["maxBudget"]; v != "" {
		q.MaxBudgetGiven = true
		if n, ok := parseIntPrefix(v); ok {
			q.MaxBudget = &n
		}
	}
	return q
}

// Filter applies the training type, program and budget filters. The input
// slice is not modified.
func Filter(in []School, q Query) []School {
	out := make([]School, 0, len(in))
	for _, s := range in {
		if q.TrainingType != "" && q.TrainingType != "Both" && s.TrainingType != q.TrainingType {
			continue
		}
		if len(q.Programs) > 0 && !slices.ContainsFunc(q.Programs, s.OffersProgram) {
			continue
		}
		if q.MaxBudgetGiven && !withinBudget(s, q.MaxBudget) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func withinBudget(s School, maxBudget *int64) bool {
	if maxBudget == nil || s.CostBand == nil || s.CostBand.Min == nil {
		return false
	}
	return *s.CostBand.Min <= float64(*maxBudget)
}

// Sort returns a sorted copy of in. Unknown keys keep the input order; all
// sorts are stable.
func Sort(in []School, sortBy string) []School {
	out := slices.Clone(in)
	switch sortBy {
	case "name-asc", "name-desc":
		c := collate.New(language.English)
		desc := sortBy == "name-desc"
		slices.SortStableFunc(out, func(a, b School) int {
			if desc {
				return c.CompareString(b.Name, a.Name)
			}
			return c.CompareString(a.Name, b.Name)
		})
	case "price-asc":
		slices.SortStableFunc(out, func(a, b School) int { return cmp.Compare(a.MinCost(), b.MinCost()) })
	case "price-desc":
		slices.SortStableFunc(out, func(a, b School) int { return cmp.Compare(b.MinCost(), a.MinCost()) })
	case "rating-asc":
		slices.SortStableFunc(out, func(a, b School) int { return cmp.Compare(a.AvgRating, b.AvgRating) })
	case "rating-desc":
		slices.SortStableFunc(out, func(a, b School) int { return cmp.Compare(b.AvgRating, a.AvgRating) })
	}
	return out
}

// parseIntPrefix reads an optionally signed run of leading decimal digits
// after leading whitespace, ignoring anything that follows. Runs too long for
// an int64 saturate at its bounds.
func parseIntPrefix(s string) (int64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	var n int64
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		d := int64(r - '0')
		if n > (math.MaxInt64-d)/10 {
			n = math.MaxInt64
		} else {
			n = n*10 + d
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
