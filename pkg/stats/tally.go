package stats

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/mpapenbr/f1-driverstats-go/pkg/model"
)

// Category selects the row attribute used for tallies.
type Category int

const (
	FieldResultType Category = iota
	FieldQualiStatus
	FieldStatus
)

var categoryNames = []string{"resultType", "qualiStatus", "status"}

type CircuitCount struct {
	Country  string `json:"country"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

func (c Category) String() string {
	if int(c) < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

func ParseCategory(s string) (Category, error) {
	idx := slices.Index(categoryNames, s)
	if idx < 0 {
		return 0, fmt.Errorf("unknown category %q", s)
	}
	return Category(idx), nil
}

func (c Category) value(r *model.RaceResult) string {
	switch c {
	case FieldResultType:
		return r.ResultType.String()
	case FieldQualiStatus:
		return r.QualiStatus.String()
	default:
		return r.Status
	}
}

// CategoryTally sums the counter per distinct category value.
func CategoryTally(rows []model.RaceResult, field Category) map[string]int {
	ret := make(map[string]int)
	for i := range rows {
		ret[field.value(&rows[i])] += rows[i].Counter
	}
	return ret
}

// DNFTally tallies the status of all rows that did not finish.
func DNFTally(rows []model.RaceResult) map[string]int {
	return CategoryTally(
		lo.Filter(rows, func(r model.RaceResult, _ int) bool {
			return !model.IsFinished(r.Status)
		}),
		FieldStatus)
}

// CircuitBreakdown counts the category values per country, ordered by country and value.
func CircuitBreakdown(rows []model.RaceResult, field Category) []CircuitCount {
	type key struct{ country, category string }
	counts := make(map[key]int)
	for i := range rows {
		counts[key{rows[i].Country, field.value(&rows[i])}] += rows[i].Counter
	}
	ret := make([]CircuitCount, 0, len(counts))
	for k, v := range counts {
		ret = append(ret, CircuitCount{Country: k.country, Category: k.category, Count: v})
	}
	slices.SortFunc(ret, func(a, b CircuitCount) int {
		return cmp.Or(cmp.Compare(a.Country, b.Country), cmp.Compare(a.Category, b.Category))
	})
	return ret
}
