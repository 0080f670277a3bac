package stats

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type (
	StandingRow struct {
		Rank   int     `json:"rank"`
		Driver string  `json:"driver"`
		Points float64 `json:"points"`
	}
	Standing struct {
		Year   int     `json:"year"`
		Points float64 `json:"points"`
		Rank   int     `json:"rank,omitempty"` // 0 if the driver has no results in that year
	}
)

type driverTotal struct {
	driver string
	total  decimal.Decimal
}

// RankByPoints ranks all drivers of the season by their summed points.
// Equal totals share a rank, the next rank skips accordingly (1, 1, 3).
func (a *Aggregator) RankByPoints(year int) map[string]int {
	ret := make(map[string]int)
	for _, t := range a.ranked(year) {
		ret[t.Driver] = t.Rank
	}
	return ret
}

// Standings returns the championship table of the season ordered by rank and name.
func (a *Aggregator) Standings(year int) []StandingRow {
	return a.ranked(year)
}

func (a *Aggregator) SeasonStanding(name string, year int) Standing {
	ret := Standing{Year: year}
	for _, row := range a.ranked(year) {
		if row.Driver == name {
			ret.Points = row.Points
			ret.Rank = row.Rank
			break
		}
	}
	return ret
}

func (a *Aggregator) ranked(year int) []StandingRow {
	totals := make(map[string]decimal.Decimal)
	for r := range a.table.All() {
		if r.Year == year {
			totals[r.DriverFullName] = totals[r.DriverFullName].Add(r.Points)
		}
	}
	work := lo.MapToSlice(totals, func(k string, v decimal.Decimal) driverTotal {
		return driverTotal{driver: k, total: v}
	})
	slices.SortFunc(work, func(a, b driverTotal) int {
		return cmp.Or(b.total.Cmp(a.total), cmp.Compare(a.driver, b.driver))
	})
	ret := make([]StandingRow, 0, len(work))
	rank := 0
	for i, w := range work {
		if i == 0 || !w.total.Equal(work[i-1].total) {
			rank = i + 1
		}
		ret = append(ret, StandingRow{Rank: rank, Driver: w.driver, Points: w.total.InexactFloat64()})
	}
	return ret
}
