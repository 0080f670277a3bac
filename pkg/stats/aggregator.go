// Package stats derives the per driver and per season views shown on the dashboard.
//
// All functions are pure. They never modify the table they work on and unknown drivers or
// seasons yield empty results instead of errors.
package stats

import (
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/f1-driverstats-go/pkg/dataset"
	"github.com/mpapenbr/f1-driverstats-go/pkg/model"
)

type Aggregator struct {
	table *dataset.Table
}

type (
	Card struct {
		Driver     string `json:"driver"`
		Number     string `json:"number"`
		Team       string `json:"team"`
		LatestYear int    `json:"latestYear"`
	}
	Highlights struct {
		Races        int     `json:"races"`
		Points       float64 `json:"points"`
		Podiums      int     `json:"podiums"`
		BestPosition int     `json:"bestPosition"` // 0 if never classified
	}
)

func New(table *dataset.Table) *Aggregator {
	return &Aggregator{table: table}
}

// FilterByDriver returns the rows of the driver in event date order.
func (a *Aggregator) FilterByDriver(name string) []model.RaceResult {
	ret := make([]model.RaceResult, 0)
	for r := range a.table.All() {
		if r.DriverFullName == name {
			ret = append(ret, r)
		}
	}
	return ret
}

func (a *Aggregator) FilterByDriverAndYear(name string, year int) []model.RaceResult {
	return FilterByYear(a.FilterByDriver(name), year)
}

func FilterByYear(rows []model.RaceResult, year int) []model.RaceResult {
	ret := lo.Filter(rows, func(r model.RaceResult, _ int) bool {
		return r.Year == year
	})
	if ret == nil {
		return []model.RaceResult{}
	}
	return ret
}

// DriverOptions lists the selectable drivers. Profiles define the selection, the drivers
// found in the results are used if no profiles were loaded.
func (a *Aggregator) DriverOptions(exclude ...string) []string {
	names := lo.Map(a.table.Profiles(), func(p model.DriverProfile, _ int) string {
		return p.FullName
	})
	if len(names) == 0 {
		names = a.table.RaceDrivers()
	}
	ret := lo.Without(names, exclude...)
	slices.Sort(ret)
	return ret
}

func (a *Aggregator) YearOptions() []int {
	return a.table.Years()
}

// DriverCard returns number and team of the driver's most recent race.
func (a *Aggregator) DriverCard(name string) Card {
	ret := Card{Driver: name}
	rows := a.FilterByDriver(name)
	if len(rows) == 0 {
		return ret
	}
	last := latest(rows)
	ret.Number = last.DriverNumber
	ret.Team = last.TeamName
	ret.LatestYear = last.Year
	return ret
}

func CareerHighlights(rows []model.RaceResult) Highlights {
	ret := Highlights{}
	total := decimal.Zero
	for i := range rows {
		r := &rows[i]
		ret.Races += r.Counter
		total = total.Add(r.Points)
		if r.ResultType == model.ResultPodium {
			ret.Podiums += r.Counter
		}
		if r.Classified() && (ret.BestPosition == 0 || r.FinishPosition < ret.BestPosition) {
			ret.BestPosition = r.FinishPosition
		}
	}
	ret.Points = total.InexactFloat64()
	return ret
}

// latest returns the chronologically last row. Rows on the same date keep the later one.
func latest(rows []model.RaceResult) model.RaceResult {
	ret := rows[0]
	for _, r := range rows[1:] {
		if !r.EventDate.Before(ret.EventDate.Time) {
			ret = r
		}
	}
	return ret
}

func sumPoints(rows []model.RaceResult) decimal.Decimal {
	return lo.Reduce(rows, func(agg decimal.Decimal, r model.RaceResult, _ int) decimal.Decimal {
		return agg.Add(r.Points)
	}, decimal.Zero)
}
