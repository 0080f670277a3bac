package stats

import (
	"github.com/mpapenbr/f1-driverstats-go/pkg/model"
)

// Dashboard contains everything needed to render the page of one driver and season.
type Dashboard struct {
	Driver         string               `json:"driver"`
	Year           int                  `json:"year"`
	Profile        *model.DriverProfile `json:"profile,omitempty"`
	Card           Card                 `json:"card"`
	Standing       Standing             `json:"standing"`
	Highlights     Highlights           `json:"highlights"`
	Season         []SeasonRow          `json:"season"`
	ResultTally    map[string]int       `json:"resultTally"`
	QualiTally     map[string]int       `json:"qualiTally"`
	DNFTally       map[string]int       `json:"dnfTally"`
	Yearly         []YearSummary        `json:"yearly"`
	CircuitQuali   []CircuitCount       `json:"circuitQuali"`
	CircuitResults []CircuitCount       `json:"circuitResults"`
	Correlation    []CorrelationPoint   `json:"correlation"`
	Trend          Trend                `json:"trend"`
}

// Dashboard combines the season view of year with the career view of the driver.
func (a *Aggregator) Dashboard(name string, year int) Dashboard {
	career := a.FilterByDriver(name)
	season := FilterByYear(career, year)
	correlation := CorrelationInputs(career)

	ret := Dashboard{
		Driver:         name,
		Year:           year,
		Card:           a.DriverCard(name),
		Standing:       a.SeasonStanding(name, year),
		Highlights:     CareerHighlights(career),
		Season:         SeasonSummary(season),
		ResultTally:    CategoryTally(season, FieldResultType),
		QualiTally:     CategoryTally(season, FieldQualiStatus),
		DNFTally:       DNFTally(season),
		Yearly:         YearlyAggregate(career),
		CircuitQuali:   CircuitBreakdown(career, FieldQualiStatus),
		CircuitResults: CircuitBreakdown(career, FieldResultType),
		Correlation:    correlation,
		Trend:          Trendline(correlation),
	}
	if p, ok := a.table.Profile(name); ok {
		ret.Profile = &p
	}
	return ret
}
