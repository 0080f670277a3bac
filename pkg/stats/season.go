package stats

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/f1-driverstats-go/pkg/model"
)

type (
	SeasonRow struct {
		RoundNumber      int               `json:"roundNumber"`
		EventDate        model.Date        `json:"eventDate"`
		GP               string            `json:"gp"`
		ShortGP          string            `json:"shortGp"`
		EventFormat      string            `json:"eventFormat"`
		Location         string            `json:"location"`
		QualiStatus      model.QualiStatus `json:"qualiStatus"`
		GridPosition     int               `json:"gridPosition"`
		ResultType       model.ResultType  `json:"resultType"`
		Status           string            `json:"status"`
		Position         int               `json:"position"`
		Points           float64           `json:"points"`
		CumulativePoints float64           `json:"cumulativePoints"`
	}
	YearSummary struct {
		Year          int     `json:"year"`
		TotalPoints   float64 `json:"totalPoints"`
		TotalRaces    int     `json:"totalRaces"`
		TeamName      string  `json:"teamName"`
		LatestTeam    string  `json:"latestTeam"`
		AveragePoints float64 `json:"averagePoints"`
	}
)

// SeasonSummary orders the rows by event date and adds the running points total.
func SeasonSummary(rows []model.RaceResult) []SeasonRow {
	work := slices.Clone(rows)
	slices.SortStableFunc(work, func(a, b model.RaceResult) int {
		return cmp.Or(
			a.EventDate.Compare(b.EventDate.Time),
			cmp.Compare(a.RoundNumber, b.RoundNumber))
	})
	ret := make([]SeasonRow, 0, len(work))
	cumulative := decimal.Zero
	for i := range work {
		r := &work[i]
		cumulative = cumulative.Add(r.Points)
		ret = append(ret, SeasonRow{
			RoundNumber:      r.RoundNumber,
			EventDate:        r.EventDate,
			GP:               r.GP,
			ShortGP:          strings.Replace(r.GP, "Grand Prix", "GP", 1),
			EventFormat:      r.EventFormat,
			Location:         r.Location,
			QualiStatus:      r.QualiStatus,
			GridPosition:     r.GridPosition,
			ResultType:       r.ResultType,
			Status:           r.Status,
			Position:         r.FinishPosition,
			Points:           r.Points.InexactFloat64(),
			CumulativePoints: cumulative.InexactFloat64(),
		})
	}
	return ret
}

// YearlyAggregate groups a driver's rows by season. TeamName is the largest team name of
// the season, LatestTeam the team of the season's last race.
// Rows that were never classified carry no counter and count once each.
func YearlyAggregate(rows []model.RaceResult) []YearSummary {
	groups := lo.GroupBy(rows, func(r model.RaceResult) int { return r.Year })
	years := lo.Keys(groups)
	slices.Sort(years)

	ret := make([]YearSummary, 0, len(years))
	for _, year := range years {
		group := groups[year]
		total := sumPoints(group)
		races := lo.SumBy(group, func(r model.RaceResult) int { return r.Counter })
		if races == 0 {
			races = len(group)
		}
		ret = append(ret, YearSummary{
			Year:          year,
			TotalPoints:   total.InexactFloat64(),
			TotalRaces:    races,
			TeamName:      lo.Max(lo.Map(group, func(r model.RaceResult, _ int) string { return r.TeamName })),
			LatestTeam:    latest(group).TeamName,
			AveragePoints: total.Div(decimal.NewFromInt(int64(races))).InexactFloat64(),
		})
	}
	return ret
}
