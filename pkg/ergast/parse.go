package ergast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/f1-driverstats-go/pkg/model"
)

//nolint:tagliatelle // json is that way
type (
	apiRace struct {
		Season   string      `json:"season"`
		Round    string      `json:"round"`
		RaceName string      `json:"raceName"`
		Date     string      `json:"date"`
		Circuit  apiCircuit  `json:"Circuit"`
		Results  []apiResult `json:"Results"`
		Sprint   any         `json:"Sprint"`
	}
	apiCircuit struct {
		Location struct {
			Locality string `json:"locality"`
			Country  string `json:"country"`
		} `json:"Location"`
	}
	apiResult struct {
		Number       string `json:"number"`
		Position     string `json:"position"`
		PositionText string `json:"positionText"`
		Points       string `json:"points"`
		Grid         string `json:"grid"`
		Status       string `json:"status"`
		Driver       struct {
			GivenName  string `json:"givenName"`
			FamilyName string `json:"familyName"`
		} `json:"Driver"`
		Constructor struct {
			Name string `json:"name"`
		} `json:"Constructor"`
	}
	page struct {
		total   int
		results int
		rows    []model.RaceResult
	}
)

var (
	totalPath = jp.MustParseString("$.MRData.total")
	racesPath = jp.MustParseString("$.MRData.RaceTable.Races[*]")
)

func parsePage(data []byte) (*page, error) {
	obj, err := oj.Parse(data)
	if err != nil {
		return nil, err
	}
	total, err := intValue(totalPath.First(obj))
	if err != nil {
		return nil, fmt.Errorf("MRData.total: %w", err)
	}
	ret := &page{total: total, rows: make([]model.RaceResult, 0)}
	for _, item := range racesPath.Get(obj) {
		var race apiRace
		if err := oj.Unmarshal([]byte(oj.JSON(item)), &race); err != nil {
			return nil, err
		}
		ret.results += len(race.Results)
		if !strings.Contains(race.RaceName, "Grand Prix") {
			continue
		}
		rows, err := race.toRows()
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", race.Season, race.RaceName, err)
		}
		ret.rows = append(ret.rows, rows...)
	}
	return ret, nil
}

func (r *apiRace) toRows() ([]model.RaceResult, error) {
	year, err := strconv.Atoi(r.Season)
	if err != nil {
		return nil, err
	}
	round, err := strconv.Atoi(r.Round)
	if err != nil {
		return nil, err
	}
	date, err := model.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}
	format := "conventional"
	if r.Sprint != nil {
		format = "sprint"
	}
	ret := make([]model.RaceResult, 0, len(r.Results))
	for i := range r.Results {
		res := &r.Results[i]
		grid, err := strconv.Atoi(res.Grid)
		if err != nil {
			return nil, fmt.Errorf("grid %q: %w", res.Grid, err)
		}
		points, err := decimal.NewFromString(res.Points)
		if err != nil {
			return nil, fmt.Errorf("points %q: %w", res.Points, err)
		}
		row := model.RaceResult{
			Year:           year,
			GP:             r.RaceName,
			RoundNumber:    round,
			EventDate:      date,
			EventFormat:    format,
			Location:       r.Circuit.Location.Locality,
			Country:        r.Circuit.Location.Country,
			DriverFullName: strings.TrimSpace(res.Driver.GivenName + " " + res.Driver.FamilyName),
			DriverNumber:   res.Number,
			TeamName:       res.Constructor.Name,
			GridPosition:   grid,
			FinishPosition: finishPosition(res.PositionText),
			Points:         points,
			Status:         res.Status,
		}
		row.Classify()
		ret = append(ret, row)
	}
	return ret, nil
}

// finishPosition maps the classification text to a position. Retired, disqualified and
// excluded drivers (R, D, E, W, F, N) are not classified.
func finishPosition(text string) int {
	if p, err := strconv.Atoi(text); err == nil && p > 0 {
		return p
	}
	return model.NotClassified
}

func intValue(v any) (int, error) {
	switch x := v.(type) {
	case string:
		return strconv.Atoi(x)
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	case nil:
		return 0, errors.New("missing value")
	}
	return 0, fmt.Errorf("unexpected type %T", v)
}
