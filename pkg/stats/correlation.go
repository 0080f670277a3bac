package stats

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/samber/lo"

	"github.com/mpapenbr/f1-driverstats-go/pkg/model"
)

type (
	CorrelationPoint struct {
		GridPosition   int    `json:"gridPosition"`
		FinishPosition int    `json:"finishPosition"`
		TeamName       string `json:"teamName"`
		Year           int    `json:"year"`
		YearLabel      string `json:"yearLabel"`
	}
	// Trend is the least squares line of finish over grid position.
	Trend struct {
		Samples     int     `json:"samples"`
		Slope       float64 `json:"slope"`
		Intercept   float64 `json:"intercept"`
		Correlation float64 `json:"correlation"`
		Line        []Point `json:"line"`
	}
	Point struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
)

func CorrelationInputs(rows []model.RaceResult) []CorrelationPoint {
	return lo.Map(rows, func(r model.RaceResult, _ int) CorrelationPoint {
		return CorrelationPoint{
			GridPosition:   r.GridPosition,
			FinishPosition: r.FinishPosition,
			TeamName:       r.TeamName,
			Year:           r.Year,
			YearLabel:      strconv.Itoa(r.Year),
		}
	})
}

// Trendline fits finish over grid position using classified finishes only.
// If the line is undefined only Samples is set.
func Trendline(points []CorrelationPoint) Trend {
	usable := lo.Filter(points, func(p CorrelationPoint, _ int) bool {
		return p.FinishPosition != model.NotClassified
	})
	ret := Trend{Samples: len(usable), Line: []Point{}}
	if len(usable) < 2 {
		return ret
	}
	x := stats.Float64Data(lo.Map(usable, func(p CorrelationPoint, _ int) float64 {
		return float64(p.GridPosition)
	}))
	y := stats.Float64Data(lo.Map(usable, func(p CorrelationPoint, _ int) float64 {
		return float64(p.FinishPosition)
	}))

	varX, err := stats.SampleVariance(x)
	if err != nil || varX == 0 {
		return ret
	}
	cov, err := stats.Covariance(x, y)
	if err != nil {
		return ret
	}
	meanX, _ := stats.Mean(x)
	meanY, _ := stats.Mean(y)
	ret.Slope = cov / varX
	ret.Intercept = meanY - ret.Slope*meanX

	if varY, _ := stats.SampleVariance(y); varY != 0 {
		if r, err := stats.Correlation(x, y); err == nil {
			ret.Correlation = r
		}
	}

	series := make(stats.Series, 0, len(usable))
	for i := range usable {
		series = append(series, stats.Coordinate{X: x[i], Y: y[i]})
	}
	fitted, err := stats.LinearRegression(series)
	if err != nil {
		return ret
	}
	line := lo.UniqBy(lo.Map(fitted, func(c stats.Coordinate, _ int) Point {
		return Point{X: c.X, Y: c.Y}
	}), func(p Point) float64 { return p.X })
	slices.SortFunc(line, func(a, b Point) int { return cmp.Compare(a.X, b.X) })
	ret.Line = line
	return ret
}
