package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type (
	ResultType  int
	QualiStatus int
)

const (
	ResultPodium ResultType = iota
	ResultPoints
	ResultNoPoints
)

const (
	QualiPole QualiStatus = iota
	QualiQ1
	QualiQ2
	QualiQ3
)

// NotClassified is the finish position of a car that did not finish the race.
const NotClassified = 0

const DateLayout = "2006-01-02"

var (
	resultTypeNames  = []string{"Podium", "Points", "NoPoints"}
	qualiStatusNames = []string{"Pole", "Q1", "Q2", "Q3"}
	finishedStatus   = map[string]bool{"Finished": true, "+1 Lap": true, "+2 Laps": true}
)

// RaceResult is the result of one driver in one race.
type RaceResult struct {
	Year           int             `json:"year"`
	GP             string          `json:"gp"`
	RoundNumber    int             `json:"roundNumber"`
	EventDate      Date            `json:"eventDate"`
	EventFormat    string          `json:"eventFormat,omitempty"`
	Location       string          `json:"location"`
	Country        string          `json:"country"`
	DriverFullName string          `json:"driverFullName"`
	DriverNumber   string          `json:"driverNumber"`
	TeamName       string          `json:"teamName"`
	GridPosition   int             `json:"gridPosition"`
	FinishPosition int             `json:"finishPosition"`
	Points         decimal.Decimal `json:"points"`
	Status         string          `json:"status"`
	Counter        int             `json:"counter"`
	ResultType     ResultType      `json:"resultType"`
	QualiStatus    QualiStatus     `json:"qualiStatus"`
}

// DriverProfile is static reference data about a driver.
type DriverProfile struct {
	FullName            string `json:"fullName"`
	NationalityFlagCode string `json:"nationalityFlagCode"`
	SocialMediaHandle   string `json:"socialMediaHandle"`
}

// Classify computes the derived fields from the row's own values.
func (r *RaceResult) Classify() {
	r.Counter = 1
	r.ResultType = ClassifyResult(r.FinishPosition, r.Points)
	r.QualiStatus = ClassifyQuali(r.GridPosition)
}

func (r *RaceResult) Classified() bool {
	return r.FinishPosition > NotClassified
}

func ClassifyResult(finishPosition int, points decimal.Decimal) ResultType {
	switch {
	case finishPosition > NotClassified && finishPosition <= 3:
		return ResultPodium
	case !points.IsZero():
		return ResultPoints
	default:
		return ResultNoPoints
	}
}

// ClassifyQuali maps a grid slot to its qualifying band. Checks are done in this order:
// pole, >= 15, >= 10, everything else.
func ClassifyQuali(grid int) QualiStatus {
	switch {
	case grid == 1:
		return QualiPole
	case grid >= 15:
		return QualiQ2
	case grid >= 10:
		return QualiQ1
	default:
		return QualiQ3
	}
}

// IsFinished reports whether status counts as a finish rather than a DNF cause.
func IsFinished(status string) bool {
	return finishedStatus[status]
}

func (t ResultType) String() string {
	if int(t) < 0 || int(t) >= len(resultTypeNames) {
		return fmt.Sprintf("ResultType(%d)", int(t))
	}
	return resultTypeNames[t]
}

func ParseResultType(s string) (ResultType, error) {
	for i, name := range resultTypeNames {
		if name == s {
			return ResultType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown result type %q", s)
}

func (t ResultType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ResultType) UnmarshalText(text []byte) error {
	v, err := ParseResultType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (q QualiStatus) String() string {
	if int(q) < 0 || int(q) >= len(qualiStatusNames) {
		return fmt.Sprintf("QualiStatus(%d)", int(q))
	}
	return qualiStatusNames[q]
}

func ParseQualiStatus(s string) (QualiStatus, error) {
	for i, name := range qualiStatusNames {
		if name == s {
			return QualiStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown quali status %q", s)
}

func (q QualiStatus) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

func (q *QualiStatus) UnmarshalText(text []byte) error {
	v, err := ParseQualiStatus(string(text))
	if err != nil {
		return err
	}
	*q = v
	return nil
}

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts plain dates and the datetime notation pandas writes.
func ParseDate(s string) (Date, error) {
	for _, layout := range []string{DateLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), t.Month(), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	v, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalJSON shadows the method promoted from time.Time.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date %s", data)
	}
	return d.UnmarshalText(data[1 : len(data)-1])
}
