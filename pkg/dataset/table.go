package dataset

import (
	"cmp"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"

	"github.com/mpapenbr/f1-driverstats-go/pkg/model"
)

// Table is an immutable snapshot of race results and driver profiles.
// It is safe to share between goroutines.
type Table struct {
	rows        []model.RaceResult
	profiles    map[string]model.DriverProfile
	raceDrivers []string
	years       []int
}

// NewTable validates the rows, recomputes the derived fields and orders the rows by
// event date. The input slices are copied.
func NewTable(rows []model.RaceResult, profiles []model.DriverProfile) (*Table, error) {
	t := &Table{
		rows:     slices.Clone(rows),
		profiles: make(map[string]model.DriverProfile, len(profiles)),
	}
	drivers := make(map[string]struct{})
	years := make(map[int]struct{})
	for i := range t.rows {
		r := &t.rows[i]
		if err := validateRow(r, i+1); err != nil {
			return nil, err
		}
		r.Classify()
		drivers[r.DriverFullName] = struct{}{}
		years[r.Year] = struct{}{}
	}
	for _, p := range profiles {
		if p.FullName == "" {
			return nil, &StructuralError{Source: "drivers", Column: ColFullName,
				Reason: "driver profile without name"}
		}
		if _, ok := t.profiles[p.FullName]; ok {
			return nil, &StructuralError{Source: "drivers", Column: ColFullName,
				Reason: fmt.Sprintf("duplicate driver %q", p.FullName)}
		}
		t.profiles[p.FullName] = p
	}
	slices.SortStableFunc(t.rows, func(a, b model.RaceResult) int {
		return cmp.Or(
			a.EventDate.Compare(b.EventDate.Time),
			cmp.Compare(a.Year, b.Year),
			cmp.Compare(a.RoundNumber, b.RoundNumber),
		)
	})
	t.raceDrivers = make([]string, 0, len(drivers))
	for name := range drivers {
		t.raceDrivers = append(t.raceDrivers, name)
	}
	slices.Sort(t.raceDrivers)
	t.years = make([]int, 0, len(years))
	for y := range years {
		t.years = append(t.years, y)
	}
	slices.Sort(t.years)
	return t, nil
}

func validateRow(r *model.RaceResult, idx int) error {
	fail := func(col, reason string) error {
		return &StructuralError{Source: "races", Line: idx, Column: col, Reason: reason}
	}
	switch {
	case r.Year <= 0:
		return fail(ColYear, "missing season")
	case r.GP == "":
		return fail(ColGP, "missing event name")
	case r.EventDate.IsZero():
		return fail(ColEventDate, "missing event date")
	case r.DriverFullName == "":
		return fail(ColFullName, "missing driver name")
	case r.TeamName == "":
		return fail(ColTeamName, "missing team name")
	case r.Status == "":
		return fail(ColStatus, "missing status")
	case r.Points.IsNegative():
		return fail(ColPoints, "negative points")
	case r.GridPosition < 0:
		return fail(ColGridPosition, "negative grid position")
	case r.FinishPosition < 0:
		return fail(ColPosition, "negative position")
	}
	return nil
}

// LoadFiles reads the race results and driver reference csv files.
// driversPath may be empty.
func LoadFiles(racesPath, driversPath string) (*Table, error) {
	rows, err := readFile(racesPath, ReadRaceResults)
	if err != nil {
		return nil, err
	}
	var profiles []model.DriverProfile
	if driversPath != "" {
		if profiles, err = readFile(driversPath, ReadDriverProfiles); err != nil {
			return nil, err
		}
	}
	return NewTable(rows, profiles)
}

func readFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ret, err := parse(f)
	if err != nil {
		return nil, withSource(err, path)
	}
	return ret, nil
}

func (t *Table) Len() int {
	return len(t.rows)
}

// All iterates the rows in event date order.
func (t *Table) All() iter.Seq[model.RaceResult] {
	return func(yield func(model.RaceResult) bool) {
		for _, r := range t.rows {
			if !yield(r) {
				return
			}
		}
	}
}

// Rows returns a copy of all rows in event date order.
func (t *Table) Rows() []model.RaceResult {
	return slices.Clone(t.rows)
}

func (t *Table) Profile(name string) (model.DriverProfile, bool) {
	p, ok := t.profiles[name]
	return p, ok
}

// Profiles returns all driver profiles ordered by name.
func (t *Table) Profiles() []model.DriverProfile {
	ret := make([]model.DriverProfile, 0, len(t.profiles))
	for _, p := range t.profiles {
		ret = append(ret, p)
	}
	slices.SortFunc(ret, func(a, b model.DriverProfile) int {
		return cmp.Compare(a.FullName, b.FullName)
	})
	return ret
}

// RaceDrivers returns the sorted names of all drivers with at least one result.
func (t *Table) RaceDrivers() []string {
	return slices.Clone(t.raceDrivers)
}

// Years returns the sorted seasons present in the table.
func (t *Table) Years() []int {
	return slices.Clone(t.years)
}
