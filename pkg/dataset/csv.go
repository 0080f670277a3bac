package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mpapenbr/f1-driverstats-go/pkg/model"
)

// column names of the race results csv
const (
	ColYear         = "Year"
	ColGP           = "GP"
	ColRoundNumber  = "RoundNumber"
	ColEventDate    = "EventDate"
	ColEventFormat  = "EventFormat"
	ColLocation     = "Location"
	ColCountry      = "Country"
	ColFullName     = "FullName"
	ColDriverNumber = "DriverNumber"
	ColTeamName     = "TeamName"
	ColGridPosition = "GridPosition"
	ColPosition     = "Position"
	ColPoints       = "Points"
	ColStatus       = "Status"
	ColResultType   = "ResultType"
	ColQualiStatus  = "QualiStatus"
	ColCounter      = "Counter"

	ColFlag    = "FlagURL"
	ColTwitter = "twitter"
)

var (
	requiredRaceColumns = []string{
		ColYear, ColGP, ColRoundNumber, ColEventDate, ColLocation, ColCountry,
		ColFullName, ColDriverNumber, ColTeamName, ColGridPosition, ColPosition,
		ColPoints, ColStatus,
	}
	// order used when writing
	raceColumns = []string{
		ColYear, ColGP, ColRoundNumber, ColEventDate, ColEventFormat, ColLocation,
		ColCountry, ColFullName, ColDriverNumber, ColTeamName, ColGridPosition,
		ColPosition, ColPoints, ColStatus, ColResultType, ColQualiStatus, ColCounter,
	}
	requiredDriverColumns = []string{ColFullName, ColFlag}
)

type header map[string]int

func readHeader(r *csv.Reader, required []string) (header, error) {
	names, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &StructuralError{Reason: "missing header row"}
	}
	if err != nil {
		return nil, err
	}
	h := make(header, len(names))
	for i, name := range names {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		h[strings.TrimSpace(name)] = i
	}
	for _, col := range required {
		if _, ok := h[col]; !ok {
			return nil, &StructuralError{Line: 1, Column: col, Reason: "missing required column"}
		}
	}
	return h, nil
}

// record gives typed access to one csv line.
type record struct {
	h      header
	values []string
	line   int
}

func (rec *record) has(col string) bool {
	_, ok := rec.h[col]
	return ok
}

func (rec *record) raw(col string) string {
	idx, ok := rec.h[col]
	if !ok || idx >= len(rec.values) {
		return ""
	}
	v := strings.TrimSpace(rec.values[idx])
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

func (rec *record) fail(col, format string, args ...any) error {
	return &StructuralError{Line: rec.line, Column: col, Reason: fmt.Sprintf(format, args...)}
}

func (rec *record) str(col string) (string, error) {
	v := rec.raw(col)
	if v == "" {
		return "", rec.fail(col, "required value is empty")
	}
	return v, nil
}

func (rec *record) integer(col string) (int, error) {
	v, err := rec.str(col)
	if err != nil {
		return 0, err
	}
	i, err := parseInt(v)
	if err != nil {
		return 0, rec.fail(col, "%v", err)
	}
	return i, nil
}

// parseInt accepts "7" as well as the float notation "7.0".
func parseInt(s string) (int, error) {
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.Trunc(f) != f || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}

// ReadRaceResults parses the race results csv. The derived columns are recomputed for
// every row, their stored values are ignored.
func ReadRaceResults(r io.Reader) ([]model.RaceResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	h, err := readHeader(cr, requiredRaceColumns)
	if err != nil {
		return nil, err
	}
	ret := make([]model.RaceResult, 0)
	line := 1
	for {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &StructuralError{Line: line, Reason: err.Error()}
		}
		item, err := parseRaceResult(&record{h: h, values: values, line: line})
		if err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, nil
}

//nolint:funlen,cyclop // one check per column
func parseRaceResult(rec *record) (model.RaceResult, error) {
	var item model.RaceResult
	var err error
	if item.Year, err = rec.integer(ColYear); err != nil {
		return item, err
	}
	if item.GP, err = rec.str(ColGP); err != nil {
		return item, err
	}
	if item.RoundNumber, err = rec.integer(ColRoundNumber); err != nil {
		return item, err
	}
	dateStr, err := rec.str(ColEventDate)
	if err != nil {
		return item, err
	}
	if item.EventDate, err = model.ParseDate(dateStr); err != nil {
		return item, rec.fail(ColEventDate, "%v", err)
	}
	item.EventFormat = rec.raw(ColEventFormat)
	if item.Location, err = rec.str(ColLocation); err != nil {
		return item, err
	}
	if item.Country, err = rec.str(ColCountry); err != nil {
		return item, err
	}
	if item.DriverFullName, err = rec.str(ColFullName); err != nil {
		return item, err
	}
	if item.DriverNumber, err = rec.str(ColDriverNumber); err != nil {
		return item, err
	}
	if n, convErr := parseInt(item.DriverNumber); convErr == nil {
		item.DriverNumber = strconv.Itoa(n)
	}
	if item.TeamName, err = rec.str(ColTeamName); err != nil {
		return item, err
	}
	if item.GridPosition, err = rec.integer(ColGridPosition); err != nil {
		return item, err
	}
	if item.GridPosition < 0 {
		return item, rec.fail(ColGridPosition, "negative grid position %d", item.GridPosition)
	}
	// an empty position marks a car that was not classified
	if pos := rec.raw(ColPosition); pos != "" {
		if item.FinishPosition, err = parseInt(pos); err != nil {
			return item, rec.fail(ColPosition, "%v", err)
		}
		if item.FinishPosition < 0 {
			return item, rec.fail(ColPosition, "negative position %d", item.FinishPosition)
		}
	}
	pts, err := rec.str(ColPoints)
	if err != nil {
		return item, err
	}
	if item.Points, err = decimal.NewFromString(pts); err != nil {
		return item, rec.fail(ColPoints, "%v", err)
	}
	if item.Points.IsNegative() {
		return item, rec.fail(ColPoints, "negative points %s", pts)
	}
	if item.Status, err = rec.str(ColStatus); err != nil {
		return item, err
	}
	if rec.has(ColCounter) {
		if c := rec.raw(ColCounter); c != "" {
			if n, convErr := parseInt(c); convErr != nil || n != 1 {
				return item, rec.fail(ColCounter, "counter must be 1, got %q", c)
			}
		}
	}
	item.Classify()
	return item, nil
}

// ReadDriverProfiles parses the driver reference csv.
func ReadDriverProfiles(r io.Reader) ([]model.DriverProfile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	h, err := readHeader(cr, requiredDriverColumns)
	if err != nil {
		return nil, err
	}
	ret := make([]model.DriverProfile, 0)
	line := 1
	for {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &StructuralError{Line: line, Reason: err.Error()}
		}
		rec := &record{h: h, values: values, line: line}
		name, err := rec.str(ColFullName)
		if err != nil {
			return nil, err
		}
		ret = append(ret, model.DriverProfile{
			FullName:            name,
			NationalityFlagCode: rec.raw(ColFlag),
			SocialMediaHandle:   rec.raw(ColTwitter),
		})
	}
	return ret, nil
}

// WriteRaceResults writes rows in the format read by ReadRaceResults.
func WriteRaceResults(w io.Writer, rows []model.RaceResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(raceColumns); err != nil {
		return err
	}
	for i := range rows {
		r := &rows[i]
		pos := ""
		if r.Classified() {
			pos = strconv.Itoa(r.FinishPosition)
		}
		if err := cw.Write([]string{
			strconv.Itoa(r.Year),
			r.GP,
			strconv.Itoa(r.RoundNumber),
			r.EventDate.String(),
			r.EventFormat,
			r.Location,
			r.Country,
			r.DriverFullName,
			r.DriverNumber,
			r.TeamName,
			strconv.Itoa(r.GridPosition),
			pos,
			r.Points.String(),
			r.Status,
			model.ClassifyResult(r.FinishPosition, r.Points).String(),
			model.ClassifyQuali(r.GridPosition).String(),
			"1",
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDriverProfiles writes profiles in the format read by ReadDriverProfiles.
func WriteDriverProfiles(w io.Writer, profiles []model.DriverProfile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColFullName, ColFlag, ColTwitter}); err != nil {
		return err
	}
	for _, p := range profiles {
		if err := cw.Write(
			[]string{p.FullName, p.NationalityFlagCode, p.SocialMediaHandle}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
