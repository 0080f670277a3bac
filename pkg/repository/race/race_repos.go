//nolint:whitespace //can't make both the linter and editor happy :(
package race

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/f1-driverstats-go/pkg/model"
	"github.com/mpapenbr/f1-driverstats-go/pkg/repository"
)

var columns = []string{
	"year", "gp", "round_number", "event_date", "event_format", "location", "country",
	"driver_full_name", "driver_number", "team_name", "grid_position", "finish_position",
	"points", "status",
}

// CreateAll inserts the rows using the copy protocol. Returns the number of rows inserted.
func CreateAll(
	ctx context.Context,
	conn repository.Querier,
	rows []model.RaceResult,
) (int64, error) {
	return conn.CopyFrom(ctx, pgx.Identifier{"race_result"}, columns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := &rows[i]
			return []any{
				r.Year, r.GP, r.RoundNumber, r.EventDate.Time, r.EventFormat, r.Location,
				r.Country, r.DriverFullName, r.DriverNumber, r.TeamName, r.GridPosition,
				r.FinishPosition, numeric(r.Points), r.Status,
			}, nil
		}))
}

// DeleteAll removes all race results, returns number of rows deleted.
func DeleteAll(ctx context.Context, conn repository.Querier) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from race_result")
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

// LoadAll returns all race results ordered by event date.
func LoadAll(ctx context.Context, conn repository.Querier) ([]model.RaceResult, error) {
	rows, err := conn.Query(ctx, selector+" order by event_date, year, round_number, id")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scan)
}

func LoadByDriver(
	ctx context.Context,
	conn repository.Querier,
	driver string,
) ([]model.RaceResult, error) {
	rows, err := conn.Query(ctx,
		fmt.Sprintf("%s where driver_full_name=$1 order by event_date, id", selector), driver)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scan)
}

// little helper
const selector = string(`select year, gp, round_number, event_date, event_format,
location, country, driver_full_name, driver_number, team_name, grid_position,
finish_position, points::text, status from race_result`)

func scan(row pgx.CollectableRow) (model.RaceResult, error) {
	var r model.RaceResult
	var eventDate time.Time
	var points string
	if err := row.Scan(
		&r.Year, &r.GP, &r.RoundNumber, &eventDate, &r.EventFormat, &r.Location,
		&r.Country, &r.DriverFullName, &r.DriverNumber, &r.TeamName, &r.GridPosition,
		&r.FinishPosition, &points, &r.Status,
	); err != nil {
		return r, err
	}
	var err error
	if r.Points, err = decimal.NewFromString(points); err != nil {
		return r, err
	}
	r.EventDate = model.NewDate(eventDate.Year(), eventDate.Month(), eventDate.Day())
	r.Classify()
	return r, nil
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
