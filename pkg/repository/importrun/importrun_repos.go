//nolint:whitespace //can't make both the linter and editor happy :(
package importrun

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/f1-driverstats-go/pkg/repository"
)

var ErrNoImport = errors.New("no import recorded")

// ImportRun documents a dataset import into the database.
type ImportRun struct {
	ID         uuid.UUID
	Source     string
	RaceRows   int
	DriverRows int
	ImportedAt time.Time
}

// Create stores the run. A missing ID is generated.
func Create(ctx context.Context, conn repository.Querier, run *ImportRun) error {
	if run.ID.IsNil() {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		run.ID = id
	}
	return conn.QueryRow(ctx, `insert into dataset_import
(id, source, race_rows, driver_rows) values ($1,$2,$3,$4) returning imported_at`,
		run.ID, run.Source, run.RaceRows, run.DriverRows).Scan(&run.ImportedAt)
}

// LoadLatest returns the most recent import or ErrNoImport.
func LoadLatest(ctx context.Context, conn repository.Querier) (*ImportRun, error) {
	row := conn.QueryRow(ctx, selector+" order by imported_at desc limit 1")
	var item ImportRun
	if err := scan(&item, row); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoImport
		}
		return nil, err
	}
	return &item, nil
}

// LoadAll returns all imports, newest first.
func LoadAll(ctx context.Context, conn repository.Querier) ([]*ImportRun, error) {
	rows, err := conn.Query(ctx, selector+" order by imported_at desc")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*ImportRun, 0)
	for rows.Next() {
		var item ImportRun
		if err := scan(&item, rows); err != nil {
			return nil, err
		}
		ret = append(ret, &item)
	}
	return ret, rows.Err()
}

// little helper
const selector = string(`select id, source, race_rows, driver_rows, imported_at from dataset_import`)

func scan(e *ImportRun, row pgx.Row) error {
	return row.Scan(&e.ID, &e.Source, &e.RaceRows, &e.DriverRows, &e.ImportedAt)
}
