// Package store moves complete datasets between the database and dataset tables.
package store

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/mpapenbr/f1-driverstats-go/log"
	"github.com/mpapenbr/f1-driverstats-go/pkg/dataset"
	"github.com/mpapenbr/f1-driverstats-go/pkg/repository/driver"
	"github.com/mpapenbr/f1-driverstats-go/pkg/repository/importrun"
	"github.com/mpapenbr/f1-driverstats-go/pkg/repository/race"
)

// ReplaceDataset replaces all stored results and profiles with the content of table.
// Everything happens in one transaction, readers never see a partial dataset.
func ReplaceDataset(
	ctx context.Context,
	pool *pgxpool.Pool,
	table *dataset.Table,
	source string,
) (uuid.UUID, error) {
	run := &importrun.ImportRun{Source: source}
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := race.DeleteAll(ctx, tx); err != nil {
			return err
		}
		if _, err := driver.DeleteAll(ctx, tx); err != nil {
			return err
		}
		n, err := race.CreateAll(ctx, tx, table.Rows())
		if err != nil {
			return err
		}
		run.RaceRows = int(n)
		for _, p := range table.Profiles() {
			if _, err := driver.Upsert(ctx, tx, &p); err != nil {
				return err
			}
			run.DriverRows++
		}
		return importrun.Create(ctx, tx, run)
	})
	if err != nil {
		return uuid.Nil, err
	}
	log.GetFromContext(ctx).Info("dataset stored",
		log.String("id", run.ID.String()),
		log.String("source", source),
		log.Int("races", run.RaceRows),
		log.Int("drivers", run.DriverRows))
	return run.ID, nil
}

// LoadTable reads results and profiles and builds a validated table.
func LoadTable(ctx context.Context, pool *pgxpool.Pool) (*dataset.Table, error) {
	rows, err := race.LoadAll(ctx, pool)
	if err != nil {
		return nil, err
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	profiles, err := driver.LoadAll(ctx, db)
	if err != nil {
		return nil, err
	}
	l := log.GetFromContext(ctx)
	run, err := importrun.LoadLatest(ctx, pool)
	switch {
	case errors.Is(err, importrun.ErrNoImport):
		l.Warn("database contains no imported dataset")
	case err != nil:
		return nil, err
	default:
		l.Info("loading dataset",
			log.String("importId", run.ID.String()),
			log.String("source", run.Source),
			log.Time("importedAt", run.ImportedAt))
	}
	return dataset.NewTable(rows, profiles)
}
