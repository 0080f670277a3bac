//nolint:funlen //ok for this test code
package store

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"gotest.tools/v3/assert"

	"github.com/mpapenbr/f1-driverstats-go/pkg/dataset"
	"github.com/mpapenbr/f1-driverstats-go/pkg/model"
	"github.com/mpapenbr/f1-driverstats-go/pkg/repository/importrun"
	"github.com/mpapenbr/f1-driverstats-go/pkg/repository/race"
	"github.com/mpapenbr/f1-driverstats-go/testsupport/testdb"
)

func loadSample(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.LoadFiles("../../dataset/testdata/races.csv",
		"../../dataset/testdata/drivers.csv")
	assert.NilError(t, err)
	return table
}

func TestReplaceAndLoad(t *testing.T) {
	pool := testdb.InitTestDb(t)
	ctx := context.Background()
	sample := loadSample(t)

	id, err := ReplaceDataset(ctx, pool, sample, "testdata")
	assert.NilError(t, err)
	assert.Assert(t, !id.IsNil())

	got, err := LoadTable(ctx, pool)
	assert.NilError(t, err)
	assert.Equal(t, got.Len(), sample.Len())
	assert.DeepEqual(t, got.Profiles(), sample.Profiles())
	assert.DeepEqual(t, got.Years(), sample.Years())

	want, have := sample.Rows(), got.Rows()
	for i := range want {
		assert.Equal(t, have[i].DriverFullName, want[i].DriverFullName)
		assert.Equal(t, have[i].FinishPosition, want[i].FinishPosition)
		assert.Equal(t, have[i].EventDate.String(), want[i].EventDate.String())
		assert.Assert(t, have[i].Points.Equal(want[i].Points),
			"points differ: %s vs %s", have[i].Points, want[i].Points)
		assert.Equal(t, have[i].ResultType, want[i].ResultType)
		assert.Equal(t, have[i].QualiStatus, want[i].QualiStatus)
	}

	run, err := importrun.LoadLatest(ctx, pool)
	assert.NilError(t, err)
	assert.Equal(t, run.ID, id)
	assert.Equal(t, run.RaceRows, 8)
	assert.Equal(t, run.DriverRows, 3)
}

func TestReplaceOverwrites(t *testing.T) {
	pool := testdb.InitTestDb(t)
	ctx := context.Background()
	_, err := ReplaceDataset(ctx, pool, loadSample(t), "first")
	assert.NilError(t, err)

	small, err := dataset.NewTable([]model.RaceResult{{
		Year: 2023, GP: "Bahrain Grand Prix", RoundNumber: 1,
		EventDate: model.NewDate(2023, 3, 5), DriverFullName: "Carlos Sainz",
		TeamName: "Ferrari", GridPosition: 4, FinishPosition: 4,
		Points: decimal.RequireFromString("12.5"), Status: "Finished",
	}}, nil)
	assert.NilError(t, err)
	_, err = ReplaceDataset(ctx, pool, small, "second")
	assert.NilError(t, err)

	got, err := LoadTable(ctx, pool)
	assert.NilError(t, err)
	assert.Equal(t, got.Len(), 1)
	assert.Equal(t, len(got.Profiles()), 0)

	rows, err := race.LoadByDriver(ctx, pool, "Carlos Sainz")
	assert.NilError(t, err)
	assert.Equal(t, len(rows), 1)
	assert.Assert(t, rows[0].Points.Equal(decimal.RequireFromString("12.5")))

	runs, err := importrun.LoadAll(ctx, pool)
	assert.NilError(t, err)
	sources := make([]string, 0, len(runs))
	for _, r := range runs {
		sources = append(sources, r.Source)
	}
	if diff := cmp.Diff([]string{"second", "first"}, sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceRollsBack(t *testing.T) {
	pool := testdb.InitTestDb(t)
	ctx := context.Background()
	_, err := ReplaceDataset(ctx, pool, loadSample(t), "first")
	assert.NilError(t, err)

	// the transaction fails, nothing may have been removed
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := race.DeleteAll(ctx, tx); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "select * from no_such_table")
		return err
	})
	assert.Assert(t, err != nil)

	got, err := LoadTable(ctx, pool)
	assert.NilError(t, err)
	assert.Equal(t, got.Len(), 8)
}

func TestNoImport(t *testing.T) {
	pool := testdb.InitTestDb(t)
	_, err := importrun.LoadLatest(context.Background(), pool)
	assert.ErrorIs(t, err, importrun.ErrNoImport)
}
