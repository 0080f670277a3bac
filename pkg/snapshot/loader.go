package snapshot

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/f1-driverstats-go/pkg/dataset"
	"github.com/mpapenbr/f1-driverstats-go/pkg/repository/store"
)

// FileLoader reads the dataset from csv files. DriversPath is optional.
type FileLoader struct {
	RacesPath   string
	DriversPath string
}

func (f FileLoader) Load(ctx context.Context) (*dataset.Table, error) {
	return dataset.LoadFiles(f.RacesPath, f.DriversPath)
}

func (f FileLoader) Source() string {
	return fmt.Sprintf("file:%s", f.RacesPath)
}

// Paths returns the files that make up the dataset.
func (f FileLoader) Paths() []string {
	ret := []string{f.RacesPath}
	if f.DriversPath != "" {
		ret = append(ret, f.DriversPath)
	}
	return ret
}

// DBLoader reads the dataset from the database.
type DBLoader struct {
	Pool *pgxpool.Pool
}

func (d DBLoader) Load(ctx context.Context) (*dataset.Table, error) {
	return store.LoadTable(ctx, d.Pool)
}

func (d DBLoader) Source() string {
	return "db"
}
