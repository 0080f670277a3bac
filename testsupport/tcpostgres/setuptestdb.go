//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/f1-driverstats-go/pkg/db/migrate"
	database "github.com/mpapenbr/f1-driverstats-go/pkg/db/postgres"
)

// create a pg connection pool for the f1ds testdatabase
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	container, err := SetupPostgres(ctx)
	if err != nil {
		log.Fatal(err)
	}
	dbURL, err := container.ConnectionString(ctx)
	if err != nil {
		log.Fatal(err)
	}
	return setupWithURL(ctx, dbURL)
}

// SetupExternalTestDb uses the database given by TESTDB_URL
func SetupExternalTestDb() *pgxpool.Pool {
	return setupWithURL(context.Background(), os.Getenv("TESTDB_URL"))
}

func setupWithURL(ctx context.Context, dbUrl string) *pgxpool.Pool {
	if err := migrate.MigrateDB(dbUrl); err != nil {
		log.Fatal(err)
	}
	pool, err := database.InitWithURL(ctx, dbUrl)
	if err != nil {
		log.Fatal(err)
	}
	return pool
}

func ClearRaceResultTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from race_result")
}

func ClearDriverProfileTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from driver_profile")
}

func ClearDatasetImportTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from dataset_import")
}

func ClearAllTables(pool *pgxpool.Pool) {
	ClearDatasetImportTable(pool)
	ClearRaceResultTable(pool)
	ClearDriverProfileTable(pool)
}
