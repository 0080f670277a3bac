package importer

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1-driverstats-go/log"
	"github.com/mpapenbr/f1-driverstats-go/pkg/cmd/util"
	"github.com/mpapenbr/f1-driverstats-go/pkg/config"
	"github.com/mpapenbr/f1-driverstats-go/pkg/dataset"
	"github.com/mpapenbr/f1-driverstats-go/pkg/notify"
	"github.com/mpapenbr/f1-driverstats-go/pkg/repository/store"
)

func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "validates the csv files and replaces the dataset in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&config.RacesFile,
		"races",
		"data/races.csv",
		"path to the race results csv file")
	cmd.Flags().StringVar(&config.DriversFile,
		"drivers",
		"",
		"path to the driver profiles csv file (optional)")
	cmd.Flags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"info",
		"controls the log level for sql methods")
	return cmd
}

func runImport(ctx context.Context) error {
	_, sqlLogger, err := util.SetupLogger()
	if err != nil {
		return err
	}
	table, err := dataset.LoadFiles(config.RacesFile, config.DriversFile)
	if err != nil {
		return err
	}
	log.Info("dataset validated",
		log.Int("rows", table.Len()),
		log.Int("profiles", len(table.Profiles())))

	if err := util.WaitForRequiredServices(ctx, config.DB, config.NatsURL); err != nil {
		return err
	}
	pool, err := util.OpenPool(ctx, sqlLogger)
	if err != nil {
		return err
	}
	defer pool.Close()

	source := "file:" + config.RacesFile
	id, err := store.ReplaceDataset(ctx, pool, table, source)
	if err != nil {
		return err
	}
	log.Info("dataset imported", log.String("importId", id.String()))

	if config.NatsURL == "" {
		return nil
	}
	conn, err := util.ConnectNats()
	if err != nil {
		return err
	}
	defer conn.Close()
	return notify.New(conn).Publish(notify.DatasetUpdated{
		ImportID:   id.String(),
		Source:     source,
		RaceRows:   table.Len(),
		DriverRows: len(table.Profiles()),
	})
}
