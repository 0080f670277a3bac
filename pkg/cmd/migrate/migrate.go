package migrate

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1-driverstats-go/log"
	"github.com/mpapenbr/f1-driverstats-go/pkg/cmd/util"
	"github.com/mpapenbr/f1-driverstats-go/pkg/config"
	"github.com/mpapenbr/f1-driverstats-go/pkg/db/migrate"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration(cmd.Context())
		},
	}
	return cmd
}

func startMigration(ctx context.Context) error {
	if _, _, err := util.SetupLogger(); err != nil {
		return err
	}
	// wait for database
	if err := util.WaitForRequiredServices(ctx, config.DB, ""); err != nil {
		return err
	}
	if err := migrate.MigrateDB(config.DB); err != nil {
		return err
	}
	version, dirty, err := migrate.Version(config.DB)
	if err != nil {
		return err
	}
	log.Info("Database migrated", log.Int("version", int(version)), log.Bool("dirty", dirty))
	return nil
}
