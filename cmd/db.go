package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/emrgen/manga/internal/config"
	"github.com/emrgen/manga/internal/model"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(Migrate())
}

func Migrate() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.LoadConfig()
			db := config.GetDb(cfg)
			err := model.Migrate(db)
			if err != nil {
				logrus.Fatalf("error migrating %s database: %v", cfg.DB.Driver, err)
			}
			logrus.Infof("migrated %s database", cfg.DB.Driver)
		},
	}

	return command
}
