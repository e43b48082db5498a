package cmd

import (
	"github.com/spf13/cobra"

	"github.com/emrgen/manga/internal/config"
	"github.com/emrgen/manga/internal/server"
)

func serveCmd() *cobra.Command {
	var port string

	command := &cobra.Command{
		Use:   "serve",
		Short: "start the manga server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.LoadConfig()
			if cmd.Flag("port").Changed {
				cfg.HTTP.Port = port
			}
			config.SetupLogger(cfg.Log)

			server.NewServer(cfg).Start()
		},
	}

	command.Flags().StringVar(&port, "port", "", "http port, overrides MANGA_HTTP_PORT")

	return command
}
