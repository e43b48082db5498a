package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const (
	defaultServer = "localhost:4020"
	envServer     = "MANGA_SERVER"
)

var serverAddr string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "manga",
	Short: "manga project management tool",
	Example: `manga serve
manga project create -t <title> -a <author-id>
manga project list -a <author-id>
manga page add -p <project-id> --after 2
manga page delete -p <project-id> -g <page-id>
manga panel draw -p <project-id> -g <page-id> -n <panel-id> -d "M 10,10 L 20,20"
manga project export -p <project-id> -o out.pdf`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	addr := os.Getenv(envServer)
	if addr == "" {
		addr = defaultServer
	}
	rootCmd.PersistentFlags().StringVarP(&serverAddr, "server", "s", addr, "manga server address")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(pageCmd)
	rootCmd.AddCommand(panelCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
