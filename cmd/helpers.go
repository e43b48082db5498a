package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	mangaclient "github.com/emrgen/manga"
)

const requestTimeout = 30 * time.Second

func newClient() *mangaclient.Client {
	return mangaclient.NewClient(serverAddr)
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func printField(label, value string) {
	color.Set(color.FgCyan)
	fmt.Print(label)
	color.Unset()
	fmt.Printf(": %s\n", value)
}

func printError(err error) {
	color.Red("error: %v\n", err)
}

// checkMissingFlags checks if the required flags are set and returns true when some are missing
func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if !cmd.Flag(required).Changed {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Green("provide: %s\n", provided)
		}

		cmd.Println("")

		_ = cmd.Usage()

		return true
	}

	return false
}
