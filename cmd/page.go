package cmd

import (
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/emrgen/manga/internal/manga"
)

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "page commands",
}

func init() {
	pageCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	pageCmd.AddCommand(addPageCmd())
	pageCmd.AddCommand(deletePageCmd())
	pageCmd.AddCommand(duplicatePageCmd())
	pageCmd.AddCommand(currentPageCmd())
}

func printPage(page *manga.Page) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Page", "Title", "Panels"})
	table.Append([]string{page.ID, strconv.Itoa(page.PageNumber), page.Title, strconv.Itoa(len(page.Panels))})
	table.Render()
}

func addPageCmd() *cobra.Command {
	var projectID string
	var after int

	var required = []string{"project-id"}

	command := &cobra.Command{
		Use:     "add",
		Short:   "add a page, appended unless --after is given",
		Example: "manga page add -p <project-id> --after 2",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			var insertAfter *int
			if cmd.Flag("after").Changed {
				insertAfter = &after
			}

			ctx, cancel := requestContext()
			defer cancel()

			page, err := newClient().AddPage(ctx, projectID, insertAfter)
			if err != nil {
				printError(err)
				return
			}
			printPage(page)
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")
	command.Flags().IntVar(&after, "after", 0, "insert after this page number, 0 inserts in front")

	return command
}

func deletePageCmd() *cobra.Command {
	var projectID string
	var pageID string

	var required = []string{"project-id", "page-id"}

	command := &cobra.Command{
		Use:   "delete",
		Short: "delete a page and renumber the rest",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			ctx, cancel := requestContext()
			defer cancel()

			if err := newClient().DeletePage(ctx, projectID, pageID); err != nil {
				printError(err)
				return
			}
			color.Green("page deleted")
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")
	command.Flags().StringVarP(&pageID, "page-id", "g", "", "page id")

	return command
}

func duplicatePageCmd() *cobra.Command {
	var projectID string
	var pageID string

	var required = []string{"project-id", "page-id"}

	command := &cobra.Command{
		Use:   "duplicate",
		Short: "append a copy of a page",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			ctx, cancel := requestContext()
			defer cancel()

			page, err := newClient().DuplicatePage(ctx, projectID, pageID)
			if err != nil {
				printError(err)
				return
			}
			printPage(page)
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")
	command.Flags().StringVarP(&pageID, "page-id", "g", "", "page id")

	return command
}

func currentPageCmd() *cobra.Command {
	var projectID string
	var pageID string

	var required = []string{"project-id", "page-id"}

	command := &cobra.Command{
		Use:   "current",
		Short: "set the page the editor opens on",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			ctx, cancel := requestContext()
			defer cancel()

			if err := newClient().SetCurrentPage(ctx, projectID, pageID); err != nil {
				printError(err)
				return
			}
			printField("Current page", pageID)
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")
	command.Flags().StringVarP(&pageID, "page-id", "g", "", "page id")

	return command
}
