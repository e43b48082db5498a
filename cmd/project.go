package cmd

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/emrgen/manga/internal/export"
	"github.com/emrgen/manga/internal/service"
)

const timeLayout = "2006-01-02 15:04:05"

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "project commands",
}

func init() {
	projectCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	projectCmd.AddCommand(createProjectCmd())
	projectCmd.AddCommand(getProjectCmd())
	projectCmd.AddCommand(listProjectsCmd())
	projectCmd.AddCommand(updateProjectCmd())
	projectCmd.AddCommand(publishProjectCmd())
	projectCmd.AddCommand(unpublishProjectCmd())
	projectCmd.AddCommand(listBackupsCmd())
	projectCmd.AddCommand(restoreBackupCmd())
	projectCmd.AddCommand(exportProjectCmd())
}

func createProjectCmd() *cobra.Command {
	var req service.CreateProjectRequest

	var required = []string{"title"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a manga project",
		Example: "manga project create -t <title> -a <author-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			ctx, cancel := requestContext()
			defer cancel()

			id, err := newClient().CreateProject(ctx, req)
			if err != nil {
				printError(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title"})
			table.Append([]string{id, req.Title})
			table.Render()
		},
	}

	command.Flags().StringVarP(&req.Title, "title", "t", "", "project title")
	command.Flags().StringVarP(&req.AuthorID, "author-id", "a", "", "author id")
	command.Flags().StringVar(&req.AuthorName, "author-name", "", "author display name")
	command.Flags().StringVar(&req.Description, "description", "", "project description")
	command.Flags().StringVar(&req.Genre, "genre", "", "project genre")
	command.Flags().StringVar(&req.TemplateID, "template-id", "", "template the project starts from")

	return command
}

func getProjectCmd() *cobra.Command {
	var projectID string

	var required = []string{"project-id"}

	command := &cobra.Command{
		Use:   "get",
		Short: "show a manga project",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			ctx, cancel := requestContext()
			defer cancel()

			project, err := newClient().GetProject(ctx, projectID)
			if err != nil {
				printError(err)
				return
			}

			printField("ID", project.ID)
			printField("Title", project.Title)
			printField("Author", project.AuthorID)
			printField("Status", string(project.Status))
			printField("Published", strconv.FormatBool(project.IsPublished))
			printField("Current page", project.CurrentPageID)
			printField("Updated", project.UpdatedAt.Local().Format(timeLayout))

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Page", "ID", "Title", "Panels", "Paths", "Bubbles"})
			for _, page := range project.Pages {
				paths, bubbles := 0, 0
				for _, panel := range page.Panels {
					paths += len(panel.Paths)
					bubbles += len(panel.Bubbles)
				}
				number := strconv.Itoa(page.PageNumber)
				if page.ID == project.CurrentPageID {
					number += " (current)"
				}
				table.Append([]string{number, page.ID, page.Title, strconv.Itoa(len(page.Panels)), strconv.Itoa(paths), strconv.Itoa(bubbles)})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")

	return command
}

func listProjectsCmd() *cobra.Command {
	var authorID string

	command := &cobra.Command{
		Use:   "list",
		Short: "list manga projects, most recently updated first",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := requestContext()
			defer cancel()

			projects, err := newClient().ListProjects(ctx, authorID)
			if err != nil {
				printError(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title", "Status", "Pages", "Updated At"})
			for _, p := range projects {
				table.Append([]string{p.ID, p.Title, string(p.Status), strconv.Itoa(p.TotalPages), p.UpdatedAt.Local().Format(timeLayout)})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&authorID, "author-id", "a", "", "only list the projects of this author")

	return command
}

func updateProjectCmd() *cobra.Command {
	var projectID string
	var title string
	var description string
	var genre string
	var status string
	var tags []string
	var sets []string

	var required = []string{"project-id"}

	command := &cobra.Command{
		Use:     "update",
		Short:   "update top level fields of a manga project",
		Example: `manga project update -p <project-id> -t "New title" --set coverImage='"cover.png"'`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			updates := map[string]any{}
			if cmd.Flag("title").Changed {
				updates["title"] = title
			}
			if cmd.Flag("description").Changed {
				updates["description"] = description
			}
			if cmd.Flag("genre").Changed {
				updates["genre"] = genre
			}
			if cmd.Flag("status").Changed {
				updates["status"] = status
			}
			if cmd.Flag("tags").Changed {
				updates["tags"] = tags
			}
			for _, set := range sets {
				key, value, ok := strings.Cut(set, "=")
				if !ok || key == "" {
					color.Red("invalid --set %q, expected key=value\n", set)
					return
				}
				if _, exists := updates[key]; exists {
					color.Magenta("overwriting field: %s\n", key)
				}
				updates[key] = parseValue(value)
			}
			if len(updates) == 0 {
				color.Yellow("nothing to update")
				return
			}

			ctx, cancel := requestContext()
			defer cancel()

			project, err := newClient().UpdateProject(ctx, projectID, updates)
			if err != nil {
				printError(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title", "Status", "Updated At"})
			table.Append([]string{project.ID, project.Title, string(project.Status), project.UpdatedAt.Local().Format(timeLayout)})
			table.Render()
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")
	command.Flags().StringVarP(&title, "title", "t", "", "project title")
	command.Flags().StringVar(&description, "description", "", "project description")
	command.Flags().StringVar(&genre, "genre", "", "project genre")
	command.Flags().StringVar(&status, "status", "", "draft, writing, editing or published")
	command.Flags().StringSliceVar(&tags, "tags", nil, "comma separated tags")
	command.Flags().StringArrayVar(&sets, "set", nil, "key=value, the value is read as JSON when it parses")

	return command
}

// parseValue reads a JSON value and falls back to the raw string.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func publishProjectCmd() *cobra.Command {
	var projectID string

	var required = []string{"project-id"}

	command := &cobra.Command{
		Use:   "publish",
		Short: "publish a manga project",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			ctx, cancel := requestContext()
			defer cancel()

			record, err := newClient().Publish(ctx, projectID)
			if err != nil {
				printError(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Version", "Pages", "Published At"})
			table.Append([]string{record.ID, record.Version, strconv.Itoa(record.TotalPages), record.PublishedAt.Local().Format(timeLayout)})
			table.Render()
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")

	return command
}

func unpublishProjectCmd() *cobra.Command {
	var projectID string

	var required = []string{"project-id"}

	command := &cobra.Command{
		Use:   "unpublish",
		Short: "remove the public record of a manga project",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			ctx, cancel := requestContext()
			defer cancel()

			if err := newClient().Unpublish(ctx, projectID); err != nil {
				printError(err)
				return
			}
			color.Green("project unpublished")
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")

	return command
}

func listBackupsCmd() *cobra.Command {
	var projectID string

	var required = []string{"project-id"}

	command := &cobra.Command{
		Use:   "backups",
		Short: "list the backups of a manga project",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			ctx, cancel := requestContext()
			defer cancel()

			backups, err := newClient().ListBackups(ctx, projectID)
			if err != nil {
				printError(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Version", "Title", "Pages", "Created At"})
			for _, b := range backups {
				table.Append([]string{strconv.FormatInt(b.Version, 10), b.Title, strconv.Itoa(b.TotalPages), b.CreatedAt.Local().Format(timeLayout)})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")

	return command
}

func restoreBackupCmd() *cobra.Command {
	var projectID string
	var version int64

	var required = []string{"project-id", "version"}

	command := &cobra.Command{
		Use:   "restore",
		Short: "overwrite a manga project with one of its backups",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			ctx, cancel := requestContext()
			defer cancel()

			project, err := newClient().RestoreBackup(ctx, projectID, version)
			if err != nil {
				printError(err)
				return
			}

			color.Magenta("restored %s to version %d\n", project.ID, version)
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")
	command.Flags().Int64VarP(&version, "version", "v", 0, "backup version")

	return command
}

func exportProjectCmd() *cobra.Command {
	var projectID string
	var out string
	var pages []int
	var titles bool

	var required = []string{"project-id"}

	command := &cobra.Command{
		Use:     "export",
		Short:   "export a manga project to PDF",
		Example: "manga project export -p <project-id> -o out.pdf --pages 1,2",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			ctx, cancel := requestContext()
			defer cancel()

			project, err := newClient().GetProject(ctx, projectID)
			if err != nil {
				printError(err)
				return
			}

			if out == "" {
				out = project.ID + ".pdf"
			}

			start := time.Now()
			err = export.ProjectPDFFile(out, project, export.PDFOptions{Pages: pages, PageTitles: titles})
			if err != nil {
				printError(err)
				return
			}

			printField("Output", out)
			printField("Took", time.Since(start).String())
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")
	command.Flags().StringVarP(&out, "out", "o", "", "output file, defaults to <project-id>.pdf")
	command.Flags().IntSliceVar(&pages, "pages", nil, "page numbers to export, all when empty")
	command.Flags().BoolVar(&titles, "titles", false, "print page titles")

	return command
}
