package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/emrgen/manga/internal/drawing"
	"github.com/emrgen/manga/internal/manga"
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "panel commands",
}

func init() {
	panelCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	panelCmd.AddCommand(drawPanelCmd())
	panelCmd.AddCommand(clearPanelCmd())
}

func drawPanelCmd() *cobra.Command {
	var projectID, pageID, panelID string
	var descriptor string
	var stroke string
	var width float64
	var tool string
	var keep bool

	var required = []string{"project-id", "page-id", "panel-id", "path"}

	command := &cobra.Command{
		Use:     "draw",
		Short:   "draw strokes on a panel from a path descriptor",
		Example: `manga panel draw -p <project-id> -g 1 -n 1 -d "M 10,10 L 40,40 M 60,10 L 60,60" --keep`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			switch manga.Tool(tool) {
			case manga.ToolPen, manga.ToolBrush, manga.ToolEraser:
			default:
				color.Red("unknown tool %q, expected pen, brush or eraser\n", tool)
				return
			}

			path, err := drawing.ParseDescriptor(descriptor)
			if err != nil {
				printError(err)
				return
			}

			ctx, cancel := requestContext()
			defer cancel()
			client := newClient()

			project, err := client.GetProject(ctx, projectID)
			if err != nil {
				printError(err)
				return
			}
			panel, err := project.FindPanel(pageID, panelID)
			if err != nil {
				printError(err)
				return
			}

			var opts []drawing.Option
			if keep {
				opts = append(opts, drawing.WithPaths(panel.Paths))
			}
			capture := drawing.NewCapture(opts...)
			capture.Select(stroke, width, manga.Tool(tool))
			committed := capture.Replay(path)

			if err := client.SavePanelDrawings(ctx, projectID, pageID, panelID, capture.Paths()); err != nil {
				printError(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Path", "Bounds"})
			for _, p := range committed {
				b := p.D
				if parsed, err := drawing.ParseDescriptor(p.D); err == nil {
					r := parsed.Bounds()
					b = fmt.Sprintf("%g,%g %gx%g", r.X, r.Y, r.W, r.H)
				}
				table.Append([]string{p.ID, p.D, b})
			}
			table.Render()
			printField("Paths on panel", strconv.Itoa(len(capture.Paths())))
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")
	command.Flags().StringVarP(&pageID, "page-id", "g", "", "page id")
	command.Flags().StringVarP(&panelID, "panel-id", "n", "", "panel id")
	command.Flags().StringVarP(&descriptor, "path", "d", "", `path descriptor, "M x,y L x,y ..."`)
	command.Flags().StringVar(&stroke, "color", drawing.DefaultColor, "stroke color")
	command.Flags().Float64Var(&width, "width", drawing.DefaultWidth, "stroke width")
	command.Flags().StringVar(&tool, "tool", string(manga.ToolPen), "pen, brush or eraser")
	command.Flags().BoolVar(&keep, "keep", false, "keep the strokes already on the panel")

	return command
}

func clearPanelCmd() *cobra.Command {
	var projectID, pageID, panelID string

	var required = []string{"project-id", "page-id", "panel-id"}

	command := &cobra.Command{
		Use:   "clear",
		Short: "remove every stroke of a panel",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			ctx, cancel := requestContext()
			defer cancel()

			if err := newClient().SavePanelDrawings(ctx, projectID, pageID, panelID, nil); err != nil {
				printError(err)
				return
			}
			color.Green("panel cleared")
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")
	command.Flags().StringVarP(&pageID, "page-id", "g", "", "page id")
	command.Flags().StringVarP(&panelID, "panel-id", "n", "", "panel id")

	return command
}
