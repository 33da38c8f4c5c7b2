package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dashforge/supergrid/pkg/superset"
)

// chartsCommand creates the charts command with subcommands.
func (c *CLI) chartsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "charts",
		Aliases: []string{"chart"},
		Short:   "List and delete charts",
	}

	cmd.AddCommand(c.chartsListCommand())
	cmd.AddCommand(c.chartsDeleteCommand())

	return cmd
}

// chartsListCommand creates the list subcommand.
func (c *CLI) chartsListCommand() *cobra.Command {
	var (
		filter string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List charts on the active host",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := c.connect(ctx)
			if err != nil {
				return err
			}

			q := superset.Query{
				OrderColumn:    "slice_name",
				OrderDirection: "asc",
				PageSize:       limit,
			}
			if filter != "" {
				q.Filters = append(q.Filters, superset.ILike("slice_name", "%"+filter+"%"))
			}

			spinner := newSpinnerWithContext(ctx, "Loading charts...")
			spinner.Start()
			charts, count, err := client.Charts.Find(ctx, q)
			if err != nil {
				spinner.StopWithError("Could not load charts")
				return err
			}
			spinner.Stop()

			if len(charts) == 0 {
				printInfo("No charts found")
				return nil
			}

			rows := make([][]string, 0, len(charts))
			for _, ch := range charts {
				datasource := "—"
				if ch.DatasourceID != 0 {
					datasource = fmt.Sprintf("%d (%s)", ch.DatasourceID, ch.DatasourceType)
				}
				rows = append(rows, []string{strconv.Itoa(ch.ID), ch.SliceName, ch.VizType, datasource})
			}

			headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("ID", "Name", "Viz", "Datasource").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return headerStyle
					}
					if col == 0 || col == 3 {
						return lipgloss.NewStyle().Foreground(colorGray)
					}
					return listNormalStyle
				})

			fmt.Println(t.Render())
			printDetail("%d of %d charts", len(charts), count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "match charts by name")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of charts to list")

	return cmd
}

// chartsDeleteCommand creates the delete subcommand.
func (c *CLI) chartsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete charts by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			client, err := c.connect(ctx)
			if err != nil {
				return err
			}

			for _, id := range ids {
				if err := client.Charts.Delete(ctx, id); err != nil {
					return fmt.Errorf("delete chart %d: %w", id, err)
				}
				printSuccess("Deleted chart %d", id)
			}
			return nil
		},
	}
}
