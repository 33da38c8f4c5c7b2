package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dashforge/supergrid/pkg/superset"
)

// datasetsCommand creates the datasets command with subcommands.
func (c *CLI) datasetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasets",
		Aliases: []string{"dataset"},
		Short:   "List datasets",
	}

	cmd.AddCommand(c.datasetsListCommand())

	return cmd
}

// datasetsListCommand creates the list subcommand.
func (c *CLI) datasetsListCommand() *cobra.Command {
	var (
		filter string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List datasets on the active host",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := c.connect(ctx)
			if err != nil {
				return err
			}

			q := superset.Query{
				OrderColumn:    "table_name",
				OrderDirection: "asc",
				PageSize:       limit,
			}
			if filter != "" {
				q.Filters = append(q.Filters, superset.ILike("table_name", "%"+filter+"%"))
			}

			spinner := newSpinnerWithContext(ctx, "Loading datasets...")
			spinner.Start()
			datasets, count, err := client.Datasets.Find(ctx, q)
			if err != nil {
				spinner.StopWithError("Could not load datasets")
				return err
			}
			spinner.Stop()

			if len(datasets) == 0 {
				printInfo("No datasets found")
				return nil
			}

			rows := make([][]string, 0, len(datasets))
			for _, d := range datasets {
				schema := d.Schema
				if schema == "" {
					schema = "—"
				}
				kind := d.Kind
				if kind == "" {
					kind = "physical"
				}
				rows = append(rows, []string{strconv.Itoa(d.ID), d.TableName, schema, kind})
			}

			headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("ID", "Table", "Schema", "Kind").
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
			printDetail("%d of %d datasets", len(datasets), count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "match datasets by table name")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of datasets to list")

	return cmd
}
