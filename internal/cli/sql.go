package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dashforge/supergrid/pkg/superset"
)

// sqlCommand creates the sql command.
func (c *CLI) sqlCommand() *cobra.Command {
	var (
		databaseID int
		limit      int
		schema     string
	)

	cmd := &cobra.Command{
		Use:   "sql <statement>",
		Short: "Run a SQL statement through SQL Lab",
		Long: `Execute a statement against a connected database and print the
result set.

The database id is the one shown in Superset's database list. Results
are capped at --limit rows; the server refuses queries whose results it
would have to truncate beyond that.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := c.connect(ctx)
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(ctx, "Running query...")
			spinner.Start()
			res, err := client.Databases.RunSQL(ctx, databaseID, args[0], superset.SQLOptions{
				Limit:  limit,
				Schema: schema,
			})
			if err != nil {
				spinner.StopWithError("Query failed")
				return err
			}
			spinner.Stop()

			if len(res.Rows) == 0 {
				printInfo("Query returned no rows (status: %s)", res.Status)
				return nil
			}

			headers := make([]string, len(res.Columns))
			for i, col := range res.Columns {
				headers[i] = col.Name
			}

			rows := make([][]string, 0, len(res.Rows))
			for _, row := range res.Rows {
				cells := make([]string, len(res.Columns))
				for i, col := range res.Columns {
					cells[i] = formatCell(row[col.Name])
				}
				rows = append(rows, cells)
			}

			headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers(headers...).
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return headerStyle
					}
					return listNormalStyle
				})

			fmt.Println(t.Render())
			printDetail("%d row(s)", len(res.Rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&databaseID, "database", "d", 0, "database id to run against (required)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "maximum number of rows to fetch")
	cmd.Flags().StringVar(&schema, "schema", "", "schema for unqualified table names")
	_ = cmd.MarkFlagRequired("database")

	return cmd
}

// formatCell renders one result value for display.
func formatCell(v any) string {
	if v == nil {
		return StyleDim.Render("NULL")
	}
	return fmt.Sprintf("%v", v)
}
