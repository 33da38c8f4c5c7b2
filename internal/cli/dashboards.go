package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dashforge/supergrid/pkg/superset"
)

// dashboardsCommand creates the dashboards command with subcommands.
func (c *CLI) dashboardsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dashboards",
		Aliases: []string{"dashboard"},
		Short:   "List, export, import and delete dashboards",
	}

	cmd.AddCommand(c.dashboardsListCommand())
	cmd.AddCommand(c.dashboardsExportCommand())
	cmd.AddCommand(c.dashboardsImportCommand())
	cmd.AddCommand(c.dashboardsDeleteCommand())

	return cmd
}

// dashboardsListCommand creates the list subcommand.
func (c *CLI) dashboardsListCommand() *cobra.Command {
	var (
		filter string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List dashboards on the active host",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := c.connect(ctx)
			if err != nil {
				return err
			}

			q := superset.Query{
				OrderColumn:    "dashboard_title",
				OrderDirection: "asc",
				PageSize:       limit,
			}
			if filter != "" {
				q.Filters = append(q.Filters, superset.Filter{
					Col:   "dashboard_title",
					Op:    superset.OpTitleOrSlug,
					Value: filter,
				})
			}

			spinner := newSpinnerWithContext(ctx, "Loading dashboards...")
			spinner.Start()
			dashboards, count, err := client.Dashboards.Find(ctx, q)
			if err != nil {
				spinner.StopWithError("Could not load dashboards")
				return err
			}
			spinner.Stop()

			if len(dashboards) == 0 {
				printInfo("No dashboards found")
				return nil
			}

			fmt.Println(dashboardTable(dashboards))
			printDetail("%d of %d dashboards", len(dashboards), count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "match dashboards by title or slug")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of dashboards to list")

	return cmd
}

// dashboardsExportCommand creates the export subcommand.
func (c *CLI) dashboardsExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <id>...",
		Short: "Export dashboards to a file",
		Long: `Download one or more dashboards as an import bundle.

Current Superset versions serve a zip bundle; older ones serve flat JSON
or YAML. The file extension follows whatever the server sent.`,
		Args: cobra.MinimumNArgs(1),
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

			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Exporting %d dashboard(s)...", len(ids)))
			spinner.Start()

			var buf bytes.Buffer
			format, err := client.Dashboards.Export(ctx, ids, &buf)
			if err != nil {
				spinner.StopWithError("Export failed")
				return err
			}
			spinner.Stop()

			path := output
			if path == "" {
				path = fmt.Sprintf("dashboard_export_%s.%s", time.Now().Format("20060102_150405"), format)
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}

			printSuccess("Exported %d dashboard(s)", len(ids))
			printFile(path)
			printNextStep("Import elsewhere", "supergrid dashboards import "+path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default dashboard_export_<time>.<format>)")

	return cmd
}

// dashboardsImportCommand creates the import subcommand.
func (c *CLI) dashboardsImportCommand() *cobra.Command {
	var (
		overwrite bool
		passwords []string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import dashboards from an export bundle",
		Long: `Upload a dashboard export (.zip or .json).

Exports never contain database passwords, so imports that create a
database connection need them passed explicitly:

  supergrid dashboards import sales.zip --password examples=secret`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			secrets, err := parsePasswordPairs(passwords)
			if err != nil {
				return err
			}
			client, err := c.connect(ctx)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()

			spinner := newSpinnerWithContext(ctx, "Importing dashboards...")
			spinner.Start()
			if err := client.Dashboards.Import(ctx, filepath.Base(args[0]), f, overwrite, secrets); err != nil {
				spinner.StopWithError("Import failed")
				return err
			}
			spinner.StopWithSuccess(fmt.Sprintf("Imported %s", filepath.Base(args[0])))
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace dashboards that already exist")
	cmd.Flags().StringArrayVar(&passwords, "password", nil, "database password as name=secret (repeatable)")

	return cmd
}

// dashboardsDeleteCommand creates the delete subcommand.
func (c *CLI) dashboardsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete dashboards by id",
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
				if err := client.Dashboards.Delete(ctx, id); err != nil {
					return fmt.Errorf("delete dashboard %d: %w", id, err)
				}
				printSuccess("Deleted dashboard %d", id)
			}
			return nil
		},
	}
}

// dashboardTable renders dashboards as a bordered table.
func dashboardTable(dashboards []*superset.Dashboard) string {
	rows := make([][]string, 0, len(dashboards))
	for _, d := range dashboards {
		slug := d.Slug
		if slug == "" {
			slug = "—"
		}
		published := ""
		if d.Published {
			published = "✓"
		}
		rows = append(rows, []string{strconv.Itoa(d.ID), d.DashboardTitle, slug, published})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Title", "Slug", "Published").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return listNormalStyle
		}).
		Render()
}

// =============================================================================
// Helpers
// =============================================================================

// parseIDs converts positional id arguments to ints.
func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parsePasswordPairs splits repeated name=secret flags into a map.
func parsePasswordPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	secrets := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, secret, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid password %q, expected name=secret", pair)
		}
		secrets[name] = secret
	}
	return secrets, nil
}
