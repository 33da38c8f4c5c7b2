package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dashforge/supergrid/pkg/superset"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// DashboardListModel is the bubbletea model for interactive dashboard
// selection.
type DashboardListModel struct {
	Dashboards []*superset.Dashboard
	Cursor     int
	Selected   *superset.Dashboard
	Height     int
	Offset     int
}

// NewDashboardListModel creates a new dashboard list model.
func NewDashboardListModel(dashboards []*superset.Dashboard) DashboardListModel {
	return DashboardListModel{
		Dashboards: dashboards,
		Cursor:     0,
		Height:     15,
		Offset:     0,
	}
}

func (m DashboardListModel) Init() tea.Cmd {
	return nil
}

func (m DashboardListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Dashboards)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Selected = m.Dashboards[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m DashboardListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Dashboard"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Dashboards) {
		end = len(m.Dashboards)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Dashboards[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		slug := d.Slug
		if slug == "" {
			slug = "—"
		}

		published := ""
		if d.Published {
			published = "✓"
		}

		rows = append(rows, []string{cursor, strconv.Itoa(d.ID), d.DashboardTitle, slug, published})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Title", "Slug", "Published").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col == 3 || col == 4 {
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Dashboards))))

	return b.String()
}

// pickDashboard fetches all dashboards and runs the interactive picker.
// A nil dashboard without error means the user quit without selecting.
func (c *CLI) pickDashboard(ctx context.Context, client *superset.Client) (*superset.Dashboard, error) {
	spinner := newSpinnerWithContext(ctx, "Loading dashboards...")
	spinner.Start()

	dashboards, _, err := client.Dashboards.Find(ctx, superset.Query{
		OrderColumn:    "dashboard_title",
		OrderDirection: "asc",
	})
	if err != nil {
		spinner.StopWithError("Could not load dashboards")
		return nil, err
	}
	spinner.Stop()

	if len(dashboards) == 0 {
		return nil, fmt.Errorf("no dashboards found on %s", client.Host())
	}

	p := tea.NewProgram(NewDashboardListModel(dashboards))
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	fm, ok := finalModel.(DashboardListModel)
	if !ok || fm.Selected == nil {
		return nil, nil
	}
	return fm.Selected, nil
}
