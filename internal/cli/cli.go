// Package cli implements the supergrid command-line interface.
//
// This package provides commands for authenticating against a Superset
// host, managing dashboards, charts and datasets, running SQL Lab
// queries, and rendering dashboard layouts as diagrams. The CLI is
// built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - auth: Log in, log out, and inspect the stored session
//   - dashboards: List, export, import, and delete dashboards
//   - charts, datasets: List and manage the other resource types
//   - sql: Run a statement through SQL Lab
//   - render: Draw a dashboard's layout as a DOT or SVG diagram
//   - cache: Manage the response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The
// logger lives on the [CLI] value shared by all commands.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dashforge/supergrid/pkg/buildinfo"
	"github.com/dashforge/supergrid/pkg/cache"
)

const (
	// appName is the application name used for directories and display.
	appName = "supergrid"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	profile string
	noCache bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "supergrid",
		Short:        "Supergrid manages Superset dashboards from the terminal",
		Long:         `Supergrid is a CLI tool for building, inspecting, and managing Apache Superset dashboards: authentication, resource management, SQL Lab access, and layout diagrams.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.profile, "profile", "p", "", "configuration profile to use")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the response cache")

	// Register all subcommands
	root.AddCommand(c.authCommand())
	root.AddCommand(c.dashboardsCommand())
	root.AddCommand(c.chartsCommand())
	root.AddCommand(c.datasetsCommand())
	root.AddCommand(c.sqlCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newCache builds the response cache for client use.
func (c *CLI) newCache() cache.Cache {
	if c.noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// cacheDir returns the cache directory using XDG standard (~/.cache/supergrid/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
