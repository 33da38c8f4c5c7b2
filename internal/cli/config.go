package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/term"
)

// Environment variables that override the config file. SUPERGRID_PASSWORD
// is the only way to pass a password non-interactively; it is never read
// from the file.
const (
	envHost     = "SUPERGRID_HOST"
	envUsername = "SUPERGRID_USERNAME"
	envPassword = "SUPERGRID_PASSWORD"
	envProfile  = "SUPERGRID_PROFILE"
)

// defaultCacheTTL bounds cached responses when a profile sets no cache_ttl.
const defaultCacheTTL = 15 * time.Minute

// fileConfig is the on-disk shape of ~/.config/supergrid/config.toml:
//
//	default_profile = "prod"
//
//	[profiles.prod]
//	host = "https://superset.example.com"
//	username = "deploy"
//	provider = "db"
//	verify_ssl = true
//	cache_ttl = "15m"
type fileConfig struct {
	DefaultProfile string                 `toml:"default_profile"`
	Profiles       map[string]profileSpec `toml:"profiles"`
}

type profileSpec struct {
	Host     string `toml:"host"`
	Username string `toml:"username"`
	Provider string `toml:"provider"`
	// VerifySSL defaults to true when absent.
	VerifySSL *bool  `toml:"verify_ssl"`
	CacheTTL  string `toml:"cache_ttl"`
}

// profile is a resolved profile: file settings with environment
// overrides applied and defaults filled in.
type profile struct {
	Name     string
	Host     string
	Username string
	Provider string

	SkipVerify bool
	CacheTTL   time.Duration
}

// configPath returns the config file path using XDG standard
// (~/.config/supergrid/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadFileConfig reads the config file. A missing file is not an error;
// everything can come from flags and environment variables instead.
func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// resolveProfile picks the profile by precedence (SUPERGRID_PROFILE, the
// --profile flag, default_profile from the file, "default") and applies
// the environment overrides on top of its file settings.
func resolveProfile(cfg fileConfig, flagProfile string) (profile, error) {
	name := os.Getenv(envProfile)
	if name == "" {
		name = flagProfile
	}
	if name == "" {
		name = cfg.DefaultProfile
	}
	if name == "" {
		name = "default"
	}

	spec, ok := cfg.Profiles[name]
	if !ok && name != "default" && os.Getenv(envHost) == "" {
		return profile{}, fmt.Errorf("profile %q not found in config (run 'supergrid auth login' with %s set, or add it to the config file)", name, envHost)
	}

	p := profile{
		Name:     name,
		Host:     spec.Host,
		Username: spec.Username,
		Provider: spec.Provider,
		CacheTTL: defaultCacheTTL,
	}
	if spec.VerifySSL != nil {
		p.SkipVerify = !*spec.VerifySSL
	}
	if spec.CacheTTL != "" {
		ttl, err := time.ParseDuration(spec.CacheTTL)
		if err != nil {
			return profile{}, fmt.Errorf("profile %q: bad cache_ttl %q: %w", name, spec.CacheTTL, err)
		}
		p.CacheTTL = ttl
	}

	if host := os.Getenv(envHost); host != "" {
		p.Host = host
	}
	if user := os.Getenv(envUsername); user != "" {
		p.Username = user
	}
	if p.Host == "" {
		return profile{}, fmt.Errorf("no host configured for profile %q (set %s or add it to the config file)", name, envHost)
	}
	return p, nil
}

// loadProfile loads the config file and resolves the active profile.
func (c *CLI) loadProfile() (profile, error) {
	path, err := configPath()
	if err != nil {
		return profile{}, err
	}
	cfg, err := loadFileConfig(path)
	if err != nil {
		return profile{}, err
	}
	return resolveProfile(cfg, c.profile)
}

// readPassword resolves the password from SUPERGRID_PASSWORD, falling
// back to an interactive no-echo prompt on a terminal.
func readPassword(username string) (string, error) {
	if pwd := os.Getenv(envPassword); pwd != "" {
		return pwd, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password available: set %s or run interactively", envPassword)
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	pwd, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pwd), nil
}
