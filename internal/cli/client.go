package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dashforge/supergrid/pkg/cache"
	"github.com/dashforge/supergrid/pkg/errors"
	"github.com/dashforge/supergrid/pkg/session"
	"github.com/dashforge/supergrid/pkg/superset"
)

// connect builds an authenticated client for the active profile. A
// stored session is resumed when present. Without one, a login is
// attempted when SUPERGRID_PASSWORD is set, so scripted use works
// without a prior 'auth login'.
func (c *CLI) connect(ctx context.Context) (*superset.Client, error) {
	prof, err := c.loadProfile()
	if err != nil {
		return nil, err
	}
	store, err := session.NewFileStore("")
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	sess, err := store.Get(ctx, prof.Name)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess != nil {
		client, err := superset.NewFromSession(c.clientConfig(prof), sess)
		if err == nil {
			return client, nil
		}
		if !errors.Is(err, errors.ErrCodeSessionExpired) {
			return nil, err
		}
		c.Logger.Debug("stored session expired, logging in again")
	}

	if os.Getenv(envPassword) == "" {
		return nil, fmt.Errorf("not logged in (run 'supergrid auth login' first)")
	}
	return c.login(ctx, prof, store)
}

// login prompts for a password and authenticates.
func (c *CLI) login(ctx context.Context, prof profile, store session.Store) (*superset.Client, error) {
	password, err := readPassword(prof.Username)
	if err != nil {
		return nil, err
	}
	return c.authenticate(ctx, prof, password, store)
}

// authenticate logs in with the given password and persists the session
// for later commands.
func (c *CLI) authenticate(ctx context.Context, prof profile, password string, store session.Store) (*superset.Client, error) {
	cfg := c.clientConfig(prof)
	cfg.Password = password
	client, err := superset.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := client.Authenticate(ctx); err != nil {
		return nil, err
	}

	if sess := client.Session(prof.Name); sess != nil {
		if err := store.Set(ctx, sess); err != nil {
			c.Logger.Warnf("could not persist session: %v", err)
		}
	}
	return client, nil
}

// clientConfig maps a resolved profile onto the client configuration.
// Cache keys are scoped per profile so two hosts never share entries.
func (c *CLI) clientConfig(prof profile) superset.Config {
	return superset.Config{
		Host:               prof.Host,
		Username:           prof.Username,
		Provider:           prof.Provider,
		InsecureSkipVerify: prof.SkipVerify,
		Cache:              c.newCache(),
		Keyer:              cache.NewScopedKeyer(cache.NewDefaultKeyer(), "profile:"+prof.Name+":"),
		CacheTTL:           prof.CacheTTL,
	}
}
