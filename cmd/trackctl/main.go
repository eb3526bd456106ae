// Command trackctl signs in to the tracking service and reads tracks,
// accounts and tracking settings from a terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tracker-parent/internal/config"
	"tracker-parent/internal/db"
	"tracker-parent/internal/logger"
	"tracker-parent/internal/server"
)

func main() {
	c := newCLI()
	err := newRootCommand(c).Execute()
	c.close()
	if err != nil {
		os.Exit(1)
	}
}

type cli struct {
	load    func() config.Config
	connect func(context.Context, config.Config) (server.Stores, server.Connections, error)

	store   string
	verbose bool

	cfg   config.Config
	log   *zap.Logger
	conns server.Connections
	srv   *server.Server
}

func newCLI() *cli {
	return &cli{load: config.Load, connect: connectStores}
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:          "trackctl",
		Short:        "Inspect tracked locations and account settings",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.store, "store", "sqlite", "credential store backend: memory, sqlite, redis or postgres")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log gateway traffic")

	root.AddCommand(
		newLoginCommand(c),
		newResumeCommand(c),
		newLogoutCommand(c),
		newWhoamiCommand(c),
		newUsersCommand(c),
		newTracksCommand(c),
		newSettingsCommand(c),
	)
	return root
}

// setup loads configuration and opens the stores. A backend named in the
// environment wins over the flag default, the flag wins when given.
func (c *cli) setup(cmd *cobra.Command) error {
	c.cfg = c.load()
	if cmd.Flags().Changed("store") || os.Getenv("STORE_BACKEND") == "" {
		c.cfg.StoreBackend = c.store
	}

	level := "warn"
	if c.verbose {
		level = "debug"
	}
	c.log = logger.New(level, c.cfg.LogFormat)

	stores, conns, err := c.connect(cmd.Context(), c.cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", c.cfg.StoreBackend, err)
	}
	c.conns = conns
	c.srv = server.NewServer(c.cfg, stores, nil, c.log)
	return nil
}

func (c *cli) close() {
	if c.srv != nil {
		_ = c.srv.Close()
		c.srv = nil
	}
	c.conns.Close()
	c.conns = server.Connections{}
	if c.log != nil {
		_ = c.log.Sync()
	}
}

func connectStores(ctx context.Context, cfg config.Config) (server.Stores, server.Connections, error) {
	var conns server.Connections
	switch cfg.StoreBackend {
	case "redis":
		conns.Redis = db.ConnectRedis(cfg)
	case "postgres":
		pg, err := db.ConnectPostgres(cfg)
		if err != nil {
			return server.Stores{}, conns, err
		}
		conns.Postgres = pg
	case "sqlite":
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return server.Stores{}, conns, err
		}
		conns.SQLite = conn
	}

	stores, err := server.OpenStores(ctx, cfg, conns)
	if err != nil {
		conns.Close()
		return server.Stores{}, server.Connections{}, err
	}
	return stores, conns, nil
}
