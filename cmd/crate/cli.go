package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justestif/go-crate-keeper/internal/config"
	"github.com/justestif/go-crate-keeper/internal/crate"
)

// cli holds global flags and the lazily opened app.
type cli struct {
	configPath string
	envFile    string
	verbose    bool

	logger *zap.Logger
	app    *app
	unsub  func()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crate",
		Short: "Keep a DJ crate in sync between this machine and Postgres",
		Long: `crate keeps a list of tracks you own or want, cached locally and
synced to a Postgres database when DATABASE_URL is set.

Changes are saved locally first; remote failures are reported and retried
by "crate sync".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", "", "path to a dotenv file (default ./.env if present)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		c.serveCmd(),
		c.listCmd(),
		c.addCmd(),
		c.editCmd(),
		c.removeCmd(),
		c.syncCmd(),
		c.mixesCmd(),
		c.enrichCmd(),
		c.grabCmd(),
		c.historyCmd(),
	)
	return root
}

// open loads configuration and the crate on first use. Notifications are
// printed to the command's error stream.
func (c *cli) open(cmd *cobra.Command) (*app, error) {
	if c.app != nil {
		return c.app, nil
	}

	cfg, err := config.Load(c.configPath, c.envFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if c.logger == nil {
		c.logger, err = newLogger(cfg.LogLevel, c.verbose)
		if err != nil {
			return nil, err
		}
	}

	a, err := newApp(cmd.Context(), cfg, c.logger)
	if err != nil {
		return nil, err
	}
	c.app = a
	c.unsub = a.store.Subscribe(printer(cmd.ErrOrStderr()))

	if err := a.store.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return a, nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.close()
		c.app = nil
	}
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// printer writes notifications as "Title: description" lines.
func printer(w io.Writer) crate.Listener {
	return crate.ListenerFuncs{
		OnNotify: func(n crate.Notification) {
			prefix := ""
			switch n.Severity {
			case crate.SeverityWarning:
				prefix = "warning: "
			case crate.SeverityError:
				prefix = "error: "
			}
			fmt.Fprintf(w, "%s%s: %s\n", prefix, n.Title, n.Description)
		},
	}
}
