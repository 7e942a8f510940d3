package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justestif/go-crate-keeper/internal/crate"
	"github.com/justestif/go-crate-keeper/internal/mixes"
	"github.com/justestif/go-crate-keeper/internal/web"
)

func (c *cli) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the crate HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Addr
			}

			server, err := web.NewServer(web.ServerConfig{
				Addr:      addr,
				Store:     a.store,
				History:   a.history,
				Extractor: a.extractor(),
				Resolver:  a.resolver(),
				Mixes:     mixes.DefaultConfig(),
				Logger:    a.logger.Named("web"),
			})
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}

			defer a.store.Subscribe(server.Events())()
			defer a.store.Subscribe(logNotifications(a.logger))()

			return server.Run()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func logNotifications(logger *zap.Logger) crate.Listener {
	return crate.ListenerFuncs{
		OnNotify: func(n crate.Notification) {
			fields := []zap.Field{zap.String("title", n.Title), zap.String("description", n.Description)}
			switch n.Severity {
			case crate.SeverityError:
				logger.Error("notification", fields...)
			case crate.SeverityWarning:
				logger.Warn("notification", fields...)
			default:
				logger.Info("notification", fields...)
			}
		},
		OnSyncChanged: func(synced bool) {
			logger.Info("sync state changed", zap.Bool("synced", synced))
		},
	}
}

func (c *cli) mixesCmd() *cobra.Command {
	cfg := mixes.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "mixes",
		Short: "Group tracks into mixes by tempo and key",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}

			groups, outliers, err := mixes.Group(a.store.Tracks(), cfg)
			if err != nil {
				return fmt.Errorf("grouping mixes: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), mixes.FormatSummary(groups, outliers))
			return err
		},
	}
	cmd.Flags().IntVar(&cfg.NumClusters, "clusters", cfg.NumClusters, "number of mixes to look for")
	cmd.Flags().IntVar(&cfg.MinClusterSize, "min-size", cfg.MinClusterSize, "smallest mix; smaller groups become outliers")
	return cmd
}
