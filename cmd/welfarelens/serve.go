package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/auth"
	"github.com/TobiSchelling/welfarelens/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		issuer, err := auth.NewIssuer(cfg.JWTSecret(), cfg.Auth.TokenTTL)
		if err != nil {
			return fmt.Errorf("%w: set %s", err, cfg.Auth.SecretEnv)
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if schedule := cfg.Sources.RefreshSchedule; schedule != "" {
			c := cron.New()
			_, err := c.AddFunc(schedule, func() {
				status, err := a.collector.RefreshSources(ctx)
				if err != nil {
					logger.Error("scheduled source refresh failed", zap.Error(err))
					return
				}
				logger.Info("scheduled source refresh", zap.Any("status", status))
			})
			if err != nil {
				return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
			}
			c.Start()
			defer func() { <-c.Stop().Done() }()
			logger.Info("source refresh scheduled", zap.String("schedule", schedule))
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		addr := net.JoinHostPort(cfg.Server.BindAddr, strconv.Itoa(port))

		fmt.Printf("Starting API at http://%s\n", addr)
		fmt.Println("Press Ctrl+C to stop")
		return server.New(a.collector, a.pipeline, issuer, logger).Serve(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}
