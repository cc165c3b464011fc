package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ringflowhq/ringflow/internal/billing"
	"github.com/ringflowhq/ringflow/internal/config"
	"github.com/ringflowhq/ringflow/internal/db"
	"github.com/ringflowhq/ringflow/internal/server"
	"github.com/ringflowhq/ringflow/internal/telephony"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the control-panel API server",
	Long: `Starts the HTTP server exposing the flow editor API, number
management, and the voice webhooks the telephony provider calls for
inbound calls.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		provider := telephony.NewClient(cfg.Telephony.BaseURL, cfg.Telephony.AccountSID, cfg.Telephony.AuthToken)
		entitlements := billing.NewEntitlements(billing.StaticResolver{Plan: cfg.Billing.Plan})

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			BaseURL:  cfg.Server.BaseURL,
			AllowAll: cfg.Server.AllowAll,
		}, database, provider, entitlements)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-stop:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
