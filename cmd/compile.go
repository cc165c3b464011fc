package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ringflowhq/ringflow/internal/compiler"
	"github.com/ringflowhq/ringflow/internal/config"
	"github.com/ringflowhq/ringflow/internal/db"
	"github.com/ringflowhq/ringflow/internal/flow"
)

var compileUser string

// compileCmd recompiles every stored flow and reports the ones that
// fail. It is a health check for deployments upgrading old documents.
var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile-check all stored flows",
	Long: `Loads every stored flow (upgrading legacy documents on the fly),
compiles each one to call-control markup, and reports failures. Useful
after an upgrade or a bulk import.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		ctx := context.Background()
		store := flow.NewStore(database)
		flows, err := store.ListFlows(ctx, compileUser)
		if err != nil {
			return fmt.Errorf("listing flows: %w", err)
		}
		if len(flows) == 0 {
			fmt.Println("No flows to check.")
			return nil
		}

		comp := compiler.New(cfg.Server.BaseURL)
		bar := progressbar.NewOptions(len(flows),
			progressbar.OptionSetDescription("Compiling flows"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		failed := 0
		for i := range flows {
			if _, err := comp.Compile(&flows[i]); err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "flow %s (%s): %v\n", flows[i].ID, flows[i].FlowName, err)
			}
			_ = bar.Add(1)
		}
		_ = bar.Finish()

		if failed > 0 {
			return fmt.Errorf("%d of %d flows failed to compile", failed, len(flows))
		}
		fmt.Printf("All %d flows compiled cleanly.\n", len(flows))
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVar(&compileUser, "user", "anonymous", "user whose flows to check")
	rootCmd.AddCommand(compileCmd)
}
