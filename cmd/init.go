package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ringflowhq/ringflow/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a ringflow configuration interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil {
			return fmt.Errorf("%s already exists; remove it first to reconfigure", cfgFile)
		}
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
