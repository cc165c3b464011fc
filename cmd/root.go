package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ringflow",
	Short: "Visual call-flow routing for virtual phone numbers",
	Long: `RingFlow is the backend of a VoIP control panel: it stores visual
call flows designed block by block, binds them to purchased phone
numbers, and compiles them into the call-control markup the telephony
provider executes when a call comes in.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".ringflow.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
