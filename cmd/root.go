package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robitlab/robit/pkg/protocol"
)

// Version is set at build time via -ldflags "-X github.com/robitlab/robit/cmd.Version=v1.0.0"
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "robit",
	Short: "Robit — chat-room AI bridge",
	Long:  "Robit bridges scoped chat rooms into an automation/AI decision engine and relays the engine's responses back into the rooms.",
	Run: func(cmd *cobra.Command, args []string) {
		runBridge()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: robit.json5 or $ROBIT_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(bridgeCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(versionCmd())
}

func bridgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "Run the bridge daemon",
		Run: func(cmd *cobra.Command, args []string) {
			runBridge()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("robit %s (schema %s)\n", Version, protocol.SchemaVersion)
		},
	}
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if env := os.Getenv("ROBIT_CONFIG"); env != "" {
		return env
	}
	return "robit.json5"
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
