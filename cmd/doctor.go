package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robitlab/robit/internal/bridge"
	"github.com/robitlab/robit/internal/config"
	"github.com/robitlab/robit/internal/localmodel"
	"github.com/robitlab/robit/internal/transport"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and environment health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("robit doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults + env)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Scope:")
	scope := bridge.ScopeFromConfig(cfg.Bridge)
	if scope == nil {
		fmt.Println("    ABSENT — the bridge will not start (no room ids configured)")
	} else {
		fmt.Printf("    %-12s %s\n", "Workspace:", scope.WorkspaceID)
		for _, roomID := range scope.RoomIDs() {
			if _, err := transport.ParseRoomID(roomID); err != nil {
				fmt.Printf("    %-12s %s (INVALID: %s)\n", "Room:", roomID, err)
			} else {
				fmt.Printf("    %-12s %s\n", "Room:", roomID)
			}
		}
	}

	fmt.Println()
	fmt.Println("  AI backend:")
	fmt.Printf("    %-12s %s\n", "Family:", cfg.AI.Backend)
	switch strings.ToLower(strings.TrimSpace(cfg.AI.Backend)) {
	case "local", "localmodel":
		if !localmodel.Available() {
			fmt.Println("    Status:      UNAVAILABLE (build with -tags localmodel)")
		} else if cfg.AI.Local.ModelDir == "" {
			fmt.Println("    Status:      DISABLED (local.model_dir is empty)")
		} else {
			fmt.Printf("    %-12s %s\n", "Model dir:", cfg.AI.Local.ModelDir)
		}
	case "http":
		fmt.Printf("    %-12s %s\n", "Provider:", cfg.AI.Provider)
		fmt.Printf("    %-12s %s\n", "Model:", cfg.AI.Model)
		fmt.Printf("    Status:      %s\n", httpBackendStatus(cfg.AI))
	default:
		fmt.Println("    Status:      DISABLED by config")
	}

	fmt.Println()
	fmt.Printf("  History:  %s\n", cfg.History.Path)
	if cfg.Observe.Listen != "" {
		fmt.Printf("  Observe:  %s\n", cfg.Observe.Listen)
	}
}

// httpBackendStatus mirrors the checks the backend selector applies:
// model and key are both mandatory, in that order.
func httpBackendStatus(cfg config.AIConfig) string {
	if strings.TrimSpace(cfg.Model) == "" {
		return "DISABLED (model is empty)"
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return "DISABLED (ROBIT_AI_KEY not set)"
	}
	return "configured"
}
