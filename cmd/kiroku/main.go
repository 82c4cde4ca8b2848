// cmd/kiroku/main.go
//
// Entry point for the kiroku attendance station.
//
// Flow:
// 1. Resolve the data directory (--data flag)
// 2. Create the first-run directory structure
// 3. Load settings (config.yaml, .env, environment)
// 4. Launch the TUI

package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hosakajuku/kiroku/internal/config"
	"github.com/hosakajuku/kiroku/internal/tui"
)

func main() {
	dataDir := flag.String("data", config.DefaultDataDir, "directory holding roster, attendance log and outputs")
	flag.Parse()

	if err := config.InitDataDir(*dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing data directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.New(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	app, err := tui.NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting kiroku: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
