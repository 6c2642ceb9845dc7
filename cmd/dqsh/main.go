package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/peterh/liner"

	"github.com/kartikbazzad/docquery/cmd/dqsh/parser"
	"github.com/kartikbazzad/docquery/cmd/dqsh/shell"
	"github.com/kartikbazzad/docquery/internal/config"
	"github.com/kartikbazzad/docquery/internal/logger"
	"github.com/kartikbazzad/docquery/internal/store"
)

const prompt = "dqsh> "

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config file (optional)")
	dataDir := flag.String("data-dir", "./data", "Directory for the persistence backend")
	persist := flag.Bool("persist", false, "Enable sqlite write-through persistence")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *cfgPath != "" {
		loaded, err := config.LoadFile(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.DataDir = *dataDir
	if *persist {
		cfg.Store.Persist = true
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create data dir: %v\n", err)
			os.Exit(1)
		}
	}

	logr := logger.New(os.Stderr, logger.ParseLevel(cfg.LogLevel), "[dqsh]")
	if *debugMode {
		logr.SetLevel(logger.LevelDebug)
	}

	st, err := store.Open(cfg, logr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(os.TempDir(), ".dqsh_history")
	if f, err := os.Open(historyPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println("dqsh - docquery shell. Type '.help' for commands.")

	sh := shell.New(st, os.Stdout)
	ctx := context.Background()

	for {
		input, err := line.Prompt(prompt)
		if err != nil {
			// io.EOF on ^D, liner.ErrPromptAborted on ^C
			fmt.Println()
			return
		}
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		cmd, err := parser.Parse(input)
		if err != nil {
			fmt.Printf("ERROR: %v\n", err)
			continue
		}

		if sh.Execute(ctx, cmd) {
			return
		}
	}
}
