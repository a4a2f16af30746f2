// =============================================================================
// Bus Decoder Generator - Main Entry Point
// =============================================================================
//
// This tool turns an elaborated address map into SystemVerilog bus-decode
// logic: one decoder module fanning a single slave port out to one master
// port per mapped block.
//
// THE PIPELINE:
//   1. The elaborated design JSON is loaded into the addressable-node tree
//   2. The fact extractor flattens the tree into relational rows
//   3. CUE validator enforces the fact contract (crash on schema mismatch)
//   4. OPA evaluates the design rules (alignment, strides, widths)
//   5. Generators emit selector structs, decode logic, fanout and fanin
//   6. Two files are written: the decoder module and its types package
//
// WHEN INVESTIGATING WRONG OUTPUT:
//   Start at the beginning of the pipeline, not the end!
//   Tree issues → fact issues → generator issues
// =============================================================================

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rdlgen/busdecoder/internal/config"
	"github.com/rdlgen/busdecoder/internal/design"
	"github.com/rdlgen/busdecoder/internal/export"
	"github.com/rdlgen/busdecoder/internal/facts"
	"github.com/rdlgen/busdecoder/internal/rdl"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "init":
		runInit()
	case "facts":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		runFacts(os.Args[2])
	case "-v", "--verbose":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		runExport(os.Args[2], true)
	case "-h", "--help", "help":
		printUsage()
	case "-c", "--config":
		if len(os.Args) < 4 {
			printUsage()
			os.Exit(1)
		}
		runExportWithConfig(os.Args[2], os.Args[3], false)
	default:
		runExport(cmd, false)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: busdecoder [command] [options] <design.json>

Commands:
  init              Create a busdecoder.json configuration file
  facts             Print the extracted fact tables as JSON
  <design.json>     Generate the decoder for the given design

Options:
  -v, --verbose     Enable verbose output
  -c, --config      Specify config file: busdecoder -c config.json <design.json>
  -h, --help        Show this help message

Configuration:
  busdecoder looks for configuration in:
    1. ./busdecoder.json
    2. ./.busdecoder.json
    3. ~/.config/busdecoder/config.json

  Run 'busdecoder init' to create a default configuration file.`)
}

func runInit() {
	configPath := "busdecoder.json"

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file %s already exists. Overwrite? [y/N]: ", configPath)
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - Bus protocol (cpuif)")
	fmt.Println("  - Output directory")
	fmt.Println("  - Decode depth and array unrolling")
}

func runFacts(designPath string) {
	top, err := rdl.LoadDesignFile(designPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ds, err := design.New(top, config.DefaultConfig().DesignConfig(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(facts.Extract(ds), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func runExport(designPath string, verbose bool) {
	cfg, err := config.Load(filepath.Dir(designPath))
	if err != nil {
		fmt.Printf("Warning: Could not load config: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}
	doExport(cfg, designPath, verbose)
}

func runExportWithConfig(configPath, designPath string, verbose bool) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config %s: %v\n", configPath, err)
		os.Exit(1)
	}
	doExport(cfg, designPath, verbose)
}

func doExport(cfg *config.Config, designPath string, verbose bool) {
	top, err := rdl.LoadDesignFile(designPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
	}

	opts := export.Options{
		Protocol: cfg.Cpuif,
		Design:   cfg.DesignConfig(),
		Logger:   logger,
	}
	if err := export.Export(context.Background(), top, cfg.Output, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated decoder in %s\n", cfg.Output)
}
