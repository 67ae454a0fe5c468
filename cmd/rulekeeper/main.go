// rulekeeper: Coding Rule Management MCP Server
//
// A universal MCP server that integrates with any AI coding tool
// (Claude Code, Cursor, OpenCode, Gemini CLI) to manage coding
// guidelines: hierarchical loading, dependency validation, semantic
// versioning, and bidirectional sync with platform rule files.
//
// Usage:
//
//	rulekeeper serve    # Start MCP server (stdio transport)
//	rulekeeper update   # Update to the latest version
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mgalvez/rulekeeper/internal/engine"
	rkserver "github.com/mgalvez/rulekeeper/internal/server"
	"github.com/mgalvez/rulekeeper/internal/updater"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "update":
		runUpdate()
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("rulekeeper v%s\n", rkserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	root := flags.String("root", "", "project root (default: current directory)")
	globalDir := flags.String("global", defaultGlobalDir(), "global rules directory (empty disables the global scope)")
	dbPath := flags.String("db", "", "SQLite database path (empty disables persistence)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	projectRoot := *root
	if projectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		projectRoot = wd
	}

	// Logs go to stderr so they don't interfere with MCP's stdio
	// transport on stdout.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, cleanup, err := rkserver.New(engine.Options{
		ProjectRoot: projectRoot,
		GlobalDir:   *globalDir,
		DBPath:      *dbPath,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Background version check — prints to stderr so it doesn't
	// interfere with the stdio transport.
	go checkForUpdates()

	return server.ServeStdio(s)
}

// defaultGlobalDir resolves the user-level rules directory
// (~/.config/rulekeeper/rules). Empty when the home directory is unknown.
func defaultGlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rulekeeper", "rules")
}

// checkForUpdates runs a non-blocking version check and prints a notice
// to stderr if an update is available. This runs in a goroutine during
// "serve" and is best-effort — network failures are silently ignored.
func checkForUpdates() {
	result := updater.CheckVersion(rkserver.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\n  📦 Update available: v%s → v%s\n"+
				"     Run: rulekeeper update\n"+
				"     Release: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL,
		)
	}
}

// runUpdate performs a self-update to the latest version.
func runUpdate() {
	fmt.Fprintf(os.Stderr, "🔍 Checking for updates...\n")

	result := updater.CheckVersion(rkserver.Version)
	if !result.UpdateAvailable {
		fmt.Fprintf(os.Stderr, "✅ Already at the latest version (v%s)\n", result.CurrentVersion)
		return
	}

	fmt.Fprintf(os.Stderr, "📦 New version available: v%s → v%s\n", result.CurrentVersion, result.LatestVersion)
	fmt.Fprintf(os.Stderr, "⬇️  Downloading...\n")

	if err := updater.SelfUpdate(rkserver.Version); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Update failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "\n   You can download manually from:\n   %s\n", result.ReleaseURL)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "✅ Updated to v%s!\n", result.LatestVersion)
	fmt.Fprintf(os.Stderr, "   Restart rulekeeper to use the new version.\n")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `rulekeeper v%s — Coding Rule Management MCP Server

Usage:
  rulekeeper serve [flags]   Start the MCP server (stdio transport)
  rulekeeper update          Update to the latest version

Serve flags:
  --root dir     Project root (default: current directory)
  --global dir   Global rules directory (default: ~/.config/rulekeeper/rules)
  --db path      SQLite database path (empty disables persistence)

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "rulekeeper": {
        "command": "rulekeeper",
        "args": ["serve"]
      }
    }
  }

Learn more: https://github.com/mgalvez/rulekeeper
`, rkserver.Version)
}
