package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/skein"
	"github.com/aretw0/skein/internal/console"
	"github.com/aretw0/skein/internal/logging"
	"github.com/aretw0/skein/pkg/adapters/mcp"
)

var rootCmd = &cobra.Command{
	Use:   "skein",
	Short: "Skein is a script-driven engine for tool-augmented LLM conversations",
	Long: `Skein runs YAML scripts that declare models, tools, and a chat
configuration, and drives the conversation loop against the configured
model. Tools are small template programs that can call each other,
builtin tools, and nested models.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("script", "f", "script.yaml", "Path to the skein script")
	rootCmd.PersistentFlags().String("dir", ".", "Base directory for the file tools")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for session storage (empty keeps sessions in memory)")
	rootCmd.PersistentFlags().String("mcp", "", "Command launching an MCP tool server over stdio, e.g. 'npx server-filesystem /tmp'")
}

// newLogger builds the CLI logger. Without --verbose the logger is
// silent unless SKEIN_LOG_LEVEL asks for output, so log lines do not
// interleave with console rendering by default.
func newLogger(cmd *cobra.Command) *slog.Logger {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return logging.New(slog.LevelDebug)
	}
	if os.Getenv("SKEIN_LOG_LEVEL") != "" {
		return logging.FromEnv()
	}
	return logging.NewNop()
}

// newEngine assembles the engine from the persistent flags. Interactive
// mode wires the console in as prompter and confirmer and enables
// streaming output.
func newEngine(cmd *cobra.Command, cons *console.Console, interactive bool) (*skein.Engine, error) {
	scriptPath, _ := cmd.Flags().GetString("script")
	dir, _ := cmd.Flags().GetString("dir")

	opts := []skein.Option{
		skein.WithBaseDir(dir),
		skein.WithLogger(newLogger(cmd)),
	}
	if interactive {
		opts = append(opts,
			skein.WithPrompter(cons.Prompt),
			skein.WithConfirmer(cons),
			skein.WithStreaming(true),
		)
	}

	if command, _ := cmd.Flags().GetString("mcp"); command != "" {
		parts := strings.Fields(command)
		conn, err := mcp.Connect(cmd.Context(), parts[0], os.Environ(), parts[1:]...)
		if err != nil {
			return nil, fmt.Errorf("mcp connect: %w", err)
		}
		imported, err := mcp.ImportTools(cmd.Context(), conn, "mcp")
		if err != nil {
			return nil, fmt.Errorf("mcp import: %w", err)
		}
		opts = append(opts, skein.WithTools(imported...))
	}

	return skein.New(scriptPath, opts...)
}
