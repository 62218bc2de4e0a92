package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/skein/internal/console"
	"github.com/aretw0/skein/pkg/domain"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Run a single conversation turn and exit",
	Long: `Sends one prompt through the script's conversation loop and prints
the response. Confirmation-gated tools are approved automatically, so
this mode suits scripting and CI.`,
	Run: func(cmd *cobra.Command, args []string) {
		cons := console.NewStdio()

		eng, err := newEngine(cmd, cons, false)
		if err != nil {
			fmt.Printf("Error initializing skein: %v\n", err)
			os.Exit(1)
		}

		prompt := strings.TrimSpace(strings.Join(args, " "))
		if prompt == "" {
			prompt = eng.DefaultPrompt()
		}
		if prompt == "" {
			fmt.Println("Error: no prompt given and the script declares no default_prompt.")
			os.Exit(1)
		}

		history := []*domain.Message{domain.NewHumanMessage(prompt)}
		if _, err := eng.Run(cmd.Context(), history, cons); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if showUsage, _ := cmd.Flags().GetBool("usage"); showUsage {
			cons.Println(eng.Usage().FormatTotals())
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("usage", false, "Print token usage after the run")
}
