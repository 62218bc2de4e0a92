package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/skein/pkg/registry"
	"github.com/aretw0/skein/pkg/script"
	"github.com/aretw0/skein/pkg/tools"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a script without calling any model",
	Long: `Loads and assembles the script, checking YAML structure, expression
syntax, tool references, and parameter declarations. No API key is
needed and no model is contacted.`,
	Run: func(cmd *cobra.Command, args []string) {
		scriptPath, _ := cmd.Flags().GetString("script")
		dir, _ := cmd.Flags().GetString("dir")

		cfg, err := script.Load(scriptPath)
		if err != nil {
			fmt.Printf("Invalid: %v\n", err)
			os.Exit(1)
		}

		// The prompter is never invoked during assembly, only resolved.
		reg := registry.New()
		reg.Register(tools.NewReadFile(dir))
		reg.Register(tools.NewWriteFile(dir))
		reg.Register(tools.NewUserInput(nil))

		sc, err := script.Assemble(cfg, reg)
		if err != nil {
			fmt.Printf("Invalid: %v\n", err)
			os.Exit(1)
		}
		if _, err := sc.SystemMessage(); err != nil {
			fmt.Printf("Invalid: %v\n", err)
			os.Exit(1)
		}
		chatTools, err := sc.ChatTools()
		if err != nil {
			fmt.Printf("Invalid: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Script %s is valid.\n", scriptPath)
		fmt.Println("Chat tools:")
		for _, t := range chatTools {
			fmt.Printf("- %s: %s\n", t.Name(), t.Description())
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
