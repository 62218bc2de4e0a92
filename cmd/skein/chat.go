package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/skein/internal/console"
	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat [session-id]",
	Short: "Start an interactive conversation",
	Long: `Opens an interactive chat over the script's configured model and
tools. Passing a session id resumes that conversation; without one a
fresh session is created.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cons := console.NewStdio()

		eng, err := newEngine(cmd, cons, true)
		if err != nil {
			fmt.Printf("Error initializing skein: %v\n", err)
			os.Exit(1)
		}

		manager, cleanup := newSessionManager(cmd)
		defer cleanup()

		sessionID := uuid.NewString()
		if len(args) > 0 {
			sessionID = args[0]
		}
		sess, err := session.Open(ctx, manager, sessionID)
		if err != nil {
			fmt.Printf("Error opening session '%s': %v\n", sessionID, err)
			os.Exit(1)
		}
		if sess.Len() == 0 && eng.SystemMessage() != "" {
			sess.Append(domain.NewSystemMessage(eng.SystemMessage()))
		}

		console.PrintBanner(os.Stdout)
		cons.Println("session:", sessionID)
		cons.Println("Type 'exit' to quit, '/rewind' to undo the last exchange, '/usage' for token counts.")
		cons.Println()

		// A fresh session opens with the script's default prompt.
		pending := ""
		if sess.Len() <= 1 {
			pending = eng.DefaultPrompt()
		}

		for {
			input := pending
			pending = ""
			if input == "" {
				line, err := cons.ReadLine()
				if err != nil {
					break
				}
				input = strings.TrimSpace(line)
			}

			switch input {
			case "":
				continue
			case "exit", "quit":
				cons.Println("Bye!")
				return
			case "/usage":
				cons.Println(eng.Usage().FormatTotals())
				continue
			case "/rewind":
				text, ok := sess.Rewind()
				if !ok {
					cons.Println("Nothing to rewind.")
					continue
				}
				eng.Usage().ResetSession(sess.Messages())
				if err := sess.Save(ctx); err != nil {
					cons.Println("Warning: could not save session:", err)
				}
				cons.Println("Rewound. Last prompt was:", text)
				continue
			case "/clear":
				sess.Clear()
				eng.Usage().ResetSession(sess.Messages())
				if err := sess.Save(ctx); err != nil {
					cons.Println("Warning: could not save session:", err)
				}
				cons.Println("History cleared.")
				continue
			}

			sess.Append(domain.NewHumanMessage(input))
			produced, err := eng.Run(ctx, sess.Messages(), cons)
			if err != nil {
				// Drop the failed prompt so the session stays consistent.
				sess.Rewind()
				cons.Println("Error:", err)
				continue
			}
			sess.Append(produced...)
			if err := sess.Save(ctx); err != nil {
				cons.Println("Warning: could not save session:", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
