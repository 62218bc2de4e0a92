/*
Package skein is a script-driven orchestration engine for tool-augmented
LLM conversations.

A skein script is a YAML document declaring models, shared constants,
tools, and a chat configuration. Tool bodies are small template programs
(eval, call, if, sequences) interpreted against a frozen script scope,
so a script can compose model calls, builtin tools, and its own tools
without any host code. The conversation worker drives the model loop:
it sends history to the model, executes requested tool calls (with
confirmation gating, direct results, and confidential redaction), and
feeds results back until the model answers in plain text.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/skein"
		"github.com/aretw0/skein/pkg/domain"
		"github.com/aretw0/skein/pkg/worker"
	)

	func main() {
		eng, err := skein.New("script.yaml")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		history := []*domain.Message{domain.NewHumanMessage("What is 13 + 29?")}

		produced, err := eng.Run(ctx, history, worker.NopEvents{})
		if err != nil {
			log.Fatal(err)
		}
		for _, msg := range produced {
			if msg.Role == domain.RoleAssistant {
				fmt.Println(msg.Text())
			}
		}
	}

The pkg/expr package can also be used on its own as a template
expression interpreter, and pkg/worker as a conversation loop over any
ports.ChatModel implementation.
*/
package skein
