package tools

import (
	"context"
	"errors"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/ports"
)

// Prompter asks the user a question and returns their answer. The
// console supplies the interactive implementation.
type Prompter func(ctx context.Context, question string) (string, error)

type userInputArgs struct {
	Question string `json:"question" jsonschema:"required,description=Question to ask the user"`
}

// UserInput lets the model ask the user a clarifying question mid turn.
type UserInput struct {
	ports.ToolBase
	prompt Prompter
}

// NewUserInput creates the user_input tool over the given prompter.
func NewUserInput(prompt Prompter) *UserInput {
	return &UserInput{
		ToolBase: ports.ToolBase{
			ToolName:        "user_input",
			ToolDescription: "Asks the user a question and returns their answer.",
			Schema:          schemaFor(&userInputArgs{}),
		},
		prompt: prompt,
	}
}

func (t *UserInput) Invoke(ctx context.Context, args map[string]any, _ ports.RunSink) (any, error) {
	var in userInputArgs
	if err := decodeArgs(t.Name(), args, &in); err != nil {
		return nil, err
	}
	if t.prompt == nil {
		return nil, &domain.ToolError{Tool: t.Name(), Err: errors.New("no interactive input available")}
	}
	answer, err := t.prompt(ctx, in.Question)
	if err != nil {
		return nil, err
	}
	return answer, nil
}
