// Package console implements the interactive terminal front end: it
// renders run output, prompts for input, and answers confirmation
// requests.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/skein/pkg/domain"
)

// Console is a terminal UI over a reader/writer pair. It satisfies
// worker.Events and ports.Confirmer; its Prompt method serves as a
// tools.Prompter.
type Console struct {
	in      *bufio.Reader
	out     io.Writer
	profile termenv.Profile
	render  func(string) (string, error)

	thinking bool
}

// New creates a console over the given streams. Markdown rendering and
// colors degrade gracefully on dumb terminals.
func New(in io.Reader, out io.Writer) *Console {
	c := &Console{
		in:      bufio.NewReader(in),
		out:     out,
		profile: termenv.ColorProfile(),
	}
	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle()); err == nil {
		c.render = r.Render
	}
	return c
}

// NewStdio creates a console over stdin/stdout.
func NewStdio() *Console {
	return New(os.Stdin, os.Stdout)
}

// Interactive reports whether stdin is a terminal.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Notify renders progress events as dim status lines. Streamed output
// chunks are written raw so the answer appears as it is generated.
func (c *Console) Notify(n domain.Notification) {
	switch n.Type {
	case domain.NotifyThinkingStart:
		c.thinking = true
		c.status("thinking...")
	case domain.NotifyThinkingEnd:
		c.thinking = false
	case domain.NotifyToolStart:
		c.status(n.Text)
	case domain.NotifyToolEnd:
		// End of a tool run needs no line of its own.
	case domain.NotifyAiOutputChunk:
		fmt.Fprint(c.out, n.Text)
	case domain.NotifyAiReasoningChunk:
		c.dim(n.Text)
	}
}

// RecordUsage is silent; usage is reported on demand via the usage
// command.
func (c *Console) RecordUsage(string, domain.TokenUsage) {}

// Message renders a completed message. Assistant text goes through the
// markdown renderer; tool results are shown dimmed.
func (c *Console) Message(m *domain.Message) {
	switch m.Role {
	case domain.RoleAssistant:
		text := m.Text()
		if text == "" {
			return
		}
		fmt.Fprintln(c.out, c.markdown(text))
	case domain.RoleTool:
		c.status(fmt.Sprintf("%s returned", m.ToolName))
	}
}

// Prompt asks the user a question and returns the entered line.
func (c *Console) Prompt(_ context.Context, question string) (string, error) {
	fmt.Fprintf(c.out, "%s\n> ", c.colored(question, "#818cf8"))
	return c.readLine()
}

// Confirm displays each request and asks for per-call approval.
func (c *Console) Confirm(_ context.Context, reqs []domain.ConfirmationRequest) (domain.ConfirmationResponse, error) {
	resp := domain.ConfirmationResponse{ApprovedCallIDs: make(map[string]bool, len(reqs))}
	for _, req := range reqs {
		fmt.Fprintln(c.out, c.colored(req.Action, "#f472b6"))
		for _, p := range req.Params {
			value := fmt.Sprintf("%v", p.Value)
			if p.Format == "markdown" {
				value = c.markdown(value)
			}
			fmt.Fprintf(c.out, "  %s: %s\n", p.Name, value)
		}
		fmt.Fprint(c.out, "Approve? [y/N] ")
		line, err := c.readLine()
		if err != nil {
			return domain.ConfirmationResponse{}, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		resp.ApprovedCallIDs[req.CallID] = answer == "y" || answer == "yes"
	}
	return resp, nil
}

// ReadLine reads one line of user input for the chat loop.
func (c *Console) ReadLine() (string, error) {
	fmt.Fprint(c.out, "> ")
	return c.readLine()
}

// Println writes a plain line to the console.
func (c *Console) Println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *Console) markdown(text string) string {
	if c.render == nil {
		return text
	}
	rendered, err := c.render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}

func (c *Console) status(text string) {
	if text == "" {
		return
	}
	fmt.Fprintln(c.out, termenv.String("· "+text).Faint().String())
}

func (c *Console) dim(text string) {
	fmt.Fprint(c.out, termenv.String(text).Faint().String())
}

func (c *Console) colored(text, hex string) string {
	return termenv.String(text).Foreground(c.profile.Color(hex)).String()
}
