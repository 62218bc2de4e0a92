package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/ports"
)

type scrubStore struct {
	next     ports.HistoryStore
	patterns []*regexp.Regexp
}

// NewScrubMiddleware creates a middleware that masks content matching
// the given patterns before it reaches the backing store. Typical
// patterns cover API keys, bearer tokens, and email addresses.
func NewScrubMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.HistoryStore) ports.HistoryStore {
		return &scrubStore{next: next, patterns: patterns}
	}
}

func (s *scrubStore) Save(ctx context.Context, sessionID string, history []*domain.Message) error {
	// Clone before masking so the in-memory history the worker keeps
	// using stays intact.
	masked := make([]*domain.Message, len(history))
	for i, msg := range history {
		clone := msg.Clone()
		for j, block := range clone.Blocks {
			clone.Blocks[j].Text = s.mask(block.Text)
		}
		for j, call := range clone.ToolCalls {
			clone.ToolCalls[j].Args = s.maskMap(call.Args)
		}
		masked[i] = clone
	}
	return s.next.Save(ctx, sessionID, masked)
}

func (s *scrubStore) Load(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	return s.next.Load(ctx, sessionID)
}

func (s *scrubStore) Delete(ctx context.Context, sessionID string) error {
	return s.next.Delete(ctx, sessionID)
}

func (s *scrubStore) List(ctx context.Context) ([]string, error) {
	return s.next.List(ctx)
}

func (s *scrubStore) mask(text string) string {
	for _, p := range s.patterns {
		text = p.ReplaceAllString(text, "***")
	}
	return text
}

func (s *scrubStore) maskMap(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		switch value := v.(type) {
		case string:
			out[k] = s.mask(value)
		case map[string]any:
			out[k] = s.maskMap(value)
		default:
			out[k] = v
		}
	}
	return out
}
