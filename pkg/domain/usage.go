package domain

import (
	"fmt"
	"sort"
	"strings"
)

// TokenUsage aggregates token counts reported by model calls.
type TokenUsage struct {
	Input     int `json:"input_tokens,omitempty"`
	Output    int `json:"output_tokens,omitempty"`
	Reasoning int `json:"reasoning_tokens,omitempty"`
	CacheRead int `json:"cache_read_tokens,omitempty"`
}

// Add accumulates another usage record into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.Input += other.Input
	u.Output += other.Output
	u.Reasoning += other.Reasoning
	u.CacheRead += other.CacheRead
}

// Total returns the combined input and output token count.
func (u TokenUsage) Total() int {
	return u.Input + u.Output
}

// IsZero reports whether no tokens have been recorded.
func (u TokenUsage) IsZero() bool {
	return u == TokenUsage{}
}

// String formats the usage for display, e.g. "1,234 (1,000 in, 234 out)".
func (u TokenUsage) String() string {
	if u.IsZero() {
		return "0"
	}
	details := []string{
		fmt.Sprintf("%s in", formatCount(u.Input)),
		fmt.Sprintf("%s out", formatCount(u.Output)),
	}
	if u.Reasoning > 0 {
		details = append(details, fmt.Sprintf("%s reasoning", formatCount(u.Reasoning)))
	}
	s := fmt.Sprintf("%s (%s)", formatCount(u.Total()), strings.Join(details, ", "))
	if u.CacheRead > 0 {
		s += fmt.Sprintf(" | cache: %s", formatCount(u.CacheRead))
	}
	return s
}

// UsageTracker accounts token usage across models. It keeps per-model
// lifetime totals (never reset) and a combined session counter that a
// rewind resets and recomputes from the remaining history.
//
// The tracker is owned by a single logical execution thread and is not
// safe for concurrent use.
type UsageTracker struct {
	perModel map[string]*TokenUsage
	session  TokenUsage
}

// NewUsageTracker creates an empty tracker.
func NewUsageTracker() *UsageTracker {
	return &UsageTracker{perModel: make(map[string]*TokenUsage)}
}

// Record accumulates usage reported by a call to the named model.
func (t *UsageTracker) Record(model string, usage TokenUsage) {
	if usage.IsZero() {
		return
	}
	total, ok := t.perModel[model]
	if !ok {
		total = &TokenUsage{}
		t.perModel[model] = total
	}
	total.Add(usage)
	t.session.Add(usage)
}

// Session returns the combined usage since the last reset.
func (t *UsageTracker) Session() TokenUsage {
	return t.session
}

// IsEmpty reports whether nothing has been recorded since the last reset.
func (t *UsageTracker) IsEmpty() bool {
	return t.session.IsZero()
}

// ResetSession clears the session counter and recomputes it from the
// assistant messages remaining in the history. Lifetime per-model totals
// are unaffected.
func (t *UsageTracker) ResetSession(history []*Message) {
	t.session = TokenUsage{}
	for _, m := range history {
		if m.Role == RoleAssistant && m.Usage != nil {
			t.session.Add(*m.Usage)
		}
	}
}

// FormatSession renders the session usage, or "" if nothing was recorded.
func (t *UsageTracker) FormatSession() string {
	if t.session.IsZero() {
		return ""
	}
	return "Tokens: " + t.session.String()
}

// FormatTotals renders per-model lifetime totals, or "" if nothing was
// recorded.
func (t *UsageTracker) FormatTotals() string {
	grand := 0
	for _, u := range t.perModel {
		grand += u.Total()
	}
	if grand == 0 {
		return ""
	}
	models := make([]string, 0, len(t.perModel))
	for name := range t.perModel {
		models = append(models, name)
	}
	sort.Strings(models)

	lines := []string{fmt.Sprintf("Total session tokens: %s", formatCount(grand))}
	for _, name := range models {
		u := t.perModel[name]
		if u.Total() == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", name, u.String()))
	}
	return strings.Join(lines, "\n")
}

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}
