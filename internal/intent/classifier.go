// Package intent classifies a free-text command into the fixed action
// taxonomy using one auxiliary model call. Classification is an
// optimization, not a requirement: any failure degrades to the chat action
// and never blocks the pipeline.
package intent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/aide-lsp/aide/internal/domain"
)

// Invoker executes one AI invocation.
type Invoker interface {
	Invoke(ctx context.Context, messages []domain.Message) (string, error)
}

const systemPrompt = `You are an intent classifier for a coding assistant.
Classify the user's command into exactly one action:
- "generateTests": the user wants unit tests written for code
- "addJsDoc": the user wants documentation comments added to code
- "refactor": the user wants code restructured or improved; include the
  user's request as an "instruction" field in params
- "chat": anything else, including questions and explanations

Respond with strict JSON only, no prose, matching:
{"action": "<action>", "params": {"instruction": "<optional>"}}`

// Classifier turns raw commands into intents.
type Classifier struct {
	inv    Invoker
	logger *slog.Logger
}

// New creates a classifier over the given invoker.
func New(inv Invoker, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{inv: inv, logger: logger}
}

// Classify returns the intent for command. It never fails: invocation
// errors, malformed JSON and unknown actions all fall back to chat.
func (c *Classifier) Classify(ctx context.Context, command string) domain.Intent {
	raw, err := c.inv.Invoke(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: command},
	})
	if err != nil {
		c.logger.Debug("classification call failed, defaulting to chat",
			slog.String("error", err.Error()))
		return domain.ChatIntent()
	}

	var parsed domain.Intent
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		c.logger.Debug("classifier output is not valid JSON, defaulting to chat")
		return domain.ChatIntent()
	}
	if !parsed.Action.Valid() {
		c.logger.Debug("classifier returned unknown action, defaulting to chat",
			slog.String("action", string(parsed.Action)))
		return domain.ChatIntent()
	}
	return parsed
}

// stripFences removes a leading and trailing Markdown code-fence line
// (``` or ```json) when present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		return strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
