package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/aide-lsp/aide/internal/domain"
)

type fakeInvoker struct {
	response string
	err      error

	gotMessages []domain.Message
}

func (f *fakeInvoker) Invoke(ctx context.Context, messages []domain.Message) (string, error) {
	f.gotMessages = messages
	return f.response, f.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     domain.Intent
	}{
		{
			name:     "plain json",
			response: `{"action": "generateTests", "params": {}}`,
			want:     domain.Intent{Action: domain.ActionGenerateTests},
		},
		{
			name:     "refactor with instruction",
			response: `{"action": "refactor", "params": {"instruction": "simplify"}}`,
			want: domain.Intent{
				Action: domain.ActionRefactor,
				Params: domain.IntentParams{Instruction: "simplify"},
			},
		},
		{
			name:     "fenced json",
			response: "```json\n{\"action\": \"addJsDoc\", \"params\": {}}\n```",
			want:     domain.Intent{Action: domain.ActionAddDocs},
		},
		{
			name:     "prose instead of json falls back to chat",
			response: "I think the user wants tests.",
			want:     domain.ChatIntent(),
		},
		{
			name:     "unknown action falls back to chat",
			response: `{"action": "translate", "params": {}}`,
			want:     domain.ChatIntent(),
		},
		{
			name:     "empty action falls back to chat",
			response: `{"params": {}}`,
			want:     domain.ChatIntent(),
		},
		{
			name: "invocation failure falls back to chat",
			err:  errors.New("connection refused"),
			want: domain.ChatIntent(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&fakeInvoker{response: tt.response, err: tt.err}, nil)
			got := c.Classify(context.Background(), "do the thing")
			if got != tt.want {
				t.Errorf("Classify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassifySendsCommandAsUserMessage(t *testing.T) {
	inv := &fakeInvoker{response: `{"action": "chat"}`}
	c := New(inv, nil)

	c.Classify(context.Background(), "what does this do")

	if len(inv.gotMessages) != 2 {
		t.Fatalf("invoked with %d messages, want system + user", len(inv.gotMessages))
	}
	if inv.gotMessages[0].Role != domain.RoleSystem {
		t.Errorf("messages[0].Role = %q, want system", inv.gotMessages[0].Role)
	}
	if inv.gotMessages[1].Role != domain.RoleUser || inv.gotMessages[1].Content != "what does this do" {
		t.Errorf("messages[1] = %+v, want the raw command", inv.gotMessages[1])
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fences", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"single line fence", "```{\"a\":1}", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.input); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
