package domain

import (
	"encoding/json"
	"testing"
)

func TestActionValid(t *testing.T) {
	tests := []struct {
		action Action
		want   bool
	}{
		{ActionGenerateTests, true},
		{ActionAddDocs, true},
		{ActionRefactor, true},
		{ActionChat, true},
		{Action("explain"), false},
		{Action(""), false},
	}

	for _, tt := range tests {
		if got := tt.action.Valid(); got != tt.want {
			t.Errorf("Action(%q).Valid() = %v, want %v", tt.action, got, tt.want)
		}
	}
}

func TestRequestContextAcceptsPartialPayloads(t *testing.T) {
	var rctx RequestContext
	payload := `{"selection": "func a() {}", "attachedContext": {"content": "x", "language": "go"}, "extraField": 1}`
	if err := json.Unmarshal([]byte(payload), &rctx); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if rctx.Selection != "func a() {}" {
		t.Errorf("Selection = %q, want %q", rctx.Selection, "func a() {}")
	}
	if rctx.AttachedContext == nil || rctx.AttachedContext.Language != "go" {
		t.Errorf("AttachedContext = %+v, want content/language populated", rctx.AttachedContext)
	}
	if rctx.FileContent != "" {
		t.Errorf("FileContent = %q, want empty for missing field", rctx.FileContent)
	}
}
