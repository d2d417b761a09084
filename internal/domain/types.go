// Package domain defines the canonical types shared across the assistant:
// provider-neutral messages, intent classification results, request context
// supplied by editor front ends, and per-request results.
package domain

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single provider-neutral chat message. Adapters reshape
// sequences of these into whatever their backend expects.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Action is one entry of the fixed intent taxonomy. The string values are
// part of the wire surface and must not change.
type Action string

const (
	ActionGenerateTests Action = "generateTests"
	ActionAddDocs       Action = "addJsDoc"
	ActionRefactor      Action = "refactor"
	ActionChat          Action = "chat"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionGenerateTests, ActionAddDocs, ActionRefactor, ActionChat:
		return true
	}
	return false
}

// IntentParams carries optional parameters extracted by the classifier.
type IntentParams struct {
	Instruction string `json:"instruction,omitempty"`
}

// Intent is the classified action for a free-text command.
type Intent struct {
	Action Action       `json:"action"`
	Params IntentParams `json:"params"`
}

// ChatIntent is the safe default used whenever classification cannot
// produce a well-formed intent.
func ChatIntent() Intent {
	return Intent{Action: ActionChat}
}

// AttachedContext is an explicit code override supplied by the caller.
// When present and non-empty it takes precedence over the top-level
// selection/fileContent/languageId fields.
type AttachedContext struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

// RequestContext is the caller-supplied bag of optional source context.
// Missing fields are treated as empty strings; no shape validation is done
// beyond presence checks.
type RequestContext struct {
	Selection           string           `json:"selection,omitempty"`
	FileContent         string           `json:"fileContent,omitempty"`
	URI                 string           `json:"uri,omitempty"`
	LanguageID          string           `json:"languageId,omitempty"`
	ExistingTestContent string           `json:"existingTestContent,omitempty"`
	FileStructureInfo   string           `json:"fileStructureInfo,omitempty"`
	AttachedContext     *AttachedContext `json:"attachedContext,omitempty"`
}

// Result is the structured outcome of one request. Exactly one of Data or
// Error is meaningful depending on Success.
type Result struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Action  string `json:"action,omitempty"`
}
