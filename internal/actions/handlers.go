// Package actions implements the task-specific prompt builders, one per
// taxonomy entry. Each handler issues exactly one AI invocation.
package actions

import (
	"context"
	"strings"

	"github.com/aide-lsp/aide/internal/domain"
)

// Invoker executes one AI invocation.
type Invoker interface {
	Invoke(ctx context.Context, messages []domain.Message) (string, error)
}

// Handlers bundles the action implementations over one invoker.
type Handlers struct {
	inv Invoker
}

// New creates the handler set.
func New(inv Invoker) *Handlers {
	return &Handlers{inv: inv}
}

const generateTestsPrompt = `You are an expert test engineer. Generate comprehensive unit tests for the code the user provides, using the standard testing framework for its language. Cover normal cases, edge cases and error paths. Return only code, with no explanations.`

const addDocsPrompt = `You are a documentation assistant. Add complete documentation comments to every function, class, type and public member of the code the user provides, following the documentation conventions of its language. Return the fully annotated code.`

const refactorPrompt = `You are a refactoring assistant. Improve the structure and readability of the code the user provides without changing its behavior. Return only the refactored code.`

// GenerateTests builds a test-generation prompt from code and the optional
// request context and runs one invocation. Fails when code is empty.
func (h *Handlers) GenerateTests(ctx context.Context, code string, rctx domain.RequestContext) (string, error) {
	if code == "" {
		return "", domain.ErrEmptyCode("No code context provided")
	}

	var sb strings.Builder
	sb.WriteString(generateTestsPrompt)
	if rctx.LanguageID != "" {
		sb.WriteString("\n\nThe code is written in ")
		sb.WriteString(rctx.LanguageID)
		sb.WriteString(".")
	}
	if rctx.ExistingTestContent != "" {
		sb.WriteString("\n\nAn existing test file follows; match its style, naming and conventions:\n")
		sb.WriteString(rctx.ExistingTestContent)
	}
	if rctx.FileStructureInfo != "" {
		sb.WriteString("\n\nAdditional context about the project structure:\n")
		sb.WriteString(rctx.FileStructureInfo)
	}

	return h.inv.Invoke(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: sb.String()},
		{Role: domain.RoleUser, Content: code},
	})
}

// AddDocs requests documentation comments for code. Fails when code is
// empty.
func (h *Handlers) AddDocs(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", domain.ErrEmptyCode("No code context provided")
	}
	return h.inv.Invoke(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: addDocsPrompt},
		{Role: domain.RoleUser, Content: code},
	})
}

// Refactor requests a rewrite of code following the free-text instruction.
// Fails when code is empty.
func (h *Handlers) Refactor(ctx context.Context, code, instruction string) (string, error) {
	if code == "" {
		return "", domain.ErrEmptyCode("No code context provided")
	}
	user := code
	if instruction != "" {
		user += "\n\nInstruction: " + instruction
	}
	return h.inv.Invoke(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: refactorPrompt},
		{Role: domain.RoleUser, Content: user},
	})
}

// Chat sends the raw command as a single user message with no system
// prompt. It is the default and has no code requirement.
func (h *Handlers) Chat(ctx context.Context, command string) (string, error) {
	return h.inv.Invoke(ctx, []domain.Message{
		{Role: domain.RoleUser, Content: command},
	})
}
