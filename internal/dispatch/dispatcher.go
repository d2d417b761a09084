// Package dispatch coordinates one request end to end: derive the effective
// code context, classify the command, route to the matching action handler
// and deliver the result.
//
// Two delivery contracts coexist. The rich surface returns a minimal ack
// from the RPC call and mirrors the full result in an asynchronous
// executeResult notification (legacy dual delivery). The plain surface
// skips classification and returns raw text, or an "ERROR: "-prefixed
// string on failure. Both are kept because different front ends depend on
// each.
package dispatch

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/aide-lsp/aide/internal/actions"
	"github.com/aide-lsp/aide/internal/domain"
	"github.com/aide-lsp/aide/internal/gateway"
)

// NotificationMethod is the method name of the legacy result notification.
const NotificationMethod = "executeResult"

// Classifier produces an intent for a raw command.
type Classifier interface {
	Classify(ctx context.Context, command string) domain.Intent
}

// Invoker executes one AI invocation.
type Invoker interface {
	Invoke(ctx context.Context, messages []domain.Message) (string, error)
}

// Notifier delivers an asynchronous notification to the client.
type Notifier interface {
	Notify(method string, params any) error
}

// ExecuteRequest is the rich-surface request envelope.
type ExecuteRequest struct {
	Command   string                `json:"command"`
	Context   domain.RequestContext `json:"context"`
	RequestID string                `json:"requestId,omitempty"`
}

// Ack is the minimal rich-surface RPC return value. The full result
// travels in the executeResult notification.
type Ack struct {
	Acknowledged bool   `json:"acknowledged"`
	RequestID    string `json:"requestId,omitempty"`
	Error        bool   `json:"error,omitempty"`
}

// Notification is the executeResult payload.
type Notification struct {
	RequestID string        `json:"requestId"`
	Result    domain.Result `json:"result"`
}

// Dispatcher routes requests through the classify-then-handle pipeline.
// It is stateless across requests; the single catch boundary for handler
// errors lives here.
type Dispatcher struct {
	classifier Classifier
	handlers   *actions.Handlers
	inv        Invoker
	logger     *slog.Logger
}

// New creates a dispatcher.
func New(classifier Classifier, handlers *actions.Handlers, inv Invoker, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{classifier: classifier, handlers: handlers, inv: inv, logger: logger}
}

// Execute runs the full pipeline for one rich-surface request, emits the
// executeResult notification and returns the ack for the RPC reply.
func (d *Dispatcher) Execute(ctx context.Context, req ExecuteRequest, notifier Notifier) Ack {
	requestID := req.RequestID
	if requestID == "" {
		requestID = "req-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	ctx = gateway.WithRequestID(ctx, requestID)

	rctx := req.Context
	code := rctx.Selection
	if code == "" {
		code = rctx.FileContent
	}
	// The attached context is an explicit caller override of both code and
	// language.
	if ac := rctx.AttachedContext; ac != nil && ac.Content != "" {
		code = ac.Content
		if ac.Language != "" {
			rctx.LanguageID = ac.Language
		}
	}

	in := d.classifier.Classify(ctx, req.Command)
	ctx = gateway.WithAction(ctx, string(in.Action))

	var data string
	var err error
	switch in.Action {
	case domain.ActionGenerateTests:
		data, err = d.handlers.GenerateTests(ctx, code, rctx)
	case domain.ActionAddDocs:
		data, err = d.handlers.AddDocs(ctx, code)
	case domain.ActionRefactor:
		instruction := in.Params.Instruction
		if instruction == "" {
			instruction = req.Command
		}
		data, err = d.handlers.Refactor(ctx, code, instruction)
	default:
		data, err = d.handlers.Chat(ctx, req.Command)
	}

	var result domain.Result
	if err != nil {
		d.logger.Error("request failed",
			slog.String("request_id", requestID),
			slog.String("action", string(in.Action)),
			slog.String("error", err.Error()))
		result = domain.Result{Success: false, Error: err.Error()}
	} else {
		result = domain.Result{Success: true, Data: data, Action: string(in.Action)}
	}

	if notifier != nil {
		if nerr := notifier.Notify(NotificationMethod, Notification{RequestID: requestID, Result: result}); nerr != nil {
			d.logger.Warn("failed to deliver result notification",
				slog.String("request_id", requestID),
				slog.String("error", nerr.Error()))
		}
	}

	if err != nil {
		return Ack{Acknowledged: true, Error: true}
	}
	return Ack{Acknowledged: true, RequestID: requestID}
}

// RunCommand is the plain surface: the raw instruction goes straight to a
// single AI invocation with no classification and no notification. The
// context object is accepted for wire compatibility; the instruction alone
// drives the call.
func (d *Dispatcher) RunCommand(ctx context.Context, prompt string, _ domain.RequestContext) string {
	ctx = gateway.WithAction(ctx, "command")
	text, err := d.inv.Invoke(ctx, []domain.Message{
		{Role: domain.RoleUser, Content: prompt},
	})
	if err != nil {
		d.logger.Error("command failed", slog.String("error", err.Error()))
		return "ERROR: " + err.Error()
	}
	return text
}
