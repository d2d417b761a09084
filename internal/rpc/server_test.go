package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/aide-lsp/aide/internal/dispatch"
	"github.com/aide-lsp/aide/internal/domain"
	"github.com/aide-lsp/aide/internal/settings"
)

type fakeHandler struct {
	ack    dispatch.Ack
	result string

	gotExecute dispatch.ExecuteRequest
	gotPrompt  string
	gotContext domain.RequestContext
}

func (f *fakeHandler) Execute(ctx context.Context, req dispatch.ExecuteRequest, notifier dispatch.Notifier) dispatch.Ack {
	f.gotExecute = req
	notifier.Notify(dispatch.NotificationMethod, dispatch.Notification{
		RequestID: "req-1",
		Result:    domain.Result{Success: true, Data: f.result},
	})
	return f.ack
}

func (f *fakeHandler) RunCommand(ctx context.Context, prompt string, rctx domain.RequestContext) string {
	f.gotPrompt = prompt
	f.gotContext = rctx
	return f.result
}

// envelope covers both responses and notifications on the wire.
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Result  json.RawMessage `json:"result"`
	Params  json.RawMessage `json:"params"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func startServer(t *testing.T, handler Handler, store *settings.Store) (io.Writer, *bufio.Reader, func()) {
	t.Helper()
	if store == nil {
		store = settings.NewStore(settings.Settings{Provider: "openai", Model: "gpt-4o"})
	}

	clientConn, serverConn := net.Pipe()
	srv := NewServer(handler, store, nil, "test")

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.ServeConn(context.Background(), serverConn)
	}()

	cleanup := func() {
		clientConn.Close()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	}
	return clientConn, bufio.NewReader(clientConn), cleanup
}

func send(t *testing.T, w io.Writer, msg any) {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := WriteMessage(w, payload); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
}

func recv(t *testing.T, r *bufio.Reader) envelope {
	t.Helper()
	payload, err := ReadMessage(r)
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("unmarshal %q: %v", payload, err)
	}
	return env
}

func newRequest(id int, method string, params any) map[string]any {
	m := map[string]any{"jsonrpc": "2.0", "id": id, "method": method}
	if params != nil {
		m["params"] = params
	}
	return m
}

func TestInitialize(t *testing.T) {
	w, r, cleanup := startServer(t, &fakeHandler{}, nil)
	defer cleanup()

	send(t, w, newRequest(1, "initialize", map[string]any{"processId": 42}))
	env := recv(t, r)

	if env.Error != nil {
		t.Fatalf("initialize error = %+v", env.Error)
	}
	var result struct {
		Capabilities struct {
			ExecuteCommandProvider struct {
				Commands []string `json:"commands"`
			} `json:"executeCommandProvider"`
		} `json:"capabilities"`
		ServerInfo struct {
			Name string `json:"name"`
		} `json:"serverInfo"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.ServerInfo.Name != "aide" {
		t.Errorf("serverInfo.name = %q, want aide", result.ServerInfo.Name)
	}
	if len(result.Capabilities.ExecuteCommandProvider.Commands) != 1 ||
		result.Capabilities.ExecuteCommandProvider.Commands[0] != CommandName {
		t.Errorf("commands = %v, want [%s]", result.Capabilities.ExecuteCommandProvider.Commands, CommandName)
	}
}

func TestUpdateConfig(t *testing.T) {
	store := settings.NewStore(settings.Settings{Provider: "openai", APIKey: "sk-old", Model: "gpt-4o"})

	for _, method := range []string{"updateConfig", "configure"} {
		t.Run(method, func(t *testing.T) {
			w, r, cleanup := startServer(t, &fakeHandler{}, store)
			defer cleanup()

			send(t, w, newRequest(1, method, map[string]any{"provider": "claude", "apiKey": "sk-ant"}))
			env := recv(t, r)

			if env.Error != nil {
				t.Fatalf("%s error = %+v", method, env.Error)
			}
			var result map[string]bool
			if err := json.Unmarshal(env.Result, &result); err != nil {
				t.Fatalf("unmarshal result: %v", err)
			}
			if !result["success"] {
				t.Errorf("result = %v, want success true", result)
			}

			got := store.Snapshot()
			if got.Provider != "claude" || got.APIKey != "sk-ant" || got.Model != "gpt-4o" {
				t.Errorf("Snapshot() = %+v, want merged update", got)
			}
		})
	}
}

func TestExecuteObjectParams(t *testing.T) {
	handler := &fakeHandler{
		ack:    dispatch.Ack{Acknowledged: true, RequestID: "req-1"},
		result: "the answer",
	}
	w, r, cleanup := startServer(t, handler, nil)
	defer cleanup()

	send(t, w, newRequest(2, "execute", map[string]any{
		"command":   "explain this",
		"context":   map[string]any{"selection": "func a() {}"},
		"requestId": "req-1",
	}))

	// The result notification lands before the ack reply.
	note := recv(t, r)
	if note.Method != dispatch.NotificationMethod {
		t.Fatalf("first message method = %q, want %q", note.Method, dispatch.NotificationMethod)
	}
	var notification dispatch.Notification
	if err := json.Unmarshal(note.Params, &notification); err != nil {
		t.Fatalf("unmarshal notification: %v", err)
	}
	if notification.RequestID != "req-1" || notification.Result.Data != "the answer" {
		t.Errorf("notification = %+v", notification)
	}

	reply := recv(t, r)
	var ack dispatch.Ack
	if err := json.Unmarshal(reply.Result, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if !ack.Acknowledged || ack.RequestID != "req-1" {
		t.Errorf("ack = %+v", ack)
	}

	if handler.gotExecute.Command != "explain this" {
		t.Errorf("handler command = %q", handler.gotExecute.Command)
	}
	if handler.gotExecute.Context.Selection != "func a() {}" {
		t.Errorf("handler context = %+v", handler.gotExecute.Context)
	}
}

func TestExecuteBareStringParams(t *testing.T) {
	handler := &fakeHandler{ack: dispatch.Ack{Acknowledged: true}}
	w, r, cleanup := startServer(t, handler, nil)
	defer cleanup()

	send(t, w, newRequest(3, "execute", "explain channels"))
	recv(t, r) // notification
	env := recv(t, r)

	if env.Error != nil {
		t.Fatalf("execute error = %+v", env.Error)
	}
	if handler.gotExecute.Command != "explain channels" {
		t.Errorf("handler command = %q, want the bare string", handler.gotExecute.Command)
	}
}

func TestExecuteEmptyCommandEnvelope(t *testing.T) {
	handler := &fakeHandler{ack: dispatch.Ack{Acknowledged: true}}
	w, r, cleanup := startServer(t, handler, nil)
	defer cleanup()

	send(t, w, newRequest(11, "execute", map[string]any{
		"command": "",
		"context": map[string]any{"selection": "func a() {}"},
	}))
	recv(t, r) // notification
	env := recv(t, r)

	if env.Error != nil {
		t.Fatalf("execute error = %+v, want an empty command accepted", env.Error)
	}
	if handler.gotExecute.Command != "" {
		t.Errorf("handler command = %q, want empty", handler.gotExecute.Command)
	}
	if handler.gotExecute.Context.Selection != "func a() {}" {
		t.Errorf("handler context = %+v, want the envelope context", handler.gotExecute.Context)
	}
}

func TestExecuteCommandPositional(t *testing.T) {
	handler := &fakeHandler{result: "plain text result"}
	w, r, cleanup := startServer(t, handler, nil)
	defer cleanup()

	send(t, w, newRequest(4, "executeCommand", []any{
		"summarize this",
		map[string]any{"fileContent": "body", "languageId": "go"},
	}))
	env := recv(t, r)

	if env.Error != nil {
		t.Fatalf("executeCommand error = %+v", env.Error)
	}
	var result string
	if err := json.Unmarshal(env.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result != "plain text result" {
		t.Errorf("result = %q", result)
	}
	if handler.gotPrompt != "summarize this" {
		t.Errorf("handler prompt = %q", handler.gotPrompt)
	}
	if handler.gotContext.FileContent != "body" || handler.gotContext.LanguageID != "go" {
		t.Errorf("handler context = %+v", handler.gotContext)
	}
}

func TestWorkspaceExecuteCommandWrapper(t *testing.T) {
	handler := &fakeHandler{result: "wrapped result"}
	w, r, cleanup := startServer(t, handler, nil)
	defer cleanup()

	send(t, w, newRequest(5, "workspace/executeCommand", map[string]any{
		"command":   CommandName,
		"arguments": []any{"explain", map[string]any{}},
	}))
	env := recv(t, r)

	if env.Error != nil {
		t.Fatalf("workspace/executeCommand error = %+v", env.Error)
	}
	var result string
	if err := json.Unmarshal(env.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result != "wrapped result" {
		t.Errorf("result = %q", result)
	}
}

func TestWorkspaceExecuteCommandUnknownCommand(t *testing.T) {
	w, r, cleanup := startServer(t, &fakeHandler{}, nil)
	defer cleanup()

	send(t, w, newRequest(6, "workspace/executeCommand", map[string]any{
		"command":   "other.command",
		"arguments": []any{"x"},
	}))
	env := recv(t, r)

	if env.Error == nil || env.Error.Code != codeInvalidParams {
		t.Errorf("error = %+v, want invalid params", env.Error)
	}
}

func TestUnknownMethod(t *testing.T) {
	w, r, cleanup := startServer(t, &fakeHandler{}, nil)
	defer cleanup()

	send(t, w, newRequest(7, "textDocument/hover", nil))
	env := recv(t, r)

	if env.Error == nil || env.Error.Code != codeMethodNotFound {
		t.Errorf("error = %+v, want method not found", env.Error)
	}
}

func TestConnectionSurvivesBadRequest(t *testing.T) {
	handler := &fakeHandler{result: "still alive"}
	w, r, cleanup := startServer(t, handler, nil)
	defer cleanup()

	send(t, w, newRequest(8, "executeCommand", map[string]any{"unexpected": true}))
	if env := recv(t, r); env.Error == nil {
		t.Fatal("expected invalid params error")
	}

	send(t, w, newRequest(9, "executeCommand", []any{"hello"}))
	env := recv(t, r)
	if env.Error != nil {
		t.Fatalf("follow-up request failed: %+v", env.Error)
	}
}

func TestShutdownAndExit(t *testing.T) {
	w, r, cleanup := startServer(t, &fakeHandler{}, nil)
	defer cleanup()

	send(t, w, newRequest(10, "shutdown", nil))
	env := recv(t, r)
	if env.Error != nil {
		t.Fatalf("shutdown error = %+v", env.Error)
	}

	send(t, w, map[string]any{"jsonrpc": "2.0", "method": "exit"})
	if _, err := ReadMessage(r); err == nil {
		t.Error("expected the connection to close after exit")
	}
}
