// Package rpc exposes the dispatcher and the settings store as JSON-RPC
// methods over an LSP-style framed byte stream (stdio or a TCP socket).
//
// The method names, parameter shapes and the executeResult notification are
// a compatibility surface consumed by existing editor front ends and must
// stay stable.
package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/aide-lsp/aide/internal/dispatch"
	"github.com/aide-lsp/aide/internal/domain"
	"github.com/aide-lsp/aide/internal/settings"
)

// CommandName is the fixed command id accepted by workspace/executeCommand.
const CommandName = "aide.execute"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
)

// Handler is the request-processing side of the server.
type Handler interface {
	Execute(ctx context.Context, req dispatch.ExecuteRequest, notifier dispatch.Notifier) dispatch.Ack
	RunCommand(ctx context.Context, prompt string, rctx domain.RequestContext) string
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *responseError  `json:"error,omitempty"`
}

type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Server owns the connection lifecycle. Each request is handled on its own
// goroutine; response writes are serialized per connection.
type Server struct {
	handler  Handler
	settings *settings.Store
	logger   *slog.Logger
	version  string
}

// NewServer creates a server.
func NewServer(handler Handler, st *settings.Store, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{handler: handler, settings: st, logger: logger, version: version}
}

// Conn is one framed JSON-RPC connection. It implements dispatch.Notifier.
type Conn struct {
	rw      io.ReadWriteCloser
	writeMu sync.Mutex
}

// Notify sends a fire-and-forget notification.
func (c *Conn) Notify(method string, params any) error {
	return c.write(notification{JSONRPC: "2.0", Method: method, Params: params})
}

func (c *Conn) reply(id json.RawMessage, result any) error {
	return c.write(response{JSONRPC: "2.0", ID: id, Result: result})
}

func (c *Conn) replyError(id json.RawMessage, code int, message string) error {
	return c.write(response{JSONRPC: "2.0", ID: id, Error: &responseError{Code: code, Message: message}})
}

func (c *Conn) write(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteMessage(c.rw, payload)
}

// ServeConn processes messages from rw until the client exits or the
// stream closes. Request failures never terminate the connection.
func (s *Server) ServeConn(ctx context.Context, rw io.ReadWriteCloser) error {
	conn := &Conn{rw: rw}
	reader := bufio.NewReader(rw)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		payload, err := ReadMessage(reader)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		var req request
		if err := json.Unmarshal(payload, &req); err != nil {
			s.logger.Warn("dropping unparseable message", slog.String("error", err.Error()))
			conn.replyError(nil, codeParseError, "parse error")
			continue
		}

		switch req.Method {
		case "exit":
			rw.Close()
			return nil
		case "initialized", "$/cancelRequest":
			// Lifecycle notifications with nothing to do.
			continue
		}

		if req.ID == nil {
			s.logger.Debug("ignoring notification", slog.String("method", req.Method))
			continue
		}

		wg.Add(1)
		go func(req request) {
			defer wg.Done()
			s.handle(ctx, conn, req)
		}(req)
	}
}

func (s *Server) handle(ctx context.Context, conn *Conn, req request) {
	switch req.Method {
	case "initialize":
		conn.reply(req.ID, map[string]any{
			"capabilities": map[string]any{
				"executeCommandProvider": map[string]any{
					"commands": []string{CommandName},
				},
			},
			"serverInfo": map[string]any{"name": "aide", "version": s.version},
		})

	case "shutdown":
		conn.reply(req.ID, nil)

	case "updateConfig", "configure":
		var partial settings.Partial
		if err := json.Unmarshal(req.Params, &partial); err != nil {
			conn.replyError(req.ID, codeInvalidParams, "invalid configuration payload")
			return
		}
		s.settings.Apply(partial)
		s.logger.Info("configuration updated")
		conn.reply(req.ID, map[string]bool{"success": true})

	case "execute":
		execReq, err := decodeExecuteParams(req.Params)
		if err != nil {
			conn.replyError(req.ID, codeInvalidParams, err.Error())
			return
		}
		ack := s.handler.Execute(ctx, execReq, conn)
		conn.reply(req.ID, ack)

	case "executeCommand", "workspace/executeCommand":
		prompt, rctx, err := decodeCommandParams(req.Params)
		if err != nil {
			conn.replyError(req.ID, codeInvalidParams, err.Error())
			return
		}
		conn.reply(req.ID, s.handler.RunCommand(ctx, prompt, rctx))

	default:
		conn.replyError(req.ID, codeMethodNotFound, "method not found: "+req.Method)
	}
}

// decodeExecuteParams accepts either the {command, context, requestId}
// envelope or a bare string carrying just the command. An envelope with an
// empty command is still an envelope; the pipeline treats it as chat.
func decodeExecuteParams(params json.RawMessage) (dispatch.ExecuteRequest, error) {
	var command string
	if err := json.Unmarshal(params, &command); err == nil {
		return dispatch.ExecuteRequest{Command: command}, nil
	}
	var req dispatch.ExecuteRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return req, errors.New("expected an execute envelope or a command string")
	}
	return req, nil
}

// decodeCommandParams accepts positional [prompt, context] arguments,
// either directly or inside an LSP ExecuteCommandParams wrapper.
func decodeCommandParams(params json.RawMessage) (string, domain.RequestContext, error) {
	var wrapper struct {
		Command   string            `json:"command"`
		Arguments []json.RawMessage `json:"arguments"`
	}
	args := []json.RawMessage{}
	if err := json.Unmarshal(params, &wrapper); err == nil && wrapper.Command != "" {
		if wrapper.Command != CommandName {
			return "", domain.RequestContext{}, errors.New("unknown command: " + wrapper.Command)
		}
		args = wrapper.Arguments
	} else if err := json.Unmarshal(params, &args); err != nil {
		return "", domain.RequestContext{}, errors.New("expected [prompt, context] arguments")
	}

	if len(args) == 0 {
		return "", domain.RequestContext{}, errors.New("missing prompt argument")
	}

	var prompt string
	if err := json.Unmarshal(args[0], &prompt); err != nil {
		return "", domain.RequestContext{}, errors.New("prompt must be a string")
	}

	var rctx domain.RequestContext
	if len(args) > 1 {
		// A malformed context object is ignored rather than rejected; the
		// plain surface treats it as advisory.
		_ = json.Unmarshal(args[1], &rctx)
	}
	return prompt, rctx, nil
}

// ListenAndServe accepts TCP connections on addr and serves each one.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.logger.Info("listening", slog.String("addr", addr))
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go func() {
			defer conn.Close()
			if err := s.ServeConn(ctx, conn); err != nil {
				s.logger.Error("connection failed", slog.String("error", err.Error()))
			}
		}()
	}
}
