package rpc

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestReadWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`)

	if err := WriteMessage(&buf, payload); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	got, err := ReadMessage(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("ReadMessage() = %q, want %q", got, payload)
	}
}

func TestReadMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "plain frame",
			input: "Content-Length: 2\r\n\r\n{}",
			want:  "{}",
		},
		{
			name:  "lowercase header name",
			input: "content-length: 2\r\n\r\n{}",
			want:  "{}",
		},
		{
			name:  "extra content-type header ignored",
			input: "Content-Length: 2\r\nContent-Type: application/vscode-jsonrpc; charset=utf-8\r\n\r\n{}",
			want:  "{}",
		},
		{
			name:    "missing content-length",
			input:   "Content-Type: application/json\r\n\r\n{}",
			wantErr: true,
		},
		{
			name:    "malformed header line",
			input:   "not a header\r\n\r\n{}",
			wantErr: true,
		},
		{
			name:    "non-numeric length",
			input:   "Content-Length: two\r\n\r\n{}",
			wantErr: true,
		},
		{
			name:    "truncated payload",
			input:   "Content-Length: 10\r\n\r\n{}",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadMessage(bufio.NewReader(strings.NewReader(tt.input)))
			if tt.wantErr {
				if err == nil {
					t.Fatal("ReadMessage() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadMessage() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("ReadMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadMessageSequence(t *testing.T) {
	var buf bytes.Buffer
	for _, payload := range []string{`{"id":1}`, `{"id":2}`} {
		if err := WriteMessage(&buf, []byte(payload)); err != nil {
			t.Fatalf("WriteMessage() error = %v", err)
		}
	}

	reader := bufio.NewReader(&buf)
	for _, want := range []string{`{"id":1}`, `{"id":2}`} {
		got, err := ReadMessage(reader)
		if err != nil {
			t.Fatalf("ReadMessage() error = %v", err)
		}
		if string(got) != want {
			t.Errorf("ReadMessage() = %q, want %q", got, want)
		}
	}
}

func TestReadMessageOversize(t *testing.T) {
	input := "Content-Length: 999999999\r\n\r\n"
	if _, err := ReadMessage(bufio.NewReader(strings.NewReader(input))); err == nil {
		t.Fatal("ReadMessage() expected error for oversize frame")
	}
}
