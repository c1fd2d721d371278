// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"chai/internal/agent"
	"chai/internal/config"
	"chai/internal/tools"
)

// sseServer serves scripted chat completion streams, one per request.
type sseServer struct {
	t         *testing.T
	mu        sync.Mutex
	responses [][]string
	requests  []map[string]interface{}
	status    int
}

func (s *sseServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}
	body, _ := io.ReadAll(r.Body)
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		s.t.Errorf("invalid request body: %v", err)
	}

	s.mu.Lock()
	s.requests = append(s.requests, payload)
	status := s.status
	var chunks []string
	if len(s.responses) > 0 {
		chunks = s.responses[0]
		s.responses = s.responses[1:]
	}
	s.mu.Unlock()

	if status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, `{"error":{"message":"upstream failure","type":"server_error"}}`)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for _, chunk := range chunks {
		fmt.Fprintf(w, "data: %s\n\n", chunk)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func deltaChunk(delta string) string {
	return `{"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"test-model","choices":[{"index":0,"delta":` + delta + `}]}`
}

func newTestClient(t *testing.T, server *sseServer) *Client {
	t.Helper()
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	temperature := float32(0.2)
	maxTokens := 256
	cfg := config.DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.APIURL = ts.URL + "/v1"
	cfg.Model = "test-model"
	cfg.Temperature = &temperature
	cfg.MaxTokens = &maxTokens
	return NewClient(cfg, nil)
}

func TestClientStreamsTextAndToolCalls(t *testing.T) {
	server := &sseServer{t: t, responses: [][]string{{
		deltaChunk(`{"role":"assistant","content":"Hel"}`),
		deltaChunk(`{"content":"lo"}`),
		deltaChunk(`{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"read","arguments":"{\"filePath\""}}]}`),
		deltaChunk(`{"tool_calls":[{"index":0,"function":{"arguments":":\"a.txt\"}"}}]}`),
	}}}
	client := newTestClient(t, server)

	stream, err := client.Stream(context.Background(), agent.Request{
		System: "be brief",
		Turns: []agent.Turn{
			{Role: agent.RoleUser, Content: "show a.txt"},
		},
		Tools: []tools.Spec{{Name: "read", Description: "read a file", Parameters: map[string]interface{}{"type": "object"}}},
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	var text strings.Builder
	var calls []tools.Invocation
	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		switch event.Type {
		case agent.EventText:
			text.WriteString(event.Text)
		case agent.EventToolCall:
			calls = append(calls, *event.Call)
		}
	}

	if text.String() != "Hello" {
		t.Fatalf("expected Hello, got %q", text.String())
	}
	if len(calls) != 1 || calls[0].ID != "call_1" || calls[0].Name != "read" || calls[0].Arguments != `{"filePath":"a.txt"}` {
		t.Fatalf("unexpected tool calls %+v", calls)
	}

	server.mu.Lock()
	req := server.requests[0]
	server.mu.Unlock()
	if req["model"] != "test-model" || req["stream"] != true || req["max_tokens"] != float64(256) {
		t.Fatalf("unexpected request %v", req)
	}
	messages := req["messages"].([]interface{})
	if first := messages[0].(map[string]interface{}); first["role"] != "system" || first["content"] != "be brief" {
		t.Fatalf("expected system prompt first, got %v", first)
	}
	toolDefs := req["tools"].([]interface{})
	fn := toolDefs[0].(map[string]interface{})["function"].(map[string]interface{})
	if fn["name"] != "read" {
		t.Fatalf("unexpected tool definition %v", fn)
	}
}

func TestClientStreamCreateError(t *testing.T) {
	server := &sseServer{t: t, status: http.StatusInternalServerError}
	client := newTestClient(t, server)

	_, err := client.Stream(context.Background(), agent.Request{Turns: []agent.Turn{{Role: agent.RoleUser, Content: "hi"}}})
	var streamErr *StreamError
	if !errors.As(err, &streamErr) || streamErr.Operation != "create_stream" {
		t.Fatalf("expected create_stream error, got %v", err)
	}
}

func TestToMessages(t *testing.T) {
	turns := []agent.Turn{
		{Role: agent.RoleUser, Content: "hi"},
		{Role: agent.RoleAssistant, Content: "checking", ToolCalls: []tools.Invocation{{ID: "c1", Name: "bash", Arguments: `{"command":"ls"}`}}},
		{Role: agent.RoleTool, Content: "a.txt", ToolCallID: "c1", ToolName: "bash"},
		{Role: agent.RoleTool, Content: "orphan", ToolCallID: "c2"},
	}

	messages := toMessages("", turns)
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages without system prompt, got %d", len(messages))
	}
	if messages[1].ToolCalls[0].ID != "c1" || messages[1].ToolCalls[0].Function.Arguments != `{"command":"ls"}` {
		t.Fatalf("unexpected assistant message %+v", messages[1])
	}
	if messages[2].ToolCallID != "c1" || messages[2].Name != "bash" || messages[2].Role != "tool" {
		t.Fatalf("unexpected tool message %+v", messages[2])
	}
	if messages[3].Name != unknownToolName {
		t.Fatalf("expected unknown tool name, got %q", messages[3].Name)
	}
}
