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
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"chai/internal/agent"
	"chai/internal/tools"
)

const unknownToolName = "unknown_tool"

// chunkReceiver is the part of *openai.ChatCompletionStream the adapter needs.
type chunkReceiver interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
}

// eventStream turns streamed completion chunks into agent events. Text is
// forwarded as it arrives; tool calls are assembled from their fragments and
// emitted once the stream is exhausted.
type eventStream struct {
	recv    chunkReceiver
	closeFn func()

	pending     []agent.Event
	toolCalls   map[string]*openai.ToolCall
	argBuilders map[string]*strings.Builder
	order       []string
	lastKey     string
	done        bool
	closed      bool
}

func newEventStream(recv chunkReceiver, closeFn func()) *eventStream {
	return &eventStream{
		recv:        recv,
		closeFn:     closeFn,
		toolCalls:   make(map[string]*openai.ToolCall),
		argBuilders: make(map[string]*strings.Builder),
	}
}

// Recv returns the next event, or io.EOF after the last tool call.
func (s *eventStream) Recv() (agent.Event, error) {
	for {
		if len(s.pending) > 0 {
			event := s.pending[0]
			s.pending = s.pending[1:]
			return event, nil
		}
		if s.done {
			return agent.Event{}, io.EOF
		}

		response, err := s.recv.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			for _, call := range s.finalize() {
				s.pending = append(s.pending, agent.NewToolCallEvent(call))
			}
			continue
		}
		if err != nil {
			return agent.Event{}, &StreamError{Operation: "receive_chunk", Err: err}
		}
		if len(response.Choices) == 0 {
			continue
		}

		delta := response.Choices[0].Delta
		for _, tc := range delta.ToolCalls {
			s.accumulate(tc)
		}
		if delta.Content != "" {
			return agent.NewTextEvent(delta.Content), nil
		}
	}
}

// Close releases the underlying HTTP stream.
func (s *eventStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	releaseBuilders(s.argBuilders)
	s.argBuilders = nil
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// toolCallKey groups fragments of one call. Providers send the index on every
// fragment and the ID only on the first; fragments with neither continue the
// previous call.
func (s *eventStream) toolCallKey(tc openai.ToolCall) string {
	switch {
	case tc.Index != nil:
		return fmt.Sprintf("index:%d", *tc.Index)
	case tc.ID != "":
		return "id:" + tc.ID
	case s.lastKey != "":
		return s.lastKey
	default:
		return "index:0"
	}
}

// accumulate merges an incremental tool call delta into the stored call.
func (s *eventStream) accumulate(tc openai.ToolCall) {
	key := s.toolCallKey(tc)
	s.lastKey = key

	entry, ok := s.toolCalls[key]
	if !ok {
		entry = &openai.ToolCall{Index: tc.Index, Type: tc.Type}
		s.toolCalls[key] = entry
		s.order = append(s.order, key)
	}
	if entry.ID == "" && tc.ID != "" {
		entry.ID = tc.ID
	}
	if entry.Function.Name == "" && tc.Function.Name != "" {
		entry.Function.Name = tc.Function.Name
	}

	builder, ok := s.argBuilders[key]
	if !ok {
		builder = getBuilder()
		s.argBuilders[key] = builder
	}
	builder.WriteString(tc.Function.Arguments)
}

// finalize returns completed calls in index order with usable names and IDs.
// Malformed arguments are passed through so dispatch can report them.
func (s *eventStream) finalize() []tools.Invocation {
	keys := append([]string(nil), s.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := s.toolCalls[keys[i]].Index, s.toolCalls[keys[j]].Index
		if a == nil || b == nil {
			return false
		}
		return *a < *b
	})

	calls := make([]tools.Invocation, 0, len(keys))
	for _, key := range keys {
		call := s.toolCalls[key]
		rawArgs := ""
		if builder, ok := s.argBuilders[key]; ok {
			rawArgs = builder.String()
		}
		trimmed := strings.TrimSpace(rawArgs)

		// Drop nameless + empty-arg tool calls (often stray/unsolicited).
		if call.Function.Name == "" && trimmed == "" {
			continue
		}

		args := rawArgs
		if trimmed == "" {
			args = "{}"
		}
		name := call.Function.Name
		if name == "" {
			name = unknownToolName
		}
		id := call.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		calls = append(calls, tools.Invocation{ID: id, Name: name, Arguments: args})
	}
	return calls
}
