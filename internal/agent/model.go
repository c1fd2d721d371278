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

package agent

import (
	"context"

	"chai/internal/tools"
)

// EventType identifies the kind of a streamed model event.
type EventType int

const (
	EventText EventType = iota
	EventToolCall
)

// Event is one ordered item of a model response.
type Event struct {
	Type EventType
	Text string
	Call *tools.Invocation
}

// NewTextEvent creates a text fragment event.
func NewTextEvent(text string) Event {
	return Event{Type: EventText, Text: text}
}

// NewToolCallEvent creates a completed tool call event.
func NewToolCallEvent(call tools.Invocation) Event {
	return Event{Type: EventToolCall, Call: &call}
}

// Request is everything the model sees for one step.
type Request struct {
	System string
	Turns  []Turn
	Tools  []tools.Spec
}

// Model is the remote language model service.
type Model interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Stream yields events until io.EOF.
type Stream interface {
	Recv() (Event, error)
	Close() error
}

// ToolDispatcher executes tool invocations requested by the model.
type ToolDispatcher interface {
	Specs() []tools.Spec
	Dispatch(ctx context.Context, inv tools.Invocation) tools.Result
}
