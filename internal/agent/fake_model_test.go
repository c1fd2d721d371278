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
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"chai/internal/tools"
)

// scriptedStep is one model response: events followed by an optional error.
type scriptedStep struct {
	events    []Event
	createErr error
	recvErr   error
}

// fakeModel replays scripted steps and records every request.
type fakeModel struct {
	mu       sync.Mutex
	steps    []scriptedStep
	repeat   *scriptedStep
	requests []Request
}

func (m *fakeModel) Stream(ctx context.Context, req Request) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	var step scriptedStep
	switch {
	case len(m.steps) > 0:
		step = m.steps[0]
		m.steps = m.steps[1:]
	case m.repeat != nil:
		step = *m.repeat
	default:
		step = scriptedStep{events: []Event{NewTextEvent("done")}}
	}
	if step.createErr != nil {
		return nil, step.createErr
	}
	return &fakeStream{events: step.events, err: step.recvErr}, nil
}

func (m *fakeModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

type fakeStream struct {
	events []Event
	err    error
	closed bool
}

func (s *fakeStream) Recv() (Event, error) {
	if len(s.events) == 0 {
		if s.err != nil {
			return Event{}, s.err
		}
		return Event{}, io.EOF
	}
	event := s.events[0]
	s.events = s.events[1:]
	return event, nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

// fakeTools echoes arguments back and records dispatch order.
type fakeTools struct {
	mu      sync.Mutex
	calls   []tools.Invocation
	delay   time.Duration
	active  int
	maxSeen int
}

func (f *fakeTools) Specs() []tools.Spec {
	return []tools.Spec{{Name: "echo", Description: "echo", Parameters: map[string]interface{}{"type": "object"}}}
}

func (f *fakeTools) Dispatch(ctx context.Context, inv tools.Invocation) tools.Result {
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if inv.Name != "echo" {
		return tools.Result{CallID: inv.ID, Tool: inv.Name, Output: "Error: unknown tool", Err: errors.New("unknown tool")}
	}
	return tools.Result{CallID: inv.ID, Tool: inv.Name, Output: "echo:" + inv.Arguments}
}

func call(id, args string) Event {
	return NewToolCallEvent(tools.Invocation{ID: id, Name: "echo", Arguments: args})
}

// recordingObserver logs callbacks as short strings.
type recordingObserver struct {
	mu     sync.Mutex
	events []string
	errs   []error
}

func (o *recordingObserver) add(s string) {
	o.mu.Lock()
	o.events = append(o.events, s)
	o.mu.Unlock()
}

func (o *recordingObserver) OnTurnStart(input string) { o.add("start:" + input) }
func (o *recordingObserver) OnText(fragment string)   { o.add("text:" + fragment) }
func (o *recordingObserver) OnToolStart(call tools.Invocation) {
	o.add("tool:" + call.ID)
}
func (o *recordingObserver) OnToolResult(call tools.Invocation, result tools.Result) {
	o.add("result:" + call.ID)
}
func (o *recordingObserver) OnStepLimit(steps int) { o.add("limit") }
func (o *recordingObserver) OnError(err error) {
	o.mu.Lock()
	o.errs = append(o.errs, err)
	o.mu.Unlock()
	o.add("error")
}
func (o *recordingObserver) OnTurnEnd(result TurnResult) { o.add("end") }

func (o *recordingObserver) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return strings.Join(o.events, ",")
}

// linePrompter returns scripted lines, then io.EOF.
type linePrompter struct {
	lines []string
	calls int
}

func (p *linePrompter) Prompt(ctx context.Context) (string, error) {
	p.calls++
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}
