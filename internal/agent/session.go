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
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "chai/internal/errors"
	"chai/internal/tools"
)

// DefaultMaxSteps bounds model round-trips per user turn.
const DefaultMaxSteps = 25

// State is the position of a Session in its turn cycle.
type State int

const (
	StateAwaitingInput State = iota
	StateStreaming
	StateDispatching
	StateIdle
)

func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "awaiting_input"
	case StateStreaming:
		return "streaming"
	case StateDispatching:
		return "dispatching"
	case StateIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Prompter supplies user input lines.
type Prompter interface {
	Prompt(ctx context.Context) (string, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context) (string, error)

func (f PrompterFunc) Prompt(ctx context.Context) (string, error) {
	return f(ctx)
}

// TurnResult summarizes one resolved user turn.
type TurnResult struct {
	Text             string
	Steps            int
	ToolCalls        int
	StepLimitReached bool
}

// Options configures a Session.
type Options struct {
	Model         Model
	Tools         ToolDispatcher
	SystemPrompt  string
	MaxSteps      int
	ParallelTools int
	Observer      Observer
	Logger        *zerolog.Logger
}

// Session drives the agent step loop for one conversation.
//
// Submit and Run must be called from a single goroutine; State, Len and
// Conversation may be read from anywhere.
type Session struct {
	id       string
	model    Model
	tools    ToolDispatcher
	system   string
	maxSteps int
	parallel int
	observer Observer
	logger   zerolog.Logger
	conv     Conversation

	mu    sync.Mutex
	state State
}

// NewSession creates a session. Model and Tools are required.
func NewSession(opts Options) (*Session, error) {
	if opts.Model == nil {
		return nil, apperrors.New(apperrors.CodeConfig, "agent session requires a model")
	}
	if opts.Tools == nil {
		return nil, apperrors.New(apperrors.CodeConfig, "agent session requires a tool dispatcher")
	}
	s := &Session{
		id:       uuid.NewString(),
		model:    opts.Model,
		tools:    opts.Tools,
		system:   opts.SystemPrompt,
		maxSteps: opts.MaxSteps,
		parallel: opts.ParallelTools,
		observer: opts.Observer,
		state:    StateAwaitingInput,
	}
	if s.maxSteps <= 0 {
		s.maxSteps = DefaultMaxSteps
	}
	if s.parallel <= 0 {
		s.parallel = 1
	}
	if s.observer == nil {
		s.observer = NopObserver{}
	}
	base := zerolog.Nop()
	if opts.Logger != nil {
		base = *opts.Logger
	}
	s.logger = base.With().Str("session_id", s.id).Logger()
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current loop state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Conversation returns a snapshot of the committed turns.
func (s *Session) Conversation() []Turn {
	return s.conv.Snapshot()
}

// Len returns the number of committed turns.
func (s *Session) Len() int {
	return s.conv.Len()
}

// Run reads lines from p until the user exits or ctx is cancelled. Both are
// clean exits and return nil. Service errors are reported through the
// observer and the loop keeps prompting.
func (s *Session) Run(ctx context.Context, p Prompter) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		s.setState(StateAwaitingInput)
		line, err := p.Prompt(ctx)
		if err != nil {
			if errors.Is(err, ErrExit) || errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if isExitCommand(input) {
			return nil
		}

		if _, err := s.Submit(ctx, input); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Debug().Err(err).Msg("turn failed")
		}
	}
}

func isExitCommand(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit":
		return true
	}
	return false
}

// Submit resolves one user turn: it appends the input and alternates model
// steps and tool dispatch until the model answers without tool calls or the
// step budget runs out.
func (s *Session) Submit(ctx context.Context, input string) (result TurnResult, err error) {
	s.conv.Append(Turn{Role: RoleUser, Content: input})
	s.observer.OnTurnStart(input)
	defer func() {
		s.setState(StateIdle)
		if err != nil {
			s.observer.OnError(err)
		}
		s.observer.OnTurnEnd(result)
	}()

	var pending []Turn
	var texts []string
	for step := 1; step <= s.maxSteps; step++ {
		result.Steps = step
		logger := s.logger.With().Int("step", step).Logger()

		s.setState(StateStreaming)
		text, calls, err := s.streamStep(ctx, pending)
		if err != nil {
			logger.Warn().Err(err).Msg("model step failed; discarding partial turn")
			return result, err
		}
		if text != "" {
			texts = append(texts, text)
			result.Text = strings.Join(texts, "\n")
		}
		pending = append(pending, Turn{Role: RoleAssistant, Content: text, ToolCalls: historyCalls(calls)})

		if len(calls) == 0 {
			s.conv.Append(pending...)
			logger.Debug().Int("tool_calls", result.ToolCalls).Msg("turn complete")
			return result, nil
		}

		s.setState(StateDispatching)
		results := s.dispatch(ctx, calls)
		for i, res := range results {
			pending = append(pending, Turn{
				Role:       RoleTool,
				Content:    res.Output,
				ToolCallID: calls[i].ID,
				ToolName:   calls[i].Name,
			})
		}
		result.ToolCalls += len(calls)

		if ctx.Err() != nil {
			return result, &ServiceError{Operation: "dispatch", Err: ctx.Err()}
		}
	}

	result.StepLimitReached = true
	s.conv.Append(pending...)
	s.logger.Info().Int("steps", s.maxSteps).Msg("step limit reached")
	s.observer.OnStepLimit(s.maxSteps)
	return result, nil
}

// historyCalls copies calls for the assistant turn, replacing malformed
// arguments with an empty object so the conversation stays valid JSON.
func historyCalls(calls []tools.Invocation) []tools.Invocation {
	if len(calls) == 0 {
		return nil
	}
	out := make([]tools.Invocation, len(calls))
	for i, call := range calls {
		if !json.Valid([]byte(call.Arguments)) {
			call.Arguments = "{}"
		}
		out[i] = call
	}
	return out
}

// streamStep performs one model round-trip over the committed turns plus the
// pending turns of the current user turn.
func (s *Session) streamStep(ctx context.Context, pending []Turn) (string, []tools.Invocation, error) {
	turns := s.conv.Snapshot()
	turns = append(turns, pending...)

	stream, err := s.model.Stream(ctx, Request{
		System: s.system,
		Turns:  turns,
		Tools:  s.tools.Specs(),
	})
	if err != nil {
		return "", nil, &ServiceError{Operation: "create_stream", Err: err}
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
			return "", nil, &ServiceError{Operation: "receive", Err: err}
		}
		switch event.Type {
		case EventText:
			if event.Text == "" {
				continue
			}
			text.WriteString(event.Text)
			s.observer.OnText(event.Text)
		case EventToolCall:
			if event.Call == nil {
				continue
			}
			call := *event.Call
			if call.ID == "" {
				call.ID = uuid.NewString()
			}
			calls = append(calls, call)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", nil, &ServiceError{Operation: "receive", Err: err}
	}
	return text.String(), calls, nil
}
