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

package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "chai/internal/errors"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	OutputFilter OutputFilterConfig
	Logger       *zerolog.Logger
}

type registeredTool struct {
	tool   Tool
	schema *argumentSchema
}

// Registry is the fixed set of tools offered to the model. It is built once
// and never mutated, so it is safe for concurrent use.
type Registry struct {
	tools  map[string]registeredTool
	names  []string
	filter OutputFilterConfig
	logger zerolog.Logger
}

// NewRegistry builds a registry from tools. Duplicate or empty names and
// uncompilable parameter schemas are rejected.
func NewRegistry(opts RegistryOptions, tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools:  make(map[string]registeredTool, len(tools)),
		filter: opts.OutputFilter.normalize(),
		logger: zerolog.Nop(),
	}
	if opts.Logger != nil {
		r.logger = opts.Logger.With().Str("component", "tools").Logger()
	}

	for _, tool := range tools {
		if tool == nil {
			continue
		}
		name := tool.Name()
		if strings.TrimSpace(name) == "" {
			return nil, apperrors.New(apperrors.CodeConfig, "tool name must not be empty")
		}
		if _, exists := r.tools[name]; exists {
			return nil, apperrors.New(apperrors.CodeConfig, fmt.Sprintf("duplicate tool %q", name))
		}
		schema, err := compileArgumentSchema(tool.Parameters())
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, fmt.Sprintf("tool %q", name), err)
		}
		r.tools[name] = registeredTool{tool: tool, schema: schema}
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Tools returns the tools sorted by name.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.tools[name].tool)
	}
	return out
}

// Specs returns the model-facing tool descriptions sorted by name.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.names))
	for _, name := range r.names {
		tool := r.tools[name].tool
		out = append(out, Spec{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return out
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	entry, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return entry.tool, true
}

// Dispatch validates and executes one invocation. It never panics and always
// returns a Result whose Output is safe to append to the conversation.
func (r *Registry) Dispatch(ctx context.Context, inv Invocation) (result Result) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	start := time.Now()
	logger := r.logger.With().Str("tool", inv.Name).Str("call_id", inv.ID).Logger()

	defer func() {
		if recovered := recover(); recovered != nil {
			err := NewToolExecutionError(inv.Name, "execute", fmt.Errorf("panic: %v", recovered))
			logger.Error().Interface("panic", recovered).Msg("tool panicked")
			result = Result{Output: fmt.Sprintf("Error: %v", err), Err: err}
		}
		result.CallID = inv.ID
		result.Tool = inv.Name
		result.Duration = time.Since(start)
		r.finalize(&result)
		event := logger.Debug()
		if result.Err != nil {
			event = logger.Warn().Err(result.Err)
		}
		if result.Report != nil {
			event = event.Int("exit_code", result.Report.ExitCode)
		}
		event.Int64("duration_ms", result.Duration.Milliseconds()).Msg("tool call finished")
	}()

	entry, ok := r.tools[inv.Name]
	if !ok {
		err := newValidationError(inv.Name, fmt.Sprintf("%v: %q (available: %s)", ErrToolNotFound, inv.Name, strings.Join(r.names, ", ")))
		return Result{Output: fmt.Sprintf("Error: %v", err), Err: err}
	}

	args, err := parseToolArgs(inv.Arguments)
	if err != nil {
		verr := newValidationError(inv.Name, err.Error())
		return Result{Output: fmt.Sprintf("Error: %v", verr), Err: verr}
	}

	details, err := entry.schema.Check(args)
	if err != nil {
		verr := newValidationError(inv.Name, err.Error())
		return Result{Output: fmt.Sprintf("Error: %v", verr), Err: verr}
	}
	if len(details) > 0 {
		verr := newValidationError(inv.Name, details...)
		return Result{Output: fmt.Sprintf("Error: %v", verr), Err: verr}
	}
	if err := entry.tool.Validate(args); err != nil {
		verr := newValidationError(inv.Name, err.Error())
		return Result{Output: fmt.Sprintf("Error: %v", verr), Err: verr}
	}

	logger.Debug().Msg("executing tool")
	return entry.tool.Execute(ctx, args)
}

func (r *Registry) finalize(result *Result) {
	if result.Report != nil {
		result.Report.Output = r.filter.Apply(result.Report.Output)
		if result.Report.Output == "" {
			result.Report.Output = NoOutputPlaceholder
		}
		result.Output = result.Report.String()
		return
	}
	result.Output = r.filter.Apply(result.Output)
}
