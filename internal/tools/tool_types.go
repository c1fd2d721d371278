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
	"time"
)

// Tool represents a callable tool/function with validation and execution hooks.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Validate(args map[string]interface{}) error
	Execute(ctx context.Context, args map[string]interface{}) Result
}

// ExecutorFunc runs a tool against already validated arguments.
type ExecutorFunc func(ctx context.Context, args map[string]interface{}) Result

// Spec is the model-facing description of a tool.
type Spec struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Invocation is a single tool call requested by the model.
type Invocation struct {
	ID        string
	Name      string
	Arguments string
}

// Result is the outcome of dispatching one Invocation.
type Result struct {
	CallID   string
	Tool     string
	Output   string
	Report   *ExecutionReport
	Change   *FileChange
	Err      error
	Duration time.Duration
}

// Failed reports whether the tool call ended in an error.
func (r Result) Failed() bool {
	return r.Err != nil
}

func errorResult(err error, output string) Result {
	return Result{Output: output, Err: err}
}

// ToolDefinition provides a default implementation of Tool.
type ToolDefinition struct {
	NameValue        string
	DescriptionValue string
	ParametersValue  map[string]interface{}
	ExecuteFunc      ExecutorFunc
	ValidateFunc     ValidationRule
}

func (t *ToolDefinition) Name() string {
	return t.NameValue
}

func (t *ToolDefinition) Description() string {
	return t.DescriptionValue
}

func (t *ToolDefinition) Parameters() map[string]interface{} {
	return t.ParametersValue
}

func (t *ToolDefinition) Execute(ctx context.Context, args map[string]interface{}) Result {
	if t.ExecuteFunc == nil {
		return Result{}
	}
	return t.ExecuteFunc(ctx, args)
}

func (t *ToolDefinition) Validate(args map[string]interface{}) error {
	if t.ValidateFunc == nil {
		return nil
	}
	return t.ValidateFunc(args)
}
