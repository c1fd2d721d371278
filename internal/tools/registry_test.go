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
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	apperrors "chai/internal/errors"
)

func echoTool(name string) *ToolDefinition {
	return &ToolDefinition{
		NameValue:        name,
		DescriptionValue: "echo the text argument",
		ParametersValue: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"text": map[string]interface{}{"type": "string"},
			},
			"required": []interface{}{"text"},
		},
		ValidateFunc: RequireStringArg("text", "missing or invalid 'text' parameter"),
		ExecuteFunc: func(ctx context.Context, args map[string]interface{}) Result {
			return Result{Output: args["text"].(string)}
		},
	}
}

func newTestRegistry(t *testing.T, tools ...Tool) *Registry {
	t.Helper()
	registry, err := NewRegistry(RegistryOptions{}, tools...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return registry
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(RegistryOptions{}, echoTool("echo"), echoTool("echo"))
	if err == nil {
		t.Fatal("expected duplicate tool error")
	}
	if apperrors.CodeOf(err) != apperrors.CodeConfig {
		t.Fatalf("expected config code, got %q", apperrors.CodeOf(err))
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	registry := newTestRegistry(t, echoTool("zeta"), echoTool("alpha"), echoTool("mid"))

	want := []string{"alpha", "mid", "zeta"}
	if got := registry.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if tools := registry.Tools(); len(tools) != 3 || tools[0].Name() != "alpha" {
		t.Fatalf("unexpected tools order")
	}
	if specs := registry.Specs(); len(specs) != 3 || specs[2].Name != "zeta" {
		t.Fatalf("unexpected specs order")
	}
	if _, ok := registry.Lookup("mid"); !ok {
		t.Fatal("expected lookup to succeed")
	}
	if _, ok := registry.Lookup("missing"); ok {
		t.Fatal("expected lookup to fail")
	}
}

func TestRegistryDispatch(t *testing.T) {
	registry := newTestRegistry(t, echoTool("echo"))

	result := registry.Dispatch(context.Background(), Invocation{ID: "call-1", Name: "echo", Arguments: `{"text":"hi"}`})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Output != "hi" || result.CallID != "call-1" || result.Tool != "echo" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRegistryDispatchAssignsCallID(t *testing.T) {
	registry := newTestRegistry(t, echoTool("echo"))

	result := registry.Dispatch(context.Background(), Invocation{Name: "echo", Arguments: `{"text":"hi"}`})
	if result.CallID == "" {
		t.Fatal("expected generated call id")
	}
}

func TestRegistryDispatchValidationFailures(t *testing.T) {
	registry := newTestRegistry(t, echoTool("echo"))

	tests := []struct {
		name     string
		inv      Invocation
		contains string
	}{
		{
			name:     "unknown tool",
			inv:      Invocation{Name: "does_not_exist", Arguments: `{}`},
			contains: "available: echo",
		},
		{
			name:     "invalid json",
			inv:      Invocation{Name: "echo", Arguments: `{"text": `},
			contains: "not a JSON object",
		},
		{
			name:     "json array",
			inv:      Invocation{Name: "echo", Arguments: `["hi"]`},
			contains: "not a JSON object",
		},
		{
			name:     "missing required",
			inv:      Invocation{Name: "echo", Arguments: `{}`},
			contains: "text",
		},
		{
			name:     "wrong type",
			inv:      Invocation{Name: "echo", Arguments: `{"text": 5}`},
			contains: "text",
		},
		{
			name:     "tool validation",
			inv:      Invocation{Name: "echo", Arguments: `{"text": "   "}`},
			contains: "missing or invalid 'text' parameter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := registry.Dispatch(context.Background(), tt.inv)
			if result.Err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(result.Err, ErrInvalidArguments) {
				t.Fatalf("expected ErrInvalidArguments, got %v", result.Err)
			}
			if apperrors.CodeOf(result.Err) != apperrors.CodeValidation {
				t.Fatalf("expected validation code, got %q", apperrors.CodeOf(result.Err))
			}
			if !strings.HasPrefix(result.Output, "Error: invalid arguments for ") {
				t.Fatalf("unexpected output %q", result.Output)
			}
			if !strings.Contains(result.Output, tt.contains) {
				t.Fatalf("expected output to contain %q, got %q", tt.contains, result.Output)
			}
		})
	}
}

func TestRegistryDispatchRecoversPanics(t *testing.T) {
	boom := &ToolDefinition{
		NameValue: "boom",
		ExecuteFunc: func(ctx context.Context, args map[string]interface{}) Result {
			panic("kaboom")
		},
	}
	registry := newTestRegistry(t, boom)

	result := registry.Dispatch(context.Background(), Invocation{ID: "c", Name: "boom"})
	if apperrors.CodeOf(result.Err) != apperrors.CodeToolExecution {
		t.Fatalf("expected tool_execution code, got %v", result.Err)
	}
	if !strings.Contains(result.Output, "kaboom") || result.CallID != "c" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRegistryDispatchSanitizesOutput(t *testing.T) {
	noisy := &ToolDefinition{
		NameValue: "noisy",
		ExecuteFunc: func(ctx context.Context, args map[string]interface{}) Result {
			return Result{Output: "\x1b[31mred\x1b[0m\x07 and more text"}
		},
	}
	registry, err := NewRegistry(RegistryOptions{OutputFilter: OutputFilterConfig{MaxChars: 8, StripANSI: true, StripControl: true}}, noisy)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	result := registry.Dispatch(context.Background(), Invocation{Name: "noisy"})
	want := "red and \n[output truncated to 8 characters]"
	if result.Output != want {
		t.Fatalf("expected %q, got %q", want, result.Output)
	}
}

func TestRegistryDispatchKeepsReportOutputPresent(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"ansi only", "\x1b[0m", NoOutputPlaceholder},
		{"control only", "\x07\x01", NoOutputPlaceholder},
		{"text kept", "\x1b[1mok\x1b[0m", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reporter := &ToolDefinition{
				NameValue: "reporter",
				ExecuteFunc: func(ctx context.Context, args map[string]interface{}) Result {
					report := ExecutionReport{Title: "cmd", Output: tt.output}
					return Result{Output: report.Output, Report: &report}
				},
			}
			registry, err := NewRegistry(RegistryOptions{OutputFilter: DefaultOutputFilterConfig()}, reporter)
			if err != nil {
				t.Fatalf("NewRegistry: %v", err)
			}

			result := registry.Dispatch(context.Background(), Invocation{Name: "reporter"})
			if result.Report.Output != tt.want {
				t.Fatalf("expected report output %q, got %q", tt.want, result.Report.Output)
			}
			if !strings.Contains(result.Output, `"output":"`+tt.want+`"`) {
				t.Fatalf("expected output field in %q", result.Output)
			}
		})
	}
}

func TestRegistryConcurrentDispatch(t *testing.T) {
	registry := newTestRegistry(t, echoTool("echo"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := registry.Dispatch(context.Background(), Invocation{Name: "echo", Arguments: `{"text":"x"}`})
			if result.Output != "x" {
				t.Errorf("unexpected output %q", result.Output)
			}
		}()
	}
	wg.Wait()
}
