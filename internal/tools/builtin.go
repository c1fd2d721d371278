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
	"fmt"
	"strings"

	apperrors "chai/internal/errors"
	"chai/internal/paths"
	"chai/internal/textpatch"
)

// Built-in tool names.
const (
	ReadToolName      = "read"
	WriteToolName     = "write"
	ApplyDiffToolName = "apply_diff"
	BashToolName      = "bash"
)

const (
	readDescription  = "Read the contents of a file from the filesystem"
	writeDescription = "Write content to a file on the filesystem. " +
		"Use this for creating new files or completely replacing file contents. " +
		"For editing existing files, prefer using apply_diff instead."
	applyDiffDescription = "Apply a diff to an existing file by replacing specific content. " +
		"This is more efficient than rewriting entire files. " +
		"Provide the exact text to find (old_string) and what to replace it with (new_string)."
	bashDescription = "Execute shell commands on the system"
)

type readArgs struct {
	FilePath string `json:"filePath" jsonschema:"description=The path to the file to read" validate:"required"`
}

type writeArgs struct {
	FilePath string `json:"filePath" jsonschema:"description=The path to the file to write" validate:"required"`
	Content  string `json:"content" jsonschema:"description=The content to write to the file"`
}

type applyDiffArgs struct {
	FilePath   string `json:"filePath" jsonschema:"description=The path to the file to edit" validate:"required"`
	OldString  string `json:"old_string" jsonschema:"description=The exact text to find and replace (must match exactly including whitespace)" validate:"required"`
	NewString  string `json:"new_string" jsonschema:"description=The new text to replace the old text with"`
	ReplaceAll bool   `json:"replace_all,omitempty" jsonschema:"description=If true replace all occurrences. If false only replace the first occurrence (default: false),default=false"`
}

type bashArgs struct {
	Command          string `json:"command" jsonschema:"description=The shell command to execute" validate:"required"`
	Description      string `json:"description,omitempty" jsonschema:"description=Optional description of what this command does"`
	WorkingDirectory string `json:"workingDirectory,omitempty" jsonschema:"description=Working directory for command execution (defaults to current directory)"`
	Timeout          int    `json:"timeout,omitempty" jsonschema:"description=Timeout in milliseconds (default: 30000),default=30000" validate:"omitempty,min=1"`
}

// BuiltinOptions configures the built-in tool set.
type BuiltinOptions struct {
	BaseDir  string
	Limits   Limits
	Timeouts TimeoutConfig
	Runner   *ProcessRunner
}

// BuiltinTools returns the read, write, apply_diff and bash tools.
func BuiltinTools(opts BuiltinOptions) []Tool {
	files := &FileAdapter{BaseDir: opts.BaseDir, Limits: opts.Limits.normalize()}
	runner := opts.Runner
	if runner == nil {
		runner = &ProcessRunner{}
	}
	return []Tool{
		NewReadTool(files),
		NewWriteTool(files),
		NewApplyDiffTool(files),
		NewBashTool(runner, opts.BaseDir, opts.Timeouts.normalize()),
	}
}

func validateArgs[T any]() ValidationRule {
	return func(args map[string]interface{}) error {
		_, err := unmarshalAndValidate[T](args)
		return err
	}
}

// NewReadTool returns the file read tool.
func NewReadTool(files *FileAdapter) *ToolDefinition {
	return &ToolDefinition{
		NameValue:        ReadToolName,
		DescriptionValue: readDescription,
		ParametersValue:  mustSchemaParametersFor[readArgs](),
		ValidateFunc:     validateArgs[readArgs](),
		ExecuteFunc: func(ctx context.Context, raw map[string]interface{}) Result {
			args, err := unmarshalAndValidate[readArgs](raw)
			if err != nil {
				return errorResult(err, fmt.Sprintf("Error reading file: %v", err))
			}
			content, err := files.Read(ctx, args.FilePath)
			if err != nil {
				if errors.Is(err, ErrFileNotFound) {
					return errorResult(err, fmt.Sprintf("Error: File not found: %s", args.FilePath))
				}
				return errorResult(err, fmt.Sprintf("Error reading file: %v", err))
			}
			return Result{Output: content}
		},
	}
}

// NewWriteTool returns the file create/overwrite tool.
func NewWriteTool(files *FileAdapter) *ToolDefinition {
	return &ToolDefinition{
		NameValue:        WriteToolName,
		DescriptionValue: writeDescription,
		ParametersValue:  mustSchemaParametersFor[writeArgs](),
		ValidateFunc: ChainValidation(
			RequirePresentArg("content", "missing or invalid 'content' parameter"),
			validateArgs[writeArgs](),
		),
		ExecuteFunc: func(ctx context.Context, raw map[string]interface{}) Result {
			args, err := unmarshalAndValidate[writeArgs](raw)
			if err != nil {
				return errorResult(err, fmt.Sprintf("Error writing file: %v", err))
			}
			change, err := files.Write(ctx, args.FilePath, args.Content)
			if err != nil {
				return errorResult(err, fmt.Sprintf("Error writing file: %v", err))
			}
			return Result{
				Output: fmt.Sprintf("File written successfully (%d bytes) to: %s", change.BytesWritten, args.FilePath),
				Change: &change,
			}
		},
	}
}

// NewApplyDiffTool returns the exact-match search and replace tool.
func NewApplyDiffTool(files *FileAdapter) *ToolDefinition {
	return &ToolDefinition{
		NameValue:        ApplyDiffToolName,
		DescriptionValue: applyDiffDescription,
		ParametersValue:  mustSchemaParametersFor[applyDiffArgs](),
		ValidateFunc: ChainValidation(
			RequirePresentArg("new_string", "missing or invalid 'new_string' parameter"),
			validateArgs[applyDiffArgs](),
		),
		ExecuteFunc: func(ctx context.Context, raw map[string]interface{}) Result {
			args, err := unmarshalAndValidate[applyDiffArgs](raw)
			if err != nil {
				return errorResult(err, fmt.Sprintf("Error applying diff: %v", err))
			}
			change, err := files.Patch(ctx, args.FilePath, args.OldString, args.NewString, args.ReplaceAll)
			switch {
			case err == nil:
			case errors.Is(err, ErrFileNotFound):
				return errorResult(err, fmt.Sprintf("Error: File not found: %s. Use the write tool to create new files.", args.FilePath))
			case errors.Is(err, textpatch.ErrNotFound):
				return errorResult(err, fmt.Sprintf("Error: Could not find the specified text in %s. Make sure old_string matches exactly (including whitespace and indentation).", args.FilePath))
			default:
				return errorResult(err, fmt.Sprintf("Error applying diff: %v", err))
			}
			return Result{
				Output: fmt.Sprintf("Diff applied (%d changes, %s bytes) to: %s", change.Occurrences, formatSizeDelta(change.SizeDelta), args.FilePath),
				Change: &change,
			}
		},
	}
}

// NewBashTool returns the shell command tool. Commands run in baseDir unless
// the call names a working directory.
func NewBashTool(runner *ProcessRunner, baseDir string, timeouts TimeoutConfig) *ToolDefinition {
	return &ToolDefinition{
		NameValue:        BashToolName,
		DescriptionValue: bashDescription,
		ParametersValue:  mustSchemaParametersFor[bashArgs](),
		ValidateFunc: ChainValidation(
			RequireStringArg("command", "missing or invalid 'command' parameter"),
			validateArgs[bashArgs](),
		),
		ExecuteFunc: func(ctx context.Context, raw map[string]interface{}) Result {
			args, err := unmarshalAndValidate[bashArgs](raw)
			if err != nil {
				return errorResult(err, fmt.Sprintf("Error executing command: %v", err))
			}
			dir := baseDir
			if strings.TrimSpace(args.WorkingDirectory) != "" {
				dir, err = paths.Resolve(args.WorkingDirectory, baseDir)
				if err != nil {
					report := ExecutionReport{
						Title:       args.Command,
						ExitCode:    ExitCodeFailed,
						Description: args.Description,
						Output:      fmt.Sprintf("Error: Working directory does not exist: %s", args.WorkingDirectory),
					}
					return Result{
						Output: report.Output,
						Report: &report,
						Err:    apperrors.Wrap(apperrors.CodeValidation, "invalid working directory", err),
					}
				}
			}
			report := runner.Run(ctx, Command{
				Command:          args.Command,
				WorkingDirectory: dir,
				Timeout:          timeouts.Clamp(args.Timeout),
				Description:      args.Description,
			})
			result := Result{Output: report.Output, Report: &report}
			if report.TimedOut {
				result.Err = apperrors.New(apperrors.CodeTimeout, report.Output)
			}
			return result
		},
	}
}

func formatSizeDelta(delta int) string {
	if delta >= 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return fmt.Sprintf("%d", delta)
}
