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
	"errors"
	"fmt"
	"strings"

	apperrors "chai/internal/errors"
)

// Common tool errors
var (
	// ErrToolNotFound indicates the requested tool doesn't exist in the registry.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidArguments indicates tool arguments are invalid or malformed.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrFileNotFound indicates the target file of a file tool does not exist.
	ErrFileNotFound = apperrors.New(apperrors.CodeNotFound, "file not found")
)

// ValidationError reports tool arguments that failed schema or field checks.
// Its text is returned to the model verbatim so it can correct the call.
type ValidationError struct {
	Tool    string
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("invalid arguments for %s", e.Tool)
	}
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(e.Details, "; "))
}

// Unwrap lets callers match ErrInvalidArguments with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidArguments
}

func newValidationError(tool string, details ...string) *apperrors.Error {
	return apperrors.Wrap(apperrors.CodeValidation, "", &ValidationError{Tool: tool, Details: details})
}

// NewToolExecutionError wraps a tool execution error with a shared error code.
func NewToolExecutionError(toolName, operation string, err error) *apperrors.Error {
	if operation != "" {
		return apperrors.Wrap(apperrors.CodeToolExecution, fmt.Sprintf("tool %s failed during %s", toolName, operation), err)
	}
	return apperrors.Wrap(apperrors.CodeToolExecution, fmt.Sprintf("tool %s failed", toolName), err)
}

func newIOError(message string, err error) *apperrors.Error {
	return apperrors.Wrap(apperrors.CodeIO, message, err)
}
