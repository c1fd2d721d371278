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
	"errors"
	"fmt"

	apperrors "chai/internal/errors"
)

// ErrExit is returned by a Prompter when the user asked to leave.
var ErrExit = errors.New("exit requested")

// ServiceError reports a failed exchange with the model service. The user
// turn that triggered it stays in the conversation; partial output is dropped.
type ServiceError struct {
	Operation string
	Err       error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("model service error during %s: %v", e.Operation, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return apperrors.Wrap(apperrors.CodeService, e.Operation, e.Err)
}
