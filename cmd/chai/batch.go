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

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"chai/internal/agent"
)

func runBatchMode(ctx context.Context, a *app, in io.Reader, out, errOut io.Writer) int {
	if err := runBatch(ctx, a, in, out); err != nil {
		a.logger.Error().Err(err).Msg("Batch mode failed")
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runBatch resolves the first stdin line as one turn and prints the
// assistant's text. Tool progress is not rendered.
func runBatch(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	a.logger.Debug().Msg("Running in batch mode")

	session, err := a.newSession(agent.NopObserver{})
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			return nil
		}
		a.logger.Info().Str("user_input", input).Msg("User input received")

		start := time.Now()
		result, err := session.Submit(ctx, input)
		duration := time.Since(start)
		if err != nil {
			a.logger.Error().Err(err).Dur("duration_ms", duration).Msg("Error getting response")
			return fmt.Errorf("failed to get response: %w", err)
		}

		a.logger.Info().
			Int("steps", result.Steps).
			Int("tool_calls", result.ToolCalls).
			Dur("duration_ms", duration).
			Msg("AI response received")

		fmt.Fprintln(out, result.Text)
		if result.StepLimitReached {
			fmt.Fprintf(out, "(step limit reached after %d steps)\n", result.Steps)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	return nil
}
