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
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"chai/internal/tools"
)

// dispatch runs every call and returns results in call order. Calls that were
// not started before ctx was cancelled get a cancellation result.
func (s *Session) dispatch(ctx context.Context, calls []tools.Invocation) []tools.Result {
	results := make([]tools.Result, len(calls))
	if s.parallel <= 1 || len(calls) == 1 {
		for i, call := range calls {
			results[i] = s.dispatchOne(ctx, call, nil)
		}
		return results
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.parallel)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = s.dispatchOne(ctx, call, &mu)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Session) dispatchOne(ctx context.Context, call tools.Invocation, mu *sync.Mutex) tools.Result {
	if err := ctx.Err(); err != nil {
		return tools.Result{
			CallID: call.ID,
			Tool:   call.Name,
			Output: fmt.Sprintf("Error: %v", err),
			Err:    err,
		}
	}

	s.notify(mu, func() { s.observer.OnToolStart(call) })
	result := s.tools.Dispatch(ctx, call)
	s.notify(mu, func() { s.observer.OnToolResult(call, result) })

	s.logger.Debug().
		Str("tool", call.Name).
		Str("call_id", call.ID).
		Int64("duration_ms", result.Duration.Milliseconds()).
		Bool("failed", result.Failed()).
		Msg("tool dispatched")
	return result
}

func (s *Session) notify(mu *sync.Mutex, fn func()) {
	if mu == nil {
		fn()
		return
	}
	mu.Lock()
	defer mu.Unlock()
	fn()
}
