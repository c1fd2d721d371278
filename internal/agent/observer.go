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

import "chai/internal/tools"

// Observer receives progress callbacks from a Session. Callbacks are never
// invoked concurrently. OnTurnEnd is always the last callback of a turn.
type Observer interface {
	OnTurnStart(input string)
	OnText(fragment string)
	OnToolStart(call tools.Invocation)
	OnToolResult(call tools.Invocation, result tools.Result)
	OnStepLimit(steps int)
	OnError(err error)
	OnTurnEnd(result TurnResult)
}

// NopObserver ignores every callback. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) OnTurnStart(string)                          {}
func (NopObserver) OnText(string)                               {}
func (NopObserver) OnToolStart(tools.Invocation)                {}
func (NopObserver) OnToolResult(tools.Invocation, tools.Result) {}
func (NopObserver) OnStepLimit(int)                             {}
func (NopObserver) OnError(error)                               {}
func (NopObserver) OnTurnEnd(TurnResult)                        {}
