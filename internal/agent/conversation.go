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
	"sync"

	"chai/internal/tools"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one message in the conversation.
type Turn struct {
	Role       Role
	Content    string
	ToolCalls  []tools.Invocation
	ToolCallID string
	ToolName   string
}

// Conversation is the append-only history of a session.
type Conversation struct {
	mu    sync.Mutex
	turns []Turn
}

// Append adds turns at the end of the conversation.
func (c *Conversation) Append(turns ...Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, turn := range turns {
		c.turns = append(c.turns, cloneTurn(turn))
	}
}

// Snapshot returns a copy of all turns.
func (c *Conversation) Snapshot() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	for i, turn := range c.turns {
		out[i] = cloneTurn(turn)
	}
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

func cloneTurn(turn Turn) Turn {
	if turn.ToolCalls != nil {
		calls := make([]tools.Invocation, len(turn.ToolCalls))
		copy(calls, turn.ToolCalls)
		turn.ToolCalls = calls
	}
	return turn
}
