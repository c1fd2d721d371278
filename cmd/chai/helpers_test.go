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
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"chai/internal/agent"
	"chai/internal/config"
)

// scriptModel replays one event list per model step.
type scriptModel struct {
	mu    sync.Mutex
	steps [][]agent.Event
	err   error
	seen  []agent.Request
}

func (m *scriptModel) Stream(ctx context.Context, req agent.Request) (agent.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, req)
	if m.err != nil {
		return nil, m.err
	}
	events := []agent.Event{agent.NewTextEvent("done")}
	if len(m.steps) > 0 {
		events = m.steps[0]
		m.steps = m.steps[1:]
	}
	return &sliceStream{events: events}, nil
}

type sliceStream struct {
	events []agent.Event
	pos    int
}

func (s *sliceStream) Recv() (agent.Event, error) {
	if s.pos >= len(s.events) {
		return agent.Event{}, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

func (s *sliceStream) Close() error { return nil }

func newTestApp(t *testing.T, model agent.Model) *app {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.APIKey = "test-key"
	a := &app{cfg: cfg, baseDir: t.TempDir(), logger: zerolog.Nop(), model: model}
	if err := a.init(); err != nil {
		t.Fatalf("init app: %v", err)
	}
	return a
}

// syncBuffer is a bytes.Buffer safe for a spinner goroutine and a reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
