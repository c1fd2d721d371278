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
	"context"
	"errors"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"chai/internal/agent"
)

type readlineAction int

const (
	readlineContinue readlineAction = iota
	readlineExit
	readlineUnhandled
)

// classifyReadlineError maps readline errors to prompt actions. Ctrl-C at the
// prompt and Ctrl-D on an empty line leave the session.
func classifyReadlineError(line string, err error) readlineAction {
	switch {
	case err == nil:
		return readlineUnhandled
	case errors.Is(err, readline.ErrInterrupt):
		return readlineExit
	case errors.Is(err, io.EOF):
		if strings.TrimSpace(line) == "" {
			return readlineExit
		}
		return readlineContinue
	default:
		return readlineUnhandled
	}
}

type lineReader interface {
	Readline() (string, error)
}

// replPrompter reads user lines and runs slash commands before they reach the session.
type replPrompter struct {
	rl       lineReader
	commands *commandHandler
	logger   zerolog.Logger
}

func (p *replPrompter) Prompt(ctx context.Context) (string, error) {
	for {
		if ctx.Err() != nil {
			return "", agent.ErrExit
		}
		line, err := p.rl.Readline()
		if err != nil {
			if ctx.Err() != nil {
				return "", agent.ErrExit
			}
			switch classifyReadlineError(line, err) {
			case readlineExit:
				p.logger.Debug().Err(err).Msg("Readline exit")
				return "", agent.ErrExit
			case readlineContinue:
				continue
			default:
				return "", err
			}
		}

		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "/") {
			if p.commands.Handle(line) {
				return "", agent.ErrExit
			}
			continue
		}
		if line != "" {
			p.logger.Info().Str("user_input", line).Msg("User input received")
		}
		return line, nil
	}
}
