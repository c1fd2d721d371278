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
	"os"
	"sync"
	"syscall"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"chai/internal/theme"
)

func runInteractive(a *app) error {
	a.logger.Debug().Msg("Running in interactive mode")

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	themes, err := theme.NewManager(*themePath, !isTTY)
	if err != nil {
		return err
	}
	render := newRenderer(os.Stdout, themes.ColorScheme(), isTTY)

	session, err := a.newSession(render)
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     a.cfg.CommandHistoryFile,
		AutoComplete:    getCommandCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	var closeOnce sync.Once
	closeReadline := func() { closeOnce.Do(func() { rl.Close() }) }
	defer closeReadline()

	ctx, interrupts := newInterruptHandler(context.Background())
	interrupts.OnInterrupt(render.StopSpinner)
	interrupts.OnInterrupt(closeReadline)
	stop := interrupts.Listen(os.Interrupt, syscall.SIGTERM)
	defer stop()

	render.Banner()
	prompter := &replPrompter{
		rl: rl,
		commands: &commandHandler{
			out:     os.Stdout,
			colors:  themes.ColorScheme(),
			specs:   a.registry.Specs,
			history: session.Conversation,
			logger:  a.logger,
		},
		logger: a.logger,
	}

	err = session.Run(ctx, prompter)
	render.Goodbye()
	a.logger.Info().
		Bool("interrupted", interrupts.Interrupted()).
		Int("turns", session.Len()).
		Msg("Session ended")
	return err
}
