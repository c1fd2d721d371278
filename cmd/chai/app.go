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
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"chai/internal/agent"
	"chai/internal/chat"
	"chai/internal/config"
	apperrors "chai/internal/errors"
	"chai/internal/paths"
	"chai/internal/tools"
	systemprompt "chai/system_prompt"
)

type appOptions struct {
	ConfigPath string
	EnvFile    string
	WorkDir    string
	MaxSteps   int
}

// app holds everything a session needs, built once at startup.
type app struct {
	cfg          *config.Config
	registry     *tools.Registry
	model        agent.Model
	baseDir      string
	systemPrompt string
	logger       zerolog.Logger
}

func newApp(logger zerolog.Logger, opts appOptions) (*app, error) {
	if opts.EnvFile != "" {
		if err := config.LoadDotEnv(opts.EnvFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.MaxSteps > 0 {
		cfg.MaxSteps = opts.MaxSteps
	}
	for _, warning := range cfg.Validate() {
		logger.Warn().Str("field", warning.Field).Msg(warning.Message)
	}

	baseDir, err := resolveWorkDir(opts.WorkDir)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, baseDir: baseDir, logger: logger}
	a.model = chat.NewClient(cfg, &a.logger)
	if err := a.init(); err != nil {
		return nil, err
	}
	return a, nil
}

// init builds the registry and system prompt from cfg, baseDir and logger.
func (a *app) init() error {
	registry, err := tools.NewRegistry(
		tools.RegistryOptions{
			OutputFilter: a.cfg.ToolOutputFiltersConfig(),
			Logger:       &a.logger,
		},
		tools.BuiltinTools(tools.BuiltinOptions{
			BaseDir:  a.baseDir,
			Limits:   a.cfg.ToolLimitsConfig(),
			Timeouts: a.cfg.ToolTimeoutsConfig(),
		})...,
	)
	if err != nil {
		return err
	}
	prompt, err := systemprompt.Render(a.baseDir, registry.Names())
	if err != nil {
		return apperrors.Wrap(apperrors.CodeConfig, "failed to load system prompt", err)
	}
	a.registry = registry
	a.systemPrompt = prompt
	return nil
}

func (a *app) newSession(observer agent.Observer) (*agent.Session, error) {
	session, err := agent.NewSession(agent.Options{
		Model:         a.model,
		Tools:         a.registry,
		SystemPrompt:  a.systemPrompt,
		MaxSteps:      a.cfg.MaxSteps,
		ParallelTools: a.cfg.ParallelTools,
		Observer:      observer,
		Logger:        &a.logger,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info().
		Str("session_id", session.ID()).
		Str("model", a.cfg.Model).
		Str("work_dir", a.baseDir).
		Msg("session started")
	return session, nil
}

func resolveWorkDir(dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", apperrors.Wrap(apperrors.CodeConfig, "failed to determine working directory", err)
		}
		return cwd, nil
	}
	resolved, err := paths.Resolve(dir, "")
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeConfig, "invalid working directory", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeConfig, fmt.Sprintf("working directory %s", dir), err)
	}
	if !info.IsDir() {
		return "", apperrors.New(apperrors.CodeConfig, fmt.Sprintf("working directory %s is not a directory", dir))
	}
	return resolved, nil
}
