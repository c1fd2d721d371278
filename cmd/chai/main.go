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
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"syscall"

	"github.com/rs/zerolog"
)

var (
	debugMode  = flag.Bool("d", false, "Enable debug mode")
	logFile    = flag.String("log-file", "", "Log file path (logs disabled by default)")
	configPath = flag.String("config", "config.json", "Path to the JSON config file")
	envFile    = flag.String("env-file", ".env", "Path to a .env file loaded before the config")
	themePath  = flag.String("theme", "theme.json", "Path to the JSON color theme")
	maxSteps   = flag.Int("max-steps", 0, "Override the maximum number of model steps per turn")
	workDir    = flag.String("C", "", "Run tools as if chai was started in this directory")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger := initLogger(*debugMode, *logFile)
	logger.Info().Msg("chai starting")

	a, err := newApp(logger, appOptions{
		ConfigPath: *configPath,
		EnvFile:    *envFile,
		WorkDir:    *workDir,
		MaxSteps:   *maxSteps,
	})
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Check if we're running in batch mode (with "-" argument)
	args := flag.Args()
	if len(args) > 0 && args[0] == "-" {
		ctx, interrupts := newInterruptHandler(context.Background())
		stop := interrupts.Listen(os.Interrupt, syscall.SIGTERM)
		code := runBatchMode(ctx, a, os.Stdin, os.Stdout, os.Stderr)
		stop()
		os.Exit(code)
	}

	if err := runInteractive(a); err != nil {
		logger.Error().Err(err).Msg("interactive session failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initLogger(debug bool, logFilePath string) zerolog.Logger {
	// Set log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Configure output
	var output io.Writer
	if logFilePath != "" {
		// Log to file only
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		output = file
	} else {
		// No logging to console by default - use io.Discard
		output = io.Discard
	}

	// Create logger with timestamp
	return zerolog.New(output).With().Timestamp().Logger()
}
