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

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// NoOutputPlaceholder replaces empty combined command output.
const NoOutputPlaceholder = "(no output)"

// ExitCodeFailed marks commands that never produced a native exit status.
const ExitCodeFailed = -1

// pipeDrainDelay bounds how long Wait keeps reading pipes held open by
// background children after the shell itself has exited.
const pipeDrainDelay = 500 * time.Millisecond

// Command is a shell command request.
type Command struct {
	Command          string
	WorkingDirectory string
	Timeout          time.Duration
	Description      string
}

// ExecutionReport is the outcome of one shell command.
type ExecutionReport struct {
	Title       string        `json:"title"`
	ExitCode    int           `json:"exit"`
	Description string        `json:"description,omitempty"`
	Output      string        `json:"output"`
	TimedOut    bool          `json:"timed_out,omitempty"`
	Duration    time.Duration `json:"-"`
}

// String renders the report as the JSON object handed back to the model.
func (r ExecutionReport) String() string {
	raw, err := json.Marshal(r)
	if err != nil {
		return r.Output
	}
	return string(raw)
}

// ProcessRunner runs shell commands in their own process group.
type ProcessRunner struct {
	Shell string
	Env   []string
}

// Run executes cmd and always returns a report; failures are described in it.
func (p *ProcessRunner) Run(ctx context.Context, c Command) ExecutionReport {
	report := ExecutionReport{
		Title:       c.Command,
		Description: c.Description,
		ExitCode:    ExitCodeFailed,
	}

	if c.WorkingDirectory != "" {
		info, err := os.Stat(c.WorkingDirectory)
		if err != nil || !info.IsDir() {
			report.Output = fmt.Sprintf("Error: Working directory does not exist: %s", c.WorkingDirectory)
			return report
		}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}

	shell := p.Shell
	if shell == "" {
		shell = defaultShell
	}
	cmd := exec.Command(shell, shellFlag, c.Command)
	cmd.Dir = c.WorkingDirectory
	cmd.Env = p.Env
	cmd.WaitDelay = pipeDrainDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	configureProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		report.Output = fmt.Sprintf("Error executing command: %v", err)
		report.Duration = time.Since(start)
		return report
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		report.Duration = time.Since(start)
		report.ExitCode = exitCodeOf(cmd, err)
		if report.ExitCode == ExitCodeFailed && err != nil && !isExitError(err) {
			report.Output = fmt.Sprintf("Error executing command: %v", err)
			return report
		}
		report.Output = combineOutput(stdout.String(), stderr.String())
	case <-timer.C:
		killProcessGroup(cmd)
		<-done
		report.Duration = time.Since(start)
		report.TimedOut = true
		report.Output = fmt.Sprintf("Command timed out after %dms", timeout.Milliseconds())
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		report.Duration = time.Since(start)
		report.Output = "Command cancelled"
	}
	return report
}

func exitCodeOf(cmd *exec.Cmd, err error) int {
	if err == nil {
		return 0
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return ExitCodeFailed
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) || errors.Is(err, exec.ErrWaitDelay)
}

func combineOutput(stdout, stderr string) string {
	out := stdout
	if stderr != "" {
		out += "\nstderr: " + stderr
	}
	if out == "" {
		return NoOutputPlaceholder
	}
	return out
}
