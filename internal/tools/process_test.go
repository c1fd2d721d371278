//go:build unix

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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestProcessRunnerOutput(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		output   string
		exitCode int
	}{
		{name: "stdout", command: "echo hello", output: "hello\n", exitCode: 0},
		{name: "stderr appended", command: "echo out; echo err 1>&2", output: "out\n\nstderr: err\n", exitCode: 0},
		{name: "stderr only", command: "echo oops 1>&2; exit 3", output: "\nstderr: oops\n", exitCode: 3},
		{name: "no output", command: "exit 7", output: NoOutputPlaceholder, exitCode: 7},
	}

	runner := &ProcessRunner{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := runner.Run(context.Background(), Command{Command: tt.command, Timeout: 5 * time.Second})
			if report.Output != tt.output {
				t.Errorf("expected output %q, got %q", tt.output, report.Output)
			}
			if report.ExitCode != tt.exitCode {
				t.Errorf("expected exit %d, got %d", tt.exitCode, report.ExitCode)
			}
			if report.TimedOut {
				t.Error("unexpected timeout")
			}
			if report.Title != tt.command {
				t.Errorf("expected title %q, got %q", tt.command, report.Title)
			}
		})
	}
}

// killSlack bounds how long a timed out or cancelled command may outlive its
// deadline while the process group is killed and drained.
const killSlack = 250 * time.Millisecond

func TestProcessRunnerTimeout(t *testing.T) {
	runner := &ProcessRunner{}
	start := time.Now()
	report := runner.Run(context.Background(), Command{Command: "sleep 5", Timeout: 100 * time.Millisecond})
	elapsed := time.Since(start)

	if !report.TimedOut {
		t.Fatal("expected timeout")
	}
	if report.ExitCode != ExitCodeFailed {
		t.Fatalf("expected exit %d, got %d", ExitCodeFailed, report.ExitCode)
	}
	if report.Output != "Command timed out after 100ms" {
		t.Fatalf("unexpected output %q", report.Output)
	}
	if elapsed < 100*time.Millisecond {
		t.Fatalf("returned before the deadline: %v", elapsed)
	}
	if elapsed > 100*time.Millisecond+killSlack {
		t.Fatalf("timeout took too long: %v", elapsed)
	}
}

func TestProcessRunnerTimeoutKillsProcessGroup(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	runner := &ProcessRunner{}

	start := time.Now()
	report := runner.Run(context.Background(), Command{
		Command: "(sleep 1; touch " + marker + ") & sleep 5",
		Timeout: 100 * time.Millisecond,
	})
	if !report.TimedOut {
		t.Fatal("expected timeout")
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond+killSlack {
		t.Fatalf("timeout took too long: %v", elapsed)
	}

	time.Sleep(1500 * time.Millisecond)
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Fatal("background child survived the timeout")
	}
}

func TestProcessRunnerCancel(t *testing.T) {
	runner := &ProcessRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	report := runner.Run(ctx, Command{Command: "sleep 5", Timeout: 10 * time.Second})
	if report.Output != "Command cancelled" {
		t.Fatalf("unexpected output %q", report.Output)
	}
	if report.ExitCode != ExitCodeFailed || report.TimedOut {
		t.Fatalf("unexpected report: %+v", report)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond+killSlack {
		t.Fatalf("cancel took too long: %v", elapsed)
	}
}

func TestProcessRunnerWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	runner := &ProcessRunner{}

	report := runner.Run(context.Background(), Command{Command: "pwd", WorkingDirectory: dir, Timeout: 5 * time.Second})
	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("eval symlinks: %v", err)
	}
	if strings.TrimSpace(report.Output) != want {
		t.Fatalf("expected %q, got %q", want, report.Output)
	}
}

func TestProcessRunnerMissingWorkingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	runner := &ProcessRunner{}

	report := runner.Run(context.Background(), Command{Command: "echo hi", WorkingDirectory: dir})
	if report.ExitCode != ExitCodeFailed {
		t.Fatalf("expected exit %d, got %d", ExitCodeFailed, report.ExitCode)
	}
	if report.Output != "Error: Working directory does not exist: "+dir {
		t.Fatalf("unexpected output %q", report.Output)
	}
}

func TestProcessRunnerSpawnFailure(t *testing.T) {
	runner := &ProcessRunner{Shell: filepath.Join(t.TempDir(), "no-such-shell")}

	report := runner.Run(context.Background(), Command{Command: "echo hi"})
	if report.ExitCode != ExitCodeFailed {
		t.Fatalf("expected exit %d, got %d", ExitCodeFailed, report.ExitCode)
	}
	if !strings.HasPrefix(report.Output, "Error executing command: ") {
		t.Fatalf("unexpected output %q", report.Output)
	}
}

func TestExecutionReportString(t *testing.T) {
	report := ExecutionReport{Title: "ls", ExitCode: 0, Description: "list", Output: "a\n"}
	got := report.String()
	want := `{"title":"ls","exit":0,"description":"list","output":"a\n"}`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
