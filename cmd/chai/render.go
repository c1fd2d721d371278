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
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"chai/internal/agent"
	"chai/internal/theme"
	"chai/internal/tools"
)

const (
	appName    = "CHAI CLI"
	appVersion = "v0.3"

	boxTop    = "┌─"
	boxMid    = "├─"
	boxBottom = "└─"
	boxVert   = "│"

	detailPrefix = boxVert + "  "
	blockPrefix  = boxVert + "    "

	collapseAfterLines = 10
	collapsedPreview   = 3
)

var divider = strings.Repeat("─", 50)

// renderer draws session progress on a terminal. It implements agent.Observer.
type renderer struct {
	out     io.Writer
	colors  *theme.ColorScheme
	spinner *spinner

	mu         sync.Mutex
	needPrefix bool
	midLine    bool
	running    int
}

var _ agent.Observer = (*renderer)(nil)

// newRenderer returns a renderer writing to out. The spinner only runs when
// animate is true.
func newRenderer(out io.Writer, colors *theme.ColorScheme, animate bool) *renderer {
	if colors == nil {
		colors = theme.DisabledColorScheme()
	}
	r := &renderer{out: out, colors: colors}
	if animate {
		r.spinner = newSpinner(out, colors.Spinner)
	}
	return r
}

func (r *renderer) Banner() {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.colors.Header.Sprintf("%s %s %s", boxTop, appName, appVersion))
	fmt.Fprintln(r.out, r.colors.Muted.Sprint(divider))
	fmt.Fprintln(r.out, "• Type to chat, Ctrl+C to exit")
	fmt.Fprintln(r.out)
}

func (r *renderer) Goodbye() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopSpinner()
	r.endLine()
	r.success("Goodbye! Have a nice day!")
}

// Message prints an informational line outside a turn.
func (r *renderer) Message(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endLine()
	fmt.Fprintln(r.out, text)
}

func (r *renderer) OnTurnStart(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out)
	r.needPrefix = true
	r.midLine = false
	r.running = 0
}

func (r *renderer) OnText(fragment string) {
	if fragment == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopSpinner()
	if r.needPrefix {
		fmt.Fprint(r.out, r.colors.Assistant.Sprint("* "))
		r.needPrefix = false
	}
	fmt.Fprint(r.out, fragment)
	r.midLine = !strings.HasSuffix(fragment, "\n")
}

func (r *renderer) OnToolStart(call tools.Invocation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopSpinner()
	r.endLine()

	args := decodeArgs(call.Arguments)
	target := toolTarget(call.Name, args)
	fmt.Fprintf(r.out, "\n%s\n", r.colors.Tool.Sprintf("%s %s %s", boxMid, strings.ToUpper(call.Name), target))
	if call.Name == tools.BashToolName {
		if desc := stringArg(args, "description"); desc != "" {
			r.detail(desc)
		}
		if dir := stringArg(args, "workingDirectory"); dir != "" {
			r.detail("working dir: " + dir)
		}
	}

	r.running++
	r.startSpinner(spinnerMessage(call.Name, target))
}

func (r *renderer) OnToolResult(call tools.Invocation, result tools.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopSpinner()
	if r.running > 1 {
		// Concurrent dispatch: repeat the header so the output is attributable.
		args := decodeArgs(call.Arguments)
		fmt.Fprintln(r.out, r.colors.Tool.Sprintf("%s %s %s", boxMid, strings.ToUpper(call.Name), toolTarget(call.Name, args)))
	}

	body := result.Output
	collapse := false
	switch call.Name {
	case tools.ReadToolName:
		if !result.Failed() {
			r.detail(fmt.Sprintf("%d lines read", countLines(result.Output)))
			collapse = true
		}
	case tools.WriteToolName:
		if result.Change != nil && result.Change.Existed {
			r.detail("Overwriting existing file")
		}
	case tools.ApplyDiffToolName:
		if result.Change != nil {
			r.diff(result.Change)
			if result.Change.Occurrences > 1 {
				r.detail(fmt.Sprintf("Replacing all %d occurrence(s)", result.Change.Occurrences))
			} else {
				r.detail("Replacing first occurrence")
			}
		}
	case tools.BashToolName:
		if result.Report != nil {
			body = result.Report.Output
		}
	}

	header := fmt.Sprintf("%s output (%dms):", boxBottom, result.Duration.Milliseconds())
	if result.Failed() {
		fmt.Fprintln(r.out, r.colors.Error.Sprint(header))
	} else {
		fmt.Fprintln(r.out, r.colors.Detail.Sprint(header))
	}
	r.block(body, collapse)

	r.needPrefix = true
	if r.running > 0 {
		r.running--
	}
	if r.running > 0 {
		r.startSpinner(fmt.Sprintf("waiting for %d more tool(s)", r.running))
	}
}

func (r *renderer) OnStepLimit(steps int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopSpinner()
	r.endLine()
	r.failure(fmt.Sprintf("Step limit reached after %d steps; send another message to continue", steps))
}

func (r *renderer) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopSpinner()
	r.endLine()
	r.failure(err.Error())
}

func (r *renderer) OnTurnEnd(agent.TurnResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopSpinner()
	r.running = 0
	r.endLine()
	fmt.Fprintln(r.out)
}

// StopSpinner clears any running animation. Safe to call from any goroutine.
func (r *renderer) StopSpinner() {
	if r.spinner != nil {
		r.spinner.Stop()
	}
}

func (r *renderer) startSpinner(message string) {
	if r.spinner != nil {
		r.spinner.Start(message)
	}
}

func (r *renderer) stopSpinner() {
	if r.spinner != nil {
		r.spinner.Stop()
	}
}

func (r *renderer) endLine() {
	if r.midLine {
		fmt.Fprintln(r.out)
		r.midLine = false
	}
}

func (r *renderer) detail(message string) {
	fmt.Fprintf(r.out, "%s %s\n", detailPrefix, r.colors.Detail.Sprint(message))
}

func (r *renderer) success(message string) {
	fmt.Fprintf(r.out, "  %s\n", r.colors.Success.Sprint("✓ "+message))
}

func (r *renderer) failure(message string) {
	fmt.Fprintf(r.out, "  %s\n", r.colors.Error.Sprint("✗ "+message))
}

func (r *renderer) block(body string, collapse bool) {
	for _, line := range formatBlock(body, collapse) {
		fmt.Fprintln(r.out, line)
	}
}

func (r *renderer) diff(change *tools.FileChange) {
	lines := unifiedDiff(change.Path, change.Before, change.After)
	shown := lines
	if len(shown) > maxDiffLines {
		shown = shown[:maxDiffLines]
	}
	for _, line := range shown {
		fmt.Fprintf(r.out, "%s %s\n", detailPrefix, colorDiffLine(r.colors, line))
	}
	if hidden := len(lines) - len(shown); hidden > 0 {
		r.detail(fmt.Sprintf("... %d more diff lines ...", hidden))
	}
}

// formatBlock indents body under the tool output header. Collapsed blocks
// longer than ten lines show a three line preview.
func formatBlock(body string, collapse bool) []string {
	body = strings.TrimSpace(body)
	if body == "" {
		body = tools.NoOutputPlaceholder
	}
	lines := strings.Split(body, "\n")
	if collapse && len(lines) > collapseAfterLines {
		out := make([]string, 0, collapsedPreview+1)
		for _, line := range lines[:collapsedPreview] {
			out = append(out, blockPrefix+line)
		}
		return append(out, fmt.Sprintf("%s ... %d more lines ...", detailPrefix, len(lines)-collapsedPreview))
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = blockPrefix + line
	}
	return out
}

func decodeArgs(raw string) map[string]interface{} {
	args := map[string]interface{}{}
	if strings.TrimSpace(raw) == "" {
		return args
	}
	_ = json.Unmarshal([]byte(raw), &args)
	return args
}

func stringArg(args map[string]interface{}, key string) string {
	if value, ok := args[key].(string); ok {
		return value
	}
	return ""
}

func toolTarget(name string, args map[string]interface{}) string {
	if name == tools.BashToolName {
		return stringArg(args, "command")
	}
	return stringArg(args, "filePath")
}

func spinnerMessage(name, target string) string {
	verb := "running " + name
	switch name {
	case tools.ReadToolName:
		verb = "reading"
	case tools.WriteToolName:
		verb = "writing"
	case tools.ApplyDiffToolName:
		verb = "editing"
	case tools.BashToolName:
		verb = "running"
	}
	if target == "" {
		return verb
	}
	return verb + " " + target
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(s, "\n"), "\n") + 1
}
