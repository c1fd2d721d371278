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
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"chai/internal/agent"
	"chai/internal/theme"
	"chai/internal/tools"
)

type Command struct {
	Name        string
	Description string
}

func getAvailableCommands() []Command {
	return []Command{
		{Name: "help", Description: "Show available commands"},
		{Name: "tools", Description: "List the tools the model can call"},
		{Name: "history", Description: "Display conversation history"},
		{Name: "quit", Description: "Exit the application"},
		{Name: "exit", Description: "Exit the application"},
	}
}

func getCommandCompleter() *readline.PrefixCompleter {
	commands := getAvailableCommands()
	items := make([]readline.PrefixCompleterInterface, len(commands))
	for i, cmd := range commands {
		items[i] = readline.PcItem("/" + cmd.Name)
	}
	return readline.NewPrefixCompleter(items...)
}

// commandHandler executes slash commands typed at the prompt.
type commandHandler struct {
	out     io.Writer
	colors  *theme.ColorScheme
	specs   func() []tools.Spec
	history func() []agent.Turn
	logger  zerolog.Logger
}

// Handle runs input as a slash command and reports whether the user asked to exit.
func (h *commandHandler) Handle(input string) bool {
	cmdName := strings.TrimPrefix(input, "/")
	cmdName = strings.ToLower(strings.TrimSpace(cmdName))

	h.logger.Debug().Str("command", cmdName).Msg("Executing command")

	switch cmdName {
	case "help":
		h.showHelp()
	case "tools":
		h.showTools()
	case "history":
		h.showHistory()
	case "quit", "exit":
		return true
	default:
		h.colors.Error.Fprintf(h.out, "✗ Unknown command: /%s (type /help for available commands)\n", cmdName)
	}
	return false
}

func (h *commandHandler) showHelp() {
	h.colors.Header.Fprintln(h.out, "\nAvailable Commands:")
	for _, cmd := range getAvailableCommands() {
		fmt.Fprintf(h.out, "  /%-12s - %s\n", cmd.Name, cmd.Description)
	}
	fmt.Fprintln(h.out, "\nKeyboard Shortcuts:")
	fmt.Fprintln(h.out, "  Ctrl+C       - Exit (cancels a running turn)")
	fmt.Fprintln(h.out, "  Ctrl+D       - Exit on an empty line")
	fmt.Fprintln(h.out, "  Tab          - Auto-complete commands")
	fmt.Fprintln(h.out)
}

func (h *commandHandler) showTools() {
	specs := h.specs()
	if len(specs) == 0 {
		fmt.Fprintln(h.out, "No tools available")
		return
	}

	h.colors.Header.Fprintln(h.out, "\nTools:")
	w := tabwriter.NewWriter(h.out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "  Tool\tParameters")
	fmt.Fprintln(w, "  ────\t──────────")
	for _, spec := range specs {
		fmt.Fprintf(w, "  %s\t%s\n", spec.Name, strings.Join(parameterNames(spec.Parameters), ", "))
	}
	w.Flush()
	fmt.Fprintln(h.out)
}

func (h *commandHandler) showHistory() {
	turns := h.history()
	if len(turns) == 0 {
		h.colors.Error.Fprintln(h.out, "No conversation history")
		return
	}

	h.colors.Header.Fprintln(h.out, "\nConversation History:")
	for _, turn := range turns {
		switch turn.Role {
		case agent.RoleUser:
			fmt.Fprintf(h.out, "> %s\n", turn.Content)
		case agent.RoleAssistant:
			if turn.Content != "" {
				h.colors.Assistant.Fprint(h.out, "* ")
				fmt.Fprintln(h.out, turn.Content)
			}
			for _, call := range turn.ToolCalls {
				h.colors.Tool.Fprintf(h.out, "  %s %s\n", boxMid, strings.ToUpper(call.Name))
			}
		case agent.RoleTool:
			fmt.Fprintf(h.out, "  %s %s: %s\n", boxBottom, turn.ToolName, firstLine(turn.Content))
		}
	}
	fmt.Fprintln(h.out)
}

// parameterNames lists a tool's parameters, required ones first, in schema order.
func parameterNames(schema map[string]interface{}) []string {
	props, _ := schema["properties"].(map[string]interface{})
	required := map[string]bool{}
	var names []string
	switch list := schema["required"].(type) {
	case []string:
		for _, name := range list {
			required[name] = true
			names = append(names, name)
		}
	case []interface{}:
		for _, v := range list {
			if name, ok := v.(string); ok {
				required[name] = true
				names = append(names, name)
			}
		}
	}
	var optional []string
	for name := range props {
		if !required[name] {
			optional = append(optional, name+"?")
		}
	}
	sort.Strings(optional)
	return append(names, optional...)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
