package plangen

import (
	"fmt"
	"strings"

	"github.com/curudroid/curudroid/internal/plugin"
)

// shellMetachars mirrors the original generator's own metacharacter guard,
// checked independently of the Plan Validator's broader forbidden set since
// this pass only protects argv tokens, not a joined command line.
var shellMetachars = "|&;<>$`\\!{}()*?[]~"

func commandIsSafe(cmd plugin.Command) bool {
	if len(cmd.Argv) == 0 {
		return false
	}
	for _, token := range cmd.Argv {
		if token == "" {
			return false
		}
		if strings.ContainsAny(token, shellMetachars) {
			return false
		}
	}
	return cmd.Description != ""
}

// normalizeCommands drops malformed or unsafe commands, recording a warning
// for each one instead of failing the whole plan.
func normalizeCommands(commands []plugin.Command) ([]Command, []string) {
	var normalized []Command
	var warnings []string
	for idx, cmd := range commands {
		if !commandIsSafe(cmd) {
			warnings = append(warnings, fmt.Sprintf("command %d ignored: invalid format or shell metacharacter", idx))
			continue
		}
		normalized = append(normalized, Command{
			Argv:        append([]string(nil), cmd.Argv...),
			Description: cmd.Description,
		})
	}
	return normalized, warnings
}
