package plan

import "strings"

// forbiddenChars are individual characters a command may not contain: shell
// metacharacters that would let a command escape single-token execution by
// the Safe Runner (which never invokes a shell).
var forbiddenChars = []rune{
	'|', '&', ';', '<', '>', '`', '\\', '$', '!',
	'{', '}', '(', ')', '*', '?', '[', ']', '~',
}

// forbiddenSubstrings are specific dangerous commands, checked independently
// of the allowlist since some of these could otherwise slip through as a
// legitimately allowlisted leading token (e.g. "dd" itself is rarely
// allowlisted, but "rm -rf" inside a longer allowed command line would not
// be caught by the leading-token check alone).
var forbiddenSubstrings = []string{
	"rm ", "rm-", "sudo", "reboot", "shutdown", "dd ",
}

// checkForbidden returns the first forbidden character or substring found in
// command, or "" if none.
func checkForbidden(command string) string {
	for _, r := range forbiddenChars {
		if strings.ContainsRune(command, r) {
			return string(r)
		}
	}
	for _, s := range forbiddenSubstrings {
		if strings.Contains(command, s) {
			return s
		}
	}
	return ""
}
