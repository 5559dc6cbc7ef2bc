package shell

import "strings"

// Tokenize splits an input line on whitespace. The first token, lower-cased,
// is the command name; the rest are its arguments as typed. ok is false for a
// blank line.
func Tokenize(line string) (name string, args []string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// Rest rejoins args[from:] with single spaces. Commands that take a trailing
// free-text argument use it to undo tokenization.
func Rest(args []string, from int) string {
	if from >= len(args) {
		return ""
	}
	return strings.Join(args[from:], " ")
}
