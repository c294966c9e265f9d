package zkshell

import (
	"strings"

	"github.com/chzyer/readline"
)

// Complete returns the children of the current path whose names start with prefix.
func (s *Shell) Complete(prefix string) []string {
	children, err := s.listChildren(s.current)
	if err != nil {
		s.logger.Debug("completion lookup failed", "path", s.current, "error", err)
		return nil
	}
	return withPrefix(children, prefix)
}

func withPrefix(names []string, prefix string) []string {
	var matches []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	return matches
}

// Completer adapts a Shell to readline's completion interface. The first
// word of a line completes to a verb, later words to child node names.
type Completer struct {
	shell *Shell
}

var _ readline.AutoCompleter = (*Completer)(nil)

func NewCompleter(s *Shell) *Completer { return &Completer{shell: s} }

// Do returns the missing suffixes of every candidate and the length of the
// word being completed.
func (c *Completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	head := string(line[:pos])
	start := strings.LastIndex(head, " ") + 1
	word := head[start:]

	var candidates []string
	if strings.TrimSpace(head[:start]) == "" {
		candidates = withPrefix(c.shell.commands.Names(), word)
	} else {
		candidates = c.shell.Complete(word)
	}

	for _, candidate := range candidates {
		newLine = append(newLine, []rune(candidate[len(word):]))
	}
	return newLine, len([]rune(word))
}
