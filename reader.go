package zkshell

import (
	"bufio"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

// NewTerminalReader returns a line editor with history and tab completion
// for interactive use.
func NewTerminalReader(s *Shell) (*readline.Instance, error) {
	return readline.NewEx(&readline.Config{
		Prompt:          s.Prompt(),
		AutoComplete:    NewCompleter(s),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
}

// ScannerReader reads lines from a plain stream such as a pipe.
type ScannerReader struct {
	scanner *bufio.Scanner
	prompts io.Writer
	prompt  string
}

// NewScannerReader reads lines from r. When prompts is non-nil the prompt is
// written to it before each line.
func NewScannerReader(r io.Reader, prompts io.Writer) *ScannerReader {
	return &ScannerReader{scanner: bufio.NewScanner(r), prompts: prompts}
}

func (r *ScannerReader) SetPrompt(prompt string) { r.prompt = prompt }

func (r *ScannerReader) Readline() (string, error) {
	if r.prompts != nil {
		fmt.Fprint(r.prompts, r.prompt)
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}
