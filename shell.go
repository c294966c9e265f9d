// Package zkshell implements an interactive shell over a hierarchical
// coordination store, with filesystem-like verbs (ls, cd, cat, edit, ...).
package zkshell

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/chzyer/readline"
	"github.com/dhamidi/zkshell/store"
	"github.com/spf13/afero"
)

var (
	// ErrCommandFailed is returned by Execute when the command reported a failure to the user.
	ErrCommandFailed = errors.New("command failed")
	// ErrBinaryContent is reported for node payloads that are not valid UTF-8.
	ErrBinaryContent = errors.New("content is not valid UTF-8 text")
)

// LineReader yields input lines. Readline returns readline.ErrInterrupt when
// the user cancels the current line and io.EOF at end of input.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// Shell holds the state of one shell session: the current path, the editor
// command and the store connection.
type Shell struct {
	store      store.Store
	current    string
	editor     string
	commands   CommandSet
	display    TextDisplayer
	fs         afero.Fs
	scratchDir string
	launch     EditorFunc
	logger     *slog.Logger

	failed bool
	exited bool
	closed bool
}

// New returns a shell positioned at currentPath.
func New(st store.Store, currentPath string) *Shell {
	return &Shell{
		store:      st,
		current:    Resolve(currentPath, "/"),
		editor:     os.Getenv("EDITOR"),
		commands:   builtinCommands(),
		display:    NewRawTextDisplay(os.Stdout),
		fs:         afero.NewOsFs(),
		scratchDir: os.TempDir(),
		launch:     RunEditor,
		logger:     slog.Default(),
	}
}

func (s *Shell) WithEditor(editor string) *Shell {
	s.editor = editor
	return s
}

func (s *Shell) WithOutput(w io.Writer) *Shell {
	s.display = NewRawTextDisplay(w)
	return s
}

func (s *Shell) WithDisplay(d TextDisplayer) *Shell {
	s.display = d
	return s
}

// WithScratch sets the filesystem and directory used for edit scratch files.
func (s *Shell) WithScratch(fs afero.Fs, dir string) *Shell {
	s.fs = fs
	s.scratchDir = dir
	return s
}

func (s *Shell) WithEditorFunc(launch EditorFunc) *Shell {
	s.launch = launch
	return s
}

func (s *Shell) WithLogger(logger *slog.Logger) *Shell {
	s.logger = logger
	return s
}

// CurrentPath returns the path relative tokens are resolved against.
func (s *Shell) CurrentPath() string { return s.current }

// Editor returns the editor command, or "" when none is configured.
func (s *Shell) Editor() string { return s.editor }

// Exited reports whether the exit command has run.
func (s *Shell) Exited() bool { return s.exited }

// Prompt renders the interactive prompt.
func (s *Shell) Prompt() string {
	return fmt.Sprintf("zk: %s> ", s.current)
}

// Close closes the store connection. Calling it more than once is harmless.
func (s *Shell) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.store.Close()
}

// Run reads and executes lines until exit or end of input. An interrupt
// abandons the current line only.
func (s *Shell) Run(reader LineReader) error {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	for !s.exited {
		reader.SetPrompt(s.Prompt())
		line, err := reader.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			s.logger.Debug("end of input")
			return s.Close()
		}
		if err != nil {
			return fmt.Errorf("read line: %w", err)
		}

		if err := s.Execute(line); err != nil {
			s.logger.Debug("command failed", "line", line, "error", err)
		}
	}
	return nil
}

// Execute runs a single command line. Every failure has already been shown
// to the user when Execute returns; the error is for callers that need an
// exit status.
func (s *Shell) Execute(line string) error {
	s.failed = false
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	verb, rest := splitVerb(line)
	cmd, found := s.commands.Get(verb)
	if !found {
		s.fail("Unknown command: %s", verb)
		return ErrCommandFailed
	}

	args := parseArgs(rest)
	if !cmd.accepts(len(args)) {
		s.fail("usage: %s", cmd.Usage)
		return ErrCommandFailed
	}

	s.logger.Debug("dispatch", "command", verb, "args", args, "cwd", s.current)
	if err := cmd.Run(s, args); err != nil {
		s.display.DisplayError("Error: %v", err)
		return err
	}
	if s.failed {
		return ErrCommandFailed
	}
	return nil
}

// fail reports a user-facing error line and marks the running command as failed.
func (s *Shell) fail(format string, args ...any) {
	s.failed = true
	s.display.DisplayError(format, args...)
}

func (s *Shell) resolve(token string) string {
	return Resolve(token, s.current)
}

// listChildren returns the sorted children of target. A missing node lists as empty.
func (s *Shell) listChildren(target string) ([]string, error) {
	children, err := s.store.Children(target)
	if errors.Is(err, store.ErrNoNode) {
		s.logger.Debug("listing missing node", "path", target)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sorted := append([]string(nil), children...)
	sort.Strings(sorted)
	return sorted, nil
}

// splitVerb separates the first word of line from the rest.
func splitVerb(line string) (verb, rest string) {
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimLeftFunc(line[i:], unicode.IsSpace)
}

// parseArgs splits on single spaces; consecutive spaces yield empty arguments.
func parseArgs(rest string) []string {
	if rest == "" {
		return nil
	}
	return strings.Split(rest, " ")
}

// decode returns data as text, rejecting payloads that are not UTF-8.
func decode(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrBinaryContent
	}
	return string(data), nil
}
