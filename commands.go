package zkshell

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/dhamidi/zkshell/store"
)

// Command is one verb of the shell. MaxArgs < 0 means no upper bound.
type Command struct {
	Name    string
	Usage   string
	Summary string
	MinArgs int
	MaxArgs int
	Run     func(s *Shell, args []string) error
}

func (c *Command) accepts(n int) bool {
	if n < c.MinArgs {
		return false
	}
	return c.MaxArgs < 0 || n <= c.MaxArgs
}

// CommandSet maps verbs to commands.
type CommandSet map[string]*Command

func NewCommandSet() CommandSet { return CommandSet{} }

func (set CommandSet) Add(cmd *Command) CommandSet {
	set[cmd.Name] = cmd
	return set
}

func (set CommandSet) Get(name string) (cmd *Command, found bool) {
	cmd, found = set[name]
	return
}

// Names returns the verbs in sorted order.
func (set CommandSet) Names() []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// builtinCommands is the fixed verb table of the shell.
func builtinCommands() CommandSet {
	return NewCommandSet().
		Add(mkdirCommand).
		Add(rmCommand).
		Add(lsCommand).
		Add(catCommand).
		Add(editCommand).
		Add(cdCommand).
		Add(pwdCommand).
		Add(editorCommand).
		Add(setEditorCommand).
		Add(exitCommand).
		Add(helpCommand)
}

var mkdirCommand = &Command{
	Name:    "mkdir",
	Usage:   "mkdir <path> [path...]",
	Summary: "create nodes and any missing parents",
	MinArgs: 1,
	MaxArgs: -1,
	Run: func(s *Shell, args []string) error {
		for _, arg := range args {
			target := s.resolve(arg)
			s.logger.Debug("ensure", "path", target)
			if err := s.store.Ensure(target); err != nil {
				return fmt.Errorf("mkdir %s: %w", target, err)
			}
		}
		return nil
	},
}

var rmCommand = &Command{
	Name:    "rm",
	Usage:   "rm [-r] <path> [path...]",
	Summary: "delete nodes; -r deletes their children too",
	MinArgs: 1,
	MaxArgs: -1,
	Run: func(s *Shell, args []string) error {
		recursive := slices.Contains(args, "-r")
		var paths []string
		for _, arg := range args {
			if !strings.HasPrefix(arg, "-") {
				paths = append(paths, arg)
			}
		}
		if len(paths) == 0 {
			s.fail("usage: %s", "rm [-r] <path> [path...]")
			return nil
		}

		for _, arg := range paths {
			target := s.resolve(arg)
			s.logger.Debug("delete", "path", target, "recursive", recursive)
			err := s.store.Delete(target, recursive)
			switch {
			case err == nil:
			case errors.Is(err, store.ErrNotEmpty):
				s.fail("'%s' is not empty, use -r for recursive deletions", arg)
			case errors.Is(err, store.ErrNoNode):
				s.fail("Node not found: %s", target)
			default:
				return fmt.Errorf("rm %s: %w", target, err)
			}
		}
		return nil
	},
}

var lsCommand = &Command{
	Name:    "ls",
	Usage:   "ls [path...]",
	Summary: "list the children of the current or given nodes",
	MinArgs: 0,
	MaxArgs: -1,
	Run: func(s *Shell, args []string) error {
		targets := []string{s.current}
		if len(args) > 0 {
			targets = targets[:0]
			for _, arg := range args {
				targets = append(targets, s.resolve(arg))
			}
		}
		for _, target := range targets {
			children, err := s.listChildren(target)
			if err != nil {
				return fmt.Errorf("ls %s: %w", target, err)
			}
			for _, child := range children {
				s.display.Display(child)
			}
		}
		return nil
	},
}

var catCommand = &Command{
	Name:    "cat",
	Usage:   "cat <path> [path...]",
	Summary: "print the content of nodes",
	MinArgs: 1,
	MaxArgs: -1,
	Run: func(s *Shell, args []string) error {
		for _, arg := range args {
			target := s.resolve(arg)
			data, err := s.store.Get(target)
			if errors.Is(err, store.ErrNoNode) {
				s.fail("Node not found: %s", target)
				return nil
			}
			if err != nil {
				return fmt.Errorf("cat %s: %w", target, err)
			}
			text, err := decode(data)
			if err != nil {
				s.fail("Cannot show %s (%d bytes): %v", target, len(data), err)
				continue
			}
			if text != "" {
				s.display.Display(text)
			}
		}
		return nil
	},
}

var editCommand = &Command{
	Name:    "edit",
	Usage:   "edit <path>",
	Summary: "edit the content of a node with the configured editor",
	MinArgs: 1,
	MaxArgs: 1,
	Run: func(s *Shell, args []string) error {
		return s.edit(args[0])
	},
}

var cdCommand = &Command{
	Name:    "cd",
	Usage:   "cd <path>",
	Summary: "change the current path",
	MinArgs: 1,
	MaxArgs: 1,
	Run: func(s *Shell, args []string) error {
		s.current = s.resolve(args[0])
		return nil
	},
}

var pwdCommand = &Command{
	Name:    "pwd",
	Usage:   "pwd",
	Summary: "print the current path",
	MinArgs: 0,
	MaxArgs: 0,
	Run: func(s *Shell, args []string) error {
		s.display.Display(s.current)
		return nil
	},
}

var editorCommand = &Command{
	Name:    "editor",
	Usage:   "editor",
	Summary: "print the editor used by edit",
	MinArgs: 0,
	MaxArgs: 0,
	Run: func(s *Shell, args []string) error {
		if s.editor == "" {
			s.display.Display("No editor set")
			return nil
		}
		s.display.Display(s.editor)
		return nil
	},
}

var setEditorCommand = &Command{
	Name:    "set_editor",
	Usage:   "set_editor <command>",
	Summary: "choose the editor used by edit",
	MinArgs: 1,
	MaxArgs: 1,
	Run: func(s *Shell, args []string) error {
		s.editor = args[0]
		return nil
	},
}

var exitCommand = &Command{
	Name:    "exit",
	Usage:   "exit",
	Summary: "close the connection and leave the shell",
	MinArgs: 0,
	MaxArgs: -1,
	Run: func(s *Shell, args []string) error {
		s.exited = true
		return s.Close()
	},
}

var helpCommand = &Command{
	Name:    "help",
	Usage:   "help [command]",
	Summary: "list commands or show how to use one",
	MinArgs: 0,
	MaxArgs: 1,
	Run: func(s *Shell, args []string) error {
		if len(args) == 1 {
			cmd, found := s.commands.Get(args[0])
			if !found {
				s.fail("Unknown command: %s", args[0])
				return nil
			}
			s.display.Display(fmt.Sprintf("usage: %s\n  %s", cmd.Usage, cmd.Summary))
			return nil
		}
		for _, name := range s.commands.Names() {
			cmd, _ := s.commands.Get(name)
			s.display.Display(fmt.Sprintf("%-12s %s", cmd.Name, cmd.Summary))
		}
		return nil
	},
}
