package zkshell

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dhamidi/zkshell/store"
	"github.com/spf13/afero"
)

// EditorFunc opens file in editor and returns once the editor exits.
type EditorFunc func(editor, file string) error

// RunEditor starts editor on file attached to the current terminal. The
// editor command is split on whitespace, so "code --wait" works.
func RunEditor(editor, file string) error {
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("no editor command")
	}
	cmd := exec.Command(parts[0], append(parts[1:], file)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// edit fetches a node into a scratch file, lets the user change it in the
// editor and writes it back when the text differs. The scratch file never
// outlives the call.
func (s *Shell) edit(token string) error {
	target := s.resolve(token)

	data, err := s.store.Get(target)
	if errors.Is(err, store.ErrNoNode) {
		s.fail("Node not found: %s", target)
		return nil
	}
	if err != nil {
		return fmt.Errorf("edit %s: %w", target, err)
	}
	original, err := decode(data)
	if err != nil {
		s.fail("Cannot edit %s (%d bytes): %v", target, len(data), err)
		return nil
	}

	scratch, err := afero.TempFile(s.fs, s.scratchDir, scratchPattern(target))
	if err != nil {
		return fmt.Errorf("edit %s: failed to create scratch file: %w", target, err)
	}
	scratchPath := scratch.Name()
	defer func() {
		if err := s.fs.Remove(scratchPath); err != nil {
			s.logger.Warn("failed to remove scratch file", "path", scratchPath, "error", err)
		}
	}()
	s.logger.Debug("scratch file created", "node", target, "scratch", scratchPath)

	if err := writeScratch(scratch, original); err != nil {
		return fmt.Errorf("edit %s: %w", target, err)
	}

	if s.editor == "" {
		s.fail("No default editor found, use set_editor to choose your default editor first")
		return nil
	}
	if err := s.launch(s.editor, scratchPath); err != nil {
		return fmt.Errorf("editor %q: %w", s.editor, err)
	}

	changed, err := afero.ReadFile(s.fs, scratchPath)
	if err != nil {
		return fmt.Errorf("edit %s: failed to read scratch file: %w", target, err)
	}
	if string(changed) == original {
		s.display.Display(fmt.Sprintf("No changes made on %s", target))
		return nil
	}

	s.logger.Debug("writing back", "path", target, "bytes", len(changed))
	if err := s.store.Set(target, changed); err != nil {
		return fmt.Errorf("edit %s: %w", target, err)
	}
	return nil
}

// writeScratch stores content in f, flushes it to storage and closes f.
func writeScratch(f afero.File, content string) error {
	if content != "" {
		if _, err := f.WriteString(content); err != nil {
			f.Close()
			return fmt.Errorf("failed to write scratch file: %w", err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return fmt.Errorf("failed to sync scratch file: %w", err)
		}
	}
	return f.Close()
}

// scratchPattern names scratch files zk-<random>-<last segment of target>.
func scratchPattern(target string) string {
	name := target[strings.LastIndex(target, "/")+1:]
	return "zk-*-" + strings.ReplaceAll(name, "*", "_")
}
