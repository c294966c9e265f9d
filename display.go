package zkshell

import (
	"fmt"
	"io"
	"strings"
)

// TextDisplayer defines an interface for displaying command output.
type TextDisplayer interface {
	Display(content string)
	DisplayError(format string, args ...any)
}

// RawTextDisplay writes plain lines to a writer.
type RawTextDisplay struct {
	w io.Writer
}

// NewRawTextDisplay returns a display writing to w.
func NewRawTextDisplay(w io.Writer) *RawTextDisplay {
	return &RawTextDisplay{w: w}
}

// Display prints content followed by a newline, unless content already ends with one.
func (r *RawTextDisplay) Display(content string) {
	if strings.HasSuffix(content, "\n") {
		fmt.Fprint(r.w, content)
		return
	}
	fmt.Fprintln(r.w, content)
}

// DisplayError prints a single formatted line.
func (r *RawTextDisplay) DisplayError(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.w, strings.TrimRight(line, "\n"))
}
