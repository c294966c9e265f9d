package main

import (
	"fmt"
	"os"
	"strings"
)

// die prints a formatted error message to stderr and exits with status 1.
func die(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	if !strings.HasSuffix(format, "\n") {
		fmt.Fprintln(os.Stderr) // Add a newline if not already present
	}
	os.Exit(1)
}
