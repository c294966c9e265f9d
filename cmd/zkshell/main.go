package main

import (
	"errors"
	"os"
)

func main() {
	if err := execute(os.Args[1:]); err != nil {
		if errors.Is(err, errReported) {
			os.Exit(1)
		}
		die("Error: %v", err)
	}
}
