package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrInputRequired is returned when a prompt has no default and input
// is unavailable (--no-input, piped stdin, or closed stdin).
var ErrInputRequired = errors.New("input required but unavailable")

// Input reads one line interactively. With noInput set, or when stdin
// is not a terminal, the default is used when present and
// ErrInputRequired returned otherwise, so scripts fail loudly instead
// of hanging on a hidden prompt.
func Input(prompt, def string, noInput bool) (string, error) {
	if noInput {
		if def != "" {
			fmt.Printf("%s%s\n", prompt, def)
			return def, nil
		}
		return "", fmt.Errorf("%w: %s", ErrInputRequired, strings.TrimRight(prompt, ": "))
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		if def != "" {
			fmt.Printf("%s%s (non-interactive, using default)\n", prompt, def)
			return def, nil
		}
		return "", fmt.Errorf("%w: %s", ErrInputRequired, strings.TrimRight(prompt, ": "))
	}

	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		if errors.Is(err, io.EOF) && def != "" {
			fmt.Printf("\n%s%s (EOF, using default)\n", prompt, def)
			return def, nil
		}
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: %s", ErrInputRequired, strings.TrimRight(prompt, ": "))
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks a yes/no style question; it always has a default, so
// it never fails in non-interactive runs.
func Confirm(prompt string, noInput bool, def string) string {
	answer, err := Input(prompt, def, noInput)
	if err != nil {
		return def
	}
	if answer == "" {
		return def
	}
	return answer
}
