package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/semmy-space/tasq/internal/output"
)

// prompt prints a prompt and reads a line of input
func prompt(fp *FormatterProvider, reader *bufio.Reader, text string) string {
	fmt.Fprint(fp.Err, text)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// readSecret reads a value without echo when stdin is a terminal, and a
// plain line otherwise (e.g. piped input).
func readSecret(fp *FormatterProvider, reader *bufio.Reader, text string) (string, error) {
	if f, ok := fp.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(fp.Err, text)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(fp.Err)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return prompt(fp, reader, text), nil
}

// confirm asks a yes/no question for destructive operations.
// --force skips the question, --no-input refuses instead of asking.
func confirm(fp *FormatterProvider, globals *Globals, question string) error {
	if globals.Force {
		return nil
	}
	if globals.NoInput {
		return output.NewCLIError(output.ExitUsage, "Confirmation required").
			WithHint("Re-run with --force")
	}

	answer := prompt(fp, bufio.NewReader(fp.In), question+" [y/N]: ")
	switch strings.ToLower(answer) {
	case "y", "yes":
		return nil
	default:
		return output.NewCLIError(output.ExitGeneral, "Aborted")
	}
}
