package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Seams for tests; they keep the prompt away from the real terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
	stdinFd      = func() int { return int(os.Stdin.Fd()) }
)

// promptPrivateKey reads the deployer key from the terminal without echo.
func promptPrivateKey(w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, "Deployer private key: "); err != nil {
		return "", err
	}
	b, err := readPassword(stdinFd())
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	key := strings.TrimSpace(string(b))
	for i := range b {
		b[i] = 0
	}
	return key, nil
}
