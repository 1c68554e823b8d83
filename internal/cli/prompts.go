package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/mrz1836/nearconnect/internal/config"
)

// Prompt functions are variables so tests can replace them.
//
//nolint:gochecknoglobals // Test hooks for interactive input
var (
	promptSecretFn   = promptSecret
	promptMnemonicFn = promptMnemonic
	promptConfirmFn  = promptConfirm
)

// out is a helper for CLI output.
//
//nolint:errcheck // CLI output writes are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}

// promptSecret prompts for a value with hidden input.
func promptSecret(prompt string) (string, error) {
	out(os.Stderr, "%s", prompt)

	secret, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(secret), nil
}

// promptMnemonic asks for the signer's recovery phrase.
func promptMnemonic() (string, error) {
	if !term.IsTerminal(syscall.Stdin) {
		return "", fmt.Errorf("no terminal to read the recovery phrase from; set %s", config.EnvMnemonic)
	}
	phrase, err := promptSecretFn("Enter recovery phrase: ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(phrase), nil
}

// promptConfirm asks a yes/no question on stderr.
func promptConfirm(question string) bool {
	out(os.Stderr, "%s [y/N]: ", question)

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
