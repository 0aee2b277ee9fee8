package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/qchaucoin/ledger/internal/crypto"

	"golang.org/x/term"
)

// passwordEnv overrides the interactive prompt, for scripts.
const passwordEnv = "QCHAU_PASSWORD"

// loadPrivateKey reads a PEM key file or opens a keystore file.
func loadPrivateKey(pemPath, keystorePath string) (string, error) {
	switch {
	case pemPath != "" && keystorePath != "":
		return "", errors.New("use only one of --key or --keystore")
	case pemPath != "":
		data, err := os.ReadFile(pemPath)
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		return string(data), nil
	case keystorePath != "":
		ks, err := crypto.ReadKeystoreFile(keystorePath)
		if err != nil {
			return "", err
		}
		password, err := readSecret("Keystore password: ")
		if err != nil {
			return "", err
		}
		defer clear(password)
		data, err := crypto.OpenKeystore(ks, password)
		if err != nil {
			return "", err
		}
		defer clear(data.PrivateKey)
		return string(data.PrivateKey), nil
	default:
		return "", errors.New("one of --key or --keystore is required")
	}
}

// resolveKey returns the key material of arg, reading it from a file when
// arg names one.
func resolveKey(arg string) (string, error) {
	if arg == "" {
		return "", errors.New("empty key")
	}
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		data, err := os.ReadFile(arg)
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		return string(data), nil
	}
	if _, err := crypto.ParsePublicKey(arg); err != nil {
		return "", fmt.Errorf("%q is neither a key file nor a public key", arg)
	}
	return arg, nil
}

// readSecret prompts on the terminal without echo.
func readSecret(prompt string) ([]byte, error) {
	if v := os.Getenv(passwordEnv); v != "" {
		return []byte(v), nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("stdin is not a terminal: set %s", passwordEnv)
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	return raw, nil
}

// writeNewFile writes data with owner-only permissions and refuses to
// overwrite an existing file.
func writeNewFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
