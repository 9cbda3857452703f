// Package process implements ports.Signer by delegating to an external wallet command.
package process

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/deploykit/pkg/ports"
)

// ErrNoCommand is returned when the signer has no command configured.
var ErrNoCommand = errors.New("no sign command configured")

// Signer runs a local command that builds and signs deployment transactions.
// The command receives the program as hex on stdin and the wallet address in
// DEPLOYKIT_WALLET_ADDRESS, and must print the signed raw transaction as hex
// on stdout.
type Signer struct {
	address string
	command string
	args    []string
	dir     string
	env     []string
}

// SignerOption configures the signer.
type SignerOption func(*Signer)

// WithDir sets the working directory for the command.
func WithDir(dir string) SignerOption {
	return func(s *Signer) {
		s.dir = dir
	}
}

// WithEnv adds KEY=VALUE pairs to the command environment.
func WithEnv(kv ...string) SignerOption {
	return func(s *Signer) {
		s.env = append(s.env, kv...)
	}
}

// NewSigner creates a signer for address running command with args.
func NewSigner(address, command string, args []string, opts ...SignerOption) *Signer {
	s := &Signer{
		address: address,
		command: command,
		args:    args,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseCommand splits a configured command line on whitespace.
// Quoting is not interpreted.
func ParseCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// Address implements ports.Signer.
func (s *Signer) Address() string {
	return s.address
}

// SignDeployment implements ports.Signer.
func (s *Signer) SignDeployment(ctx context.Context, code []byte) (string, error) {
	if s.command == "" {
		return "", ErrNoCommand
	}

	cmd := exec.CommandContext(ctx, s.command, s.args...)
	cmd.Dir = s.dir
	cmd.WaitDelay = 2 * time.Second
	cmd.Env = append(cmd.Environ(), "DEPLOYKIT_WALLET_ADDRESS="+s.address)
	cmd.Env = append(cmd.Env, s.env...)
	cmd.Stdin = strings.NewReader(hex.EncodeToString(code) + "\n")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("sign command failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	raw := strings.TrimSpace(stdout.String())
	if raw == "" {
		return "", fmt.Errorf("sign command produced no transaction")
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("sign command output is not hex: %w", err)
	}
	return raw, nil
}

var _ ports.Signer = (*Signer)(nil)
