package auth

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// loginTimeout bounds the external helper: a headless browser login can take
// a minute, not five.
const loginTimeout = 3 * time.Minute

// Refresher obtains a fresh bearer token. Treated as slow and fallible.
type Refresher interface {
	FetchToken(ctx context.Context) (string, error)
}

// CommandRefresher shells out to the configured login helper, which performs
// the interactive/browser login flow and prints the token on stdout.
type CommandRefresher struct {
	command   string
	schoolURL string
	username  string
	password  string
}

// NewCommandRefresher builds a refresher around the LOGIN_COMMAND helper.
// Credentials are forwarded through the environment, never on the command
// line.
func NewCommandRefresher(command, schoolURL, username, password string) *CommandRefresher {
	return &CommandRefresher{command: command, schoolURL: schoolURL, username: username, password: password}
}

// FetchToken runs the helper and returns its trimmed stdout as the token.
func (r *CommandRefresher) FetchToken(ctx context.Context) (string, error) {
	if r.command == "" {
		return "", fmt.Errorf("auth: LOGIN_COMMAND is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", r.command)
	cmd.Env = append(cmd.Environ(),
		"SCHOOL_URL="+r.schoolURL,
		"MAGISTER_USERNAME="+r.username,
		"MAGISTER_PASSWORD="+r.password,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("auth: login helper failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	token := strings.TrimSpace(stdout.String())
	if token == "" {
		return "", fmt.Errorf("auth: login helper printed no token")
	}
	return token, nil
}
