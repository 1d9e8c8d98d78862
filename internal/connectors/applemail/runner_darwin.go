//go:build darwin

package applemail

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Supported reports whether Mail.app scripting is available.
func Supported() bool { return true }

// osascriptRunner feeds the script to osascript on stdin.
type osascriptRunner struct{}

func (osascriptRunner) Run(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-")
	cmd.Stdin = strings.NewReader(script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("osascript: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSuffix(stdout.String(), "\n"), nil
}
