//go:build !darwin

package applemail

import "context"

// Supported reports whether Mail.app scripting is available.
func Supported() bool { return false }

type osascriptRunner struct{}

func (osascriptRunner) Run(context.Context, string) (string, error) {
	return "", ErrUnsupportedPlatform
}
