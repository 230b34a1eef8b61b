// Package user names the person behind a UI session.
package user

import (
	"os"
	"os/user"
	"strings"
)

// Name returns the name announced to the host in the hello frame.
// KANSYNC_USER wins, then the OS account, then $USER, then "unknown".
func Name() string {
	if name := strings.TrimSpace(os.Getenv("KANSYNC_USER")); name != "" {
		return name
	}

	if current, err := user.Current(); err == nil && current.Username != "" {
		return current.Username
	}

	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}
