package handlers

import (
	"fmt"
	"github.com/alexandre-normand/fluffy"
)

// VersionPhrase is the exact message the versioner replies to
const VersionPhrase = "version"

// NewVersioner creates a new handler replying with the bot's name and version
func NewVersioner(name string, version string) fluffy.Handler {
	return func(userID string, text string, args ...string) (reply string, err error) {
		return fmt.Sprintf("I'm `%s`, version `%s`", name, version), nil
	}
}
