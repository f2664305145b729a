// Package handlers provides a collection of example (and usable) trigger handlers for instances
// of fluffy
package handlers

import (
	"github.com/alexandre-normand/fluffy"
	"regexp"
)

// Trigger phrases of the stock handlers
const (
	PingPhrase   = "ping"
	EchoPhrase   = "echo"
	WhoAmIPhrase = "whoami"
	DumpPhrase   = "dump"

	dumpComment = "here's your dump"
)

var anyArgsRegex = regexp.MustCompile(`(.+)`)

// Ping replies pong to any message mentioning ping
func Ping(userID string, text string, args ...string) (reply string, err error) {
	return "pong", nil
}

// Echo replies with the command's arguments
func Echo(userID string, text string, args ...string) (reply string, err error) {
	if len(args) == 0 {
		return "", nil
	}

	return args[0], nil
}

// WhoAmI replies with the name of the user asking
func WhoAmI(userID string, text string, args ...string) (reply string, err error) {
	return "you are " + fluffy.UserNamePlaceholder, nil
}

// Dump uploads the command's arguments as a file
func Dump(userID string, text string, args ...string) (reply string, err error) {
	if len(args) == 0 {
		return "", nil
	}

	return fluffy.UploadMarker + fluffy.UploadComment(dumpComment) + args[0], nil
}

// Register adds all the stock handlers to the builder. The version handler reports name and
// version. Dump is restricted to admins
func Register(fb *fluffy.Builder, name string, version string) *fluffy.Builder {
	return fb.
		WithListener(PingPhrase, Ping, fluffy.TriggerOptions{}).
		WithCommand(EchoPhrase, Echo, fluffy.TriggerOptions{Match: anyArgsRegex}).
		WithExact(VersionPhrase, NewVersioner(name, version), fluffy.TriggerOptions{}).
		WithExact(WhoAmIPhrase, WhoAmI, fluffy.TriggerOptions{}).
		WithCommand(DumpPhrase, Dump, fluffy.TriggerOptions{Match: anyArgsRegex, AdminOnly: true})
}
