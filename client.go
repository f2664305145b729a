package fluffy

import (
	"context"
	"github.com/slack-go/slack"
)

// RealTimeSession is implemented by any value that can hold a real time connection to slack
// and hand out the events it receives. SlackClient implements it over slack.RTM
type RealTimeSession interface {
	// Connect establishes the session and returns the identity of the connected bot user. A
	// rejected handshake (invalid token, network failure) is returned as an error
	Connect(ctx context.Context) (self *slack.UserDetails, err error)

	// NextEvent returns the next pending event, if any. It never blocks
	NextEvent() (e slack.RTMEvent, ok bool)

	// Ping sends a liveness probe on the session
	Ping(ctx context.Context) (err error)

	// Disconnect tears down the session
	Disconnect() (err error)
}

// MessageSender is implemented by any value that has the SendMessage method
type MessageSender interface {
	// SendMessage posts a plain text message to the channel
	SendMessage(ctx context.Context, channelID string, text string) (err error)
}

// FileUploader is implemented by any value that has the UploadFile method. The main purpose is a
// slight decoupling of the slack.Client in order for handlers and tests to capture uploads
type FileUploader interface {
	// UploadFile uploads content as a file to the channel with an optional initial comment
	UploadFile(ctx context.Context, channelID string, content string, comment string) (err error)
}

// DirectoryClient groups the lookups the Directory needs from slack
type DirectoryClient interface {
	// GetUserInfo returns the user with the given id
	GetUserInfo(ctx context.Context, userID string) (user *slack.User, err error)

	// GetUsers returns all members of the workspace
	GetUsers(ctx context.Context) (users []slack.User, err error)

	// OpenDirectChannel opens (or reuses) a direct message conversation with the user and
	// returns its channel id
	OpenDirectChannel(ctx context.Context, userID string) (channelID string, err error)

	// FindChannelByName returns the id of the channel with the given name
	FindChannelByName(ctx context.Context, name string) (channelID string, err error)
}

// Client encompasses everything the bot consumes from the messaging platform. Retries, rate
// limiting and reconnects are the responsibility of implementations
type Client interface {
	RealTimeSession
	MessageSender
	FileUploader
	DirectoryClient
}
