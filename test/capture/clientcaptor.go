// Package capture provides an in-memory slack client that feeds scripted events to a bot and
// captures what the bot sends back
package capture

import (
	"context"
	"fmt"
	"github.com/slack-go/slack"
	"strings"
	"sync"
)

// SentMessage is a message sent through the captor
type SentMessage struct {
	ChannelID string
	Text      string
}

// Upload is a file upload sent through the captor
type Upload struct {
	ChannelID string
	Content   string
	Comment   string
}

// ClientCaptor is an in-memory client. It knows a fixed set of users and channels, hands out
// queued events and records messages and uploads. Direct channels are named D<userID>. It's
// safe for concurrent use
type ClientCaptor struct {
	mu sync.Mutex

	self       *slack.UserDetails
	connectErr error
	sendErr    error

	users    []slack.User
	channels map[string]string
	events   []slack.RTMEvent

	sentMessages []SentMessage
	uploads      []Upload
	pings        int
	disconnected bool
}

// NewClient returns a new ClientCaptor connecting as self and knowing the given users
func NewClient(self *slack.UserDetails, users ...slack.User) (c *ClientCaptor) {
	c = new(ClientCaptor)
	c.self = self
	c.users = users
	c.channels = make(map[string]string)
	c.events = make([]slack.RTMEvent, 0)
	c.sentMessages = make([]SentMessage, 0)
	c.uploads = make([]Upload, 0)

	return c
}

// WithChannel adds a known channel
func (c *ClientCaptor) WithChannel(name string, channelID string) *ClientCaptor {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.channels[name] = channelID

	return c
}

// WithConnectError makes Connect fail with err
func (c *ClientCaptor) WithConnectError(err error) *ClientCaptor {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connectErr = err

	return c
}

// WithSendError makes SendMessage and UploadFile fail with err
func (c *ClientCaptor) WithSendError(err error) *ClientCaptor {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sendErr = err

	return c
}

// QueueEvents appends events to be handed out by NextEvent
func (c *ClientCaptor) QueueEvents(events ...slack.RTMEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, events...)
}

// QueueMessage appends a new message event from the user in the channel
func (c *ClientCaptor) QueueMessage(userID string, channelID string, text string) {
	c.QueueEvents(NewMessageEvent(userID, channelID, text))
}

// NewMessageEvent returns a new message event from the user in the channel
func NewMessageEvent(userID string, channelID string, text string) (e slack.RTMEvent) {
	msgEvent := new(slack.MessageEvent)
	msgEvent.Type = "message"
	msgEvent.User = userID
	msgEvent.Channel = channelID
	msgEvent.Text = text

	e.Type = "message"
	e.Data = msgEvent

	return e
}

// Connect returns the configured identity or connection error
func (c *ClientCaptor) Connect(ctx context.Context) (self *slack.UserDetails, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connectErr != nil {
		return nil, c.connectErr
	}

	return c.self, nil
}

// NextEvent pops the next queued event
func (c *ClientCaptor) NextEvent() (e slack.RTMEvent, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.events) == 0 {
		return e, false
	}

	e = c.events[0]
	c.events = c.events[1:]

	return e, true
}

// Ping counts a ping
func (c *ClientCaptor) Ping(ctx context.Context) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pings++

	return nil
}

// Disconnect records the disconnection
func (c *ClientCaptor) Disconnect() (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disconnected = true

	return nil
}

// SendMessage captures a sent message
func (c *ClientCaptor) SendMessage(ctx context.Context, channelID string, text string) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sendErr != nil {
		return c.sendErr
	}

	c.sentMessages = append(c.sentMessages, SentMessage{ChannelID: channelID, Text: text})

	return nil
}

// UploadFile captures an upload
func (c *ClientCaptor) UploadFile(ctx context.Context, channelID string, content string, comment string) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sendErr != nil {
		return c.sendErr
	}

	c.uploads = append(c.uploads, Upload{ChannelID: channelID, Content: content, Comment: comment})

	return nil
}

// GetUserInfo returns the known user with the id
func (c *ClientCaptor) GetUserInfo(ctx context.Context, userID string) (user *slack.User, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.users {
		if c.users[i].ID == userID {
			u := c.users[i]
			return &u, nil
		}
	}

	return nil, fmt.Errorf("user_not_found: [%s]", userID)
}

// GetUsers returns all known users
func (c *ClientCaptor) GetUsers(ctx context.Context) (users []slack.User, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	users = make([]slack.User, len(c.users))
	copy(users, c.users)

	return users, nil
}

// OpenDirectChannel returns D<userID> for known users
func (c *ClientCaptor) OpenDirectChannel(ctx context.Context, userID string) (channelID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, u := range c.users {
		if u.ID == userID {
			return "D" + userID, nil
		}
	}

	return "", fmt.Errorf("user_not_found: [%s]", userID)
}

// FindChannelByName returns the id of a known channel. A leading # is ignored
func (c *ClientCaptor) FindChannelByName(ctx context.Context, name string) (channelID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.channels[strings.TrimPrefix(name, "#")]; ok {
		return id, nil
	}

	return "", fmt.Errorf("channel_not_found: [%s]", name)
}

// SentMessages returns a copy of the captured messages
func (c *ClientCaptor) SentMessages() (sent []SentMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sent = make([]SentMessage, len(c.sentMessages))
	copy(sent, c.sentMessages)

	return sent
}

// Uploads returns a copy of the captured uploads
func (c *ClientCaptor) Uploads() (uploads []Upload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	uploads = make([]Upload, len(c.uploads))
	copy(uploads, c.uploads)

	return uploads
}

// PendingEvents returns the number of queued events not handed out yet
func (c *ClientCaptor) PendingEvents() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.events)
}

// Pings returns the number of pings
func (c *ClientCaptor) Pings() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pings
}

// Disconnected returns true once Disconnect has been called
func (c *ClientCaptor) Disconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.disconnected
}
