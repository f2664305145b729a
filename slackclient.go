package fluffy

import (
	"context"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"io"
	"log"
	"strings"
)

const (
	pageSize = 200
	pingType = "ping"
)

var errNotConnected = errors.New("rtm session not connected")

// SlackClient is the default Client implementation. It holds a slack.Client for the web api and
// the slack.RTM once connected
type SlackClient struct {
	api            *slack.Client
	rtm            *slack.RTM
	uploadFilename string
}

// NewSlackClient creates a new SlackClient for the token. The slack library's own logging goes to
// slackLog and is verbose when debug is true. Uploads are named uploadFilename
func NewSlackClient(token string, uploadFilename string, debug bool, slackLog io.Writer) (c *SlackClient) {
	return newSlackClient(token, uploadFilename,
		slack.OptionDebug(debug),
		slack.OptionLog(log.New(slackLog, "slack: ", log.Lshortfile|log.LstdFlags)),
	)
}

func newSlackClient(token string, uploadFilename string, options ...slack.Option) (c *SlackClient) {
	c = new(SlackClient)
	c.uploadFilename = uploadFilename
	c.api = slack.New(token, options...)

	return c
}

// Connect starts the rtm connection management and waits until slack confirms the connection.
// Invalid credentials or a failed connection attempt abort the connection instead of letting the
// rtm retry
func (c *SlackClient) Connect(ctx context.Context) (self *slack.UserDetails, err error) {
	c.rtm = c.api.NewRTM()
	go c.rtm.ManageConnection()

	for {
		select {
		case <-ctx.Done():
			c.rtm.Disconnect()
			return nil, errors.Wrap(ctx.Err(), "gave up waiting for rtm connection")

		case e, ok := <-c.rtm.IncomingEvents:
			if !ok {
				return nil, errors.New("rtm events closed before connection was established")
			}

			switch ev := e.Data.(type) {
			case *slack.ConnectedEvent:
				if ev.Info == nil || ev.Info.User == nil {
					c.rtm.Disconnect()
					return nil, errors.New("connected without a bot identity")
				}

				return ev.Info.User, nil

			case *slack.InvalidAuthEvent:
				c.rtm.Disconnect()
				return nil, ErrInvalidCredentials

			case *slack.ConnectionErrorEvent:
				c.rtm.Disconnect()
				if ev.ErrorObj == nil {
					return nil, errors.Errorf("rtm connection attempt [%d] failed", ev.Attempt)
				}

				return nil, errors.Wrapf(ev.ErrorObj, "rtm connection attempt [%d] failed", ev.Attempt)
			}
		}
	}
}

// NextEvent returns the next pending rtm event without blocking
func (c *SlackClient) NextEvent() (e slack.RTMEvent, ok bool) {
	if c.rtm == nil {
		return e, false
	}

	select {
	case e, ok = <-c.rtm.IncomingEvents:
		return e, ok
	default:
		return e, false
	}
}

// Ping sends an rtm ping frame
func (c *SlackClient) Ping(ctx context.Context) (err error) {
	if c.rtm == nil {
		return errNotConnected
	}

	m := c.rtm.NewOutgoingMessage("", "")
	m.Type = pingType
	c.rtm.SendMessage(m)

	return nil
}

// Disconnect closes the rtm connection, if any
func (c *SlackClient) Disconnect() (err error) {
	if c.rtm == nil {
		return nil
	}

	return c.rtm.Disconnect()
}

// SendMessage posts a message as the bot user
func (c *SlackClient) SendMessage(ctx context.Context, channelID string, text string) (err error) {
	_, _, err = c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false), slack.MsgOptionAsUser(true))
	if err != nil {
		return errors.Wrapf(err, "failed to post message to [%s]", channelID)
	}

	return nil
}

// UploadFile uploads content as a file shared to the channel
func (c *SlackClient) UploadFile(ctx context.Context, channelID string, content string, comment string) (err error) {
	_, err = c.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Content:        content,
		FileSize:       len(content),
		Filename:       c.uploadFilename,
		Channel:        channelID,
		InitialComment: comment,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to upload file to [%s]", channelID)
	}

	return nil
}

// GetUserInfo loads a user from slack
func (c *SlackClient) GetUserInfo(ctx context.Context, userID string) (user *slack.User, err error) {
	user, err = c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get user info for [%s]", userID)
	}

	return user, nil
}

// GetUsers loads all members of the workspace
func (c *SlackClient) GetUsers(ctx context.Context) (users []slack.User, err error) {
	users, err = c.api.GetUsersContext(ctx, slack.GetUsersOptionLimit(pageSize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	return users, nil
}

// OpenDirectChannel opens a direct message conversation with the user
func (c *SlackClient) OpenDirectChannel(ctx context.Context, userID string) (channelID string, err error) {
	ch, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{Users: []string{userID}})
	if err != nil {
		return "", errors.Wrapf(err, "failed to open direct channel with [%s]", userID)
	}

	return ch.ID, nil
}

// FindChannelByName pages through public and private conversations looking for a channel
// named name. A leading '#' is ignored
func (c *SlackClient) FindChannelByName(ctx context.Context, name string) (channelID string, err error) {
	name = strings.TrimPrefix(name, "#")

	cursor := ""
	for {
		channels, next, err := c.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Cursor:          cursor,
			Limit:           pageSize,
			ExcludeArchived: true,
			Types:           []string{"public_channel", "private_channel"},
		})
		if err != nil {
			return "", errors.Wrapf(err, "failed to list channels looking for [%s]", name)
		}

		for _, ch := range channels {
			if ch.Name == name {
				return ch.ID, nil
			}
		}

		if next == "" {
			return "", errors.Errorf("channel [%s] not found", name)
		}

		cursor = next
	}
}
