// Package mocks contains mocks of the fluffy client interfaces
package mocks

import (
	"context"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/mock"
)

// DirectoryClient holds a mock implementation of fluffy.DirectoryClient
type DirectoryClient struct {
	mock.Mock
}

// GetUserInfo mocks an implementation of GetUserInfo
func (m *DirectoryClient) GetUserInfo(ctx context.Context, userID string) (user *slack.User, err error) {
	args := m.Called(ctx, userID)

	if u := args.Get(0); u != nil {
		user = u.(*slack.User)
	}

	return user, args.Error(1)
}

// GetUsers mocks an implementation of GetUsers
func (m *DirectoryClient) GetUsers(ctx context.Context) (users []slack.User, err error) {
	args := m.Called(ctx)

	if u := args.Get(0); u != nil {
		users = u.([]slack.User)
	}

	return users, args.Error(1)
}

// OpenDirectChannel mocks an implementation of OpenDirectChannel
func (m *DirectoryClient) OpenDirectChannel(ctx context.Context, userID string) (channelID string, err error) {
	args := m.Called(ctx, userID)

	return args.String(0), args.Error(1)
}

// FindChannelByName mocks an implementation of FindChannelByName
func (m *DirectoryClient) FindChannelByName(ctx context.Context, name string) (channelID string, err error) {
	args := m.Called(ctx, name)

	return args.String(0), args.Error(1)
}
