package main

import (
	"bytes"
	"context"
	"github.com/alexandre-normand/fluffy"
	"github.com/alexandre-normand/fluffy/config"
	"github.com/alexandre-normand/fluffy/handlers"
	"github.com/alexandre-normand/fluffy/test/capture"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	assert.True(t, names["run"], "missing subcommand: run")
	assert.True(t, names["version"], "missing subcommand: version")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, []string{})

	assert.Equal(t, "fluffy version "+fluffy.VERSION+"\n", out.String())
}

func TestNewBotRegistersStockHandlers(t *testing.T) {
	client := capture.NewClient(&slack.UserDetails{ID: "UBOT", Name: "fluffy"})
	bot, err := newBot("fluffy", config.NewViperWithDefaults(), fluffy.OptionClient(client), fluffy.OptionLog(fluffy.NewSLogger(io.Discard, false)))

	require.NoError(t, err)
	require.NotNil(t, bot)

	phrases := make([]string, 0)
	for _, tr := range bot.Registry().Triggers() {
		phrases = append(phrases, tr.Phrase)
	}

	assert.Equal(t, []string{handlers.PingPhrase, handlers.EchoPhrase, handlers.VersionPhrase, handlers.WhoAmIPhrase, handlers.DumpPhrase}, phrases)
}

func TestConnectionFailureIsReturned(t *testing.T) {
	client := capture.NewClient(nil).WithConnectError(errors.New("invalid_auth"))
	bot, err := newBot("fluffy", config.NewViperWithDefaults(), fluffy.OptionClient(client), fluffy.OptionLog(fluffy.NewSLogger(io.Discard, false)))
	require.NoError(t, err)

	err = bot.Run(context.Background())

	var connErr *fluffy.ConnectionError
	assert.True(t, errors.As(err, &connErr))
	assert.Contains(t, err.Error(), "invalid_auth")
}
