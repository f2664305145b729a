package handlers_test

import (
	"github.com/alexandre-normand/fluffy"
	"github.com/alexandre-normand/fluffy/config"
	"github.com/alexandre-normand/fluffy/handlers"
	"github.com/alexandre-normand/fluffy/test/assertreply"
	"github.com/alexandre-normand/fluffy/test/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
)

func TestPing(t *testing.T) {
	if r, ok := assertreply.Process(t, handlers.Ping, "U1", "alphonse", "anyone there? ping"); ok {
		assertreply.HasText(t, r, "pong")
	}
}

func TestEcho(t *testing.T) {
	if r, ok := assertreply.Process(t, handlers.Echo, "U1", "alphonse", "echo Bonjour", "Bonjour"); ok {
		assertreply.HasText(t, r, "Bonjour")
	}
}

func TestEchoWithoutArgumentsDoesNotReply(t *testing.T) {
	reply, err := handlers.Echo("U1", "echo")

	assert.NoError(t, err)
	assert.Equal(t, "", reply)
}

func TestSendValidVersionMessage(t *testing.T) {
	if r, ok := assertreply.Process(t, handlers.NewVersioner("little-red", "1.0.0"), "U1", "alphonse", "version"); ok {
		assertreply.HasText(t, r, "I'm `little-red`, version `1.0.0`")
	}
}

func TestWhoAmI(t *testing.T) {
	if r, ok := assertreply.Process(t, handlers.WhoAmI, "U1", "alphonse", "whoami"); ok {
		assertreply.HasText(t, r, "you are alphonse")
	}
}

func TestDumpUploadsArguments(t *testing.T) {
	if r, ok := assertreply.Process(t, handlers.Dump, "U1", "alphonse", "dump the logs", "the logs"); ok {
		assertreply.IsUpload(t, r, "the logs", "here's your dump")
	}
}

func TestRegisteredTriggersFire(t *testing.T) {
	client := capture.NewClient(nil)
	b, err := handlers.Register(fluffy.NewBot("little-red", config.NewViperWithDefaults(), fluffy.OptionClient(client), fluffy.OptionLog(fluffy.NewSLogger(io.Discard, false))), "little-red", "1.0.0").Build()
	require.NoError(t, err)

	triggers := b.Registry().Triggers()

	tests := map[string]struct {
		text     string
		expected []string
	}{
		"Ping":              {text: "did you say PING?", expected: []string{handlers.PingPhrase}},
		"Echo":              {text: "echo hello", expected: []string{handlers.EchoPhrase}},
		"BareEcho":          {text: "echo", expected: nil},
		"Version":           {text: " version ", expected: []string{handlers.VersionPhrase}},
		"VersionInSentence": {text: "which version", expected: nil},
		"WhoAmI":            {text: "whoami", expected: []string{handlers.WhoAmIPhrase}},
		"Dump":              {text: "dump state", expected: []string{handlers.DumpPhrase}},
		"EchoPing":          {text: "echo ping", expected: []string{handlers.PingPhrase, handlers.EchoPhrase}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assertreply.Fires(t, triggers, tc.text, tc.expected...)
		})
	}
}

func TestDumpIsAdminOnly(t *testing.T) {
	client := capture.NewClient(nil)
	b, err := handlers.Register(fluffy.NewBot("little-red", config.NewViperWithDefaults(), fluffy.OptionClient(client), fluffy.OptionLog(fluffy.NewSLogger(io.Discard, false))), "little-red", "1.0.0").Build()
	require.NoError(t, err)

	for _, tr := range b.Registry().Triggers() {
		assert.Equalf(t, tr.Phrase == handlers.DumpPhrase, tr.Options.AdminOnly, "Unexpected admin restriction on [%s]", tr.Phrase)
	}
}
