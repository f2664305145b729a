package fluffy_test

import (
	"github.com/alexandre-normand/fluffy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"regexp"
	"testing"
)

func noop(userID string, text string, args ...string) (reply string, err error) {
	return "", nil
}

func TestRegistrationValidation(t *testing.T) {
	tests := map[string]struct {
		kind          fluffy.Kind
		handler       fluffy.Handler
		options       fluffy.TriggerOptions
		expectedError string
	}{
		"CommandWithMatch": {
			kind:    fluffy.Command,
			handler: noop,
			options: fluffy.TriggerOptions{Match: regexp.MustCompile(`(.+)`)},
		},
		"CommandWithoutMatch": {
			kind:          fluffy.Command,
			handler:       noop,
			expectedError: `invalid command trigger [phrase]: command triggers must include the "match" option`,
		},
		"Listen": {
			kind:    fluffy.Listen,
			handler: noop,
		},
		"Exact": {
			kind:    fluffy.Exact,
			handler: noop,
		},
		"NilHandler": {
			kind:          fluffy.Exact,
			expectedError: "invalid exact trigger [phrase]: handler must not be nil",
		},
		"UnknownKind": {
			kind:          fluffy.Kind(42),
			handler:       noop,
			expectedError: "invalid unknown trigger [phrase]: unknown trigger kind",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			r := fluffy.NewRegistry()
			h, err := r.Add(tc.kind, "phrase", tc.handler, tc.options)

			if tc.expectedError == "" {
				assert.NoError(t, err)
				assert.NotNil(t, h)
				assert.Equal(t, 1, r.Len())
			} else {
				assert.EqualError(t, err, tc.expectedError)

				var cfgErr *fluffy.ConfigurationError
				assert.ErrorAs(t, err, &cfgErr)
				assert.Nil(t, h)
				assert.Equal(t, 0, r.Len())
			}
		})
	}
}

func TestRegistrationPreservesOrderAndDuplicates(t *testing.T) {
	r := fluffy.NewRegistry()

	_, err := r.Listen("ping", noop, fluffy.TriggerOptions{})
	require.NoError(t, err)
	_, err = r.Exact("version", noop, fluffy.TriggerOptions{})
	require.NoError(t, err)
	_, err = r.Listen("ping", noop, fluffy.TriggerOptions{})
	require.NoError(t, err)
	_, err = r.Command("echo", noop, fluffy.TriggerOptions{Match: regexp.MustCompile(`(.+)`)})
	require.NoError(t, err)

	triggers := r.Triggers()
	require.Len(t, triggers, 4)

	kinds := []fluffy.Kind{fluffy.Listen, fluffy.Exact, fluffy.Listen, fluffy.Command}
	phrases := []string{"ping", "version", "ping", "echo"}
	for i, tr := range triggers {
		assert.Equal(t, kinds[i], tr.Kind)
		assert.Equal(t, phrases[i], tr.Phrase)
	}
}

func TestTriggersReturnsACopy(t *testing.T) {
	r := fluffy.NewRegistry()
	_, err := r.Listen("ping", noop, fluffy.TriggerOptions{})
	require.NoError(t, err)

	triggers := r.Triggers()
	triggers[0].Phrase = "pong"

	assert.Equal(t, "ping", r.Triggers()[0].Phrase)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "command", fluffy.Command.String())
	assert.Equal(t, "listen", fluffy.Listen.String())
	assert.Equal(t, "exact", fluffy.Exact.String())
	assert.Equal(t, "unknown", fluffy.Kind(-1).String())
}
