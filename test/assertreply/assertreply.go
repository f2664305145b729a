// Package assertreply provides testing functions to validate what a handler replies once its
// reply has been processed as it would be before delivery
package assertreply

import (
	"github.com/alexandre-normand/fluffy"
	"github.com/stretchr/testify/assert"
	"testing"
)

// Process runs the handler for the message and processes its reply, resolving the user name
// placeholder to userName. It fails the test if the handler returns an error
func Process(t *testing.T, h fluffy.Handler, userID string, userName string, text string, args ...string) (r fluffy.Response, ok bool) {
	reply, err := h(userID, text, args...)
	if !assert.NoErrorf(t, err, "Handler for [%s] should not fail", text) {
		return r, false
	}

	return fluffy.ProcessResponse(reply, userID, func(id string) string {
		if id == userID {
			return userName
		}

		return ""
	}), true
}

// HasText asserts that the response is a message with the expected text
func HasText(t *testing.T, r fluffy.Response, text string) bool {
	if assert.Falsef(t, r.IsUpload, "Response expected to be a message but was an upload of [%s]", r.Text) {
		return assert.Equalf(t, text, r.Text, "Response text expected to be [%s] but was [%s]", text, r.Text)
	}
	return false
}

// HasTextContaining asserts that the response's text contains the expected subString
func HasTextContaining(t *testing.T, r fluffy.Response, subString string) bool {
	return assert.Containsf(t, r.Text, subString, "Response expected to have text containing [%s] but its text [%s] didn't", subString, r.Text)
}

// IsUpload asserts that the response is an upload of content with the given comment
func IsUpload(t *testing.T, r fluffy.Response, content string, comment string) bool {
	if assert.Truef(t, r.IsUpload, "Response expected to be an upload but was a message [%s]", r.Text) {
		return assert.Equalf(t, content, r.Text, "Upload content expected to be [%s] but was [%s]", content, r.Text) &&
			assert.Equalf(t, comment, r.UploadComment, "Upload comment expected to be [%s] but was [%s]", comment, r.UploadComment)
	}
	return false
}

// Fires asserts that the text fires exactly the triggers with the given phrases, in order
func Fires(t *testing.T, triggers []fluffy.Trigger, text string, phrases ...string) bool {
	fired := make([]string, 0)
	for _, m := range fluffy.MatchTriggers(triggers, text) {
		fired = append(fired, m.Phrase)
	}

	if phrases == nil {
		phrases = []string{}
	}

	return assert.Equalf(t, phrases, fired, "Message [%s] expected to fire %v but fired %v", text, phrases, fired)
}
