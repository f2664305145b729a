package fluffy_test

import (
	"github.com/alexandre-normand/fluffy"
	"github.com/stretchr/testify/assert"
	"testing"
)

func resolveAlice(userID string) string {
	if userID == "U1" {
		return "alice"
	}

	return ""
}

func TestProcessResponse(t *testing.T) {
	tests := map[string]struct {
		text     string
		userID   string
		expected fluffy.Response
	}{
		"PlainText": {
			text:     "hello",
			userID:   "U1",
			expected: fluffy.Response{Text: "hello"},
		},
		"UploadWithComment": {
			text:     `here {upload} {comment.start:"report":comment.end}file contents`,
			userID:   "U1",
			expected: fluffy.Response{Text: "here file contents", IsUpload: true, UploadComment: "report"},
		},
		"UploadWithoutComment": {
			text:     "{upload} some data ",
			userID:   "U1",
			expected: fluffy.Response{Text: "some data", IsUpload: true},
		},
		"UploadWithLeadingComment": {
			text:     `{upload}{comment.start:"logs":comment.end}line 1`,
			userID:   "U1",
			expected: fluffy.Response{Text: "line 1", IsUpload: true, UploadComment: "logs"},
		},
		"CommentWithoutUploadIsLeftAlone": {
			text:     `{comment.start:"logs":comment.end}line 1`,
			userID:   "U1",
			expected: fluffy.Response{Text: `{comment.start:"logs":comment.end}line 1`},
		},
		"Placeholder": {
			text:     "hi {user.name}!",
			userID:   "U1",
			expected: fluffy.Response{Text: "hi alice!"},
		},
		"EveryPlaceholder": {
			text:     "{user.name}, {user.name}",
			userID:   "U1",
			expected: fluffy.Response{Text: "alice, alice"},
		},
		"UnresolvablePlaceholder": {
			text:     "hi {user.name}!",
			userID:   "U2",
			expected: fluffy.Response{Text: "hi {user.name}!"},
		},
		"UploadWithPlaceholder": {
			text:     "{upload} report for {user.name}",
			userID:   "U1",
			expected: fluffy.Response{Text: "report for alice", IsUpload: true},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, fluffy.ProcessResponse(tc.text, tc.userID, resolveAlice))
		})
	}
}

func TestUploadCommentRoundTrip(t *testing.T) {
	r := fluffy.ProcessResponse(fluffy.UploadMarker+fluffy.UploadComment("a comment")+"content", "U1", resolveAlice)

	assert.Equal(t, fluffy.Response{Text: "content", IsUpload: true, UploadComment: "a comment"}, r)
}

func TestNameIsNotResolvedWithoutPlaceholder(t *testing.T) {
	resolved := false
	fluffy.ProcessResponse("hello", "U1", func(userID string) string {
		resolved = true
		return "alice"
	})

	assert.False(t, resolved)
}
