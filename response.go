package fluffy

import (
	"regexp"
	"strings"
)

const (
	// UploadMarker in a reply requests delivery of the reply as a file upload
	UploadMarker = "{upload}"

	// UserNamePlaceholder in a reply is replaced by the name of the user who triggered it
	UserNamePlaceholder = "{user.name}"

	commentStart = `{comment.start:"`
	commentEnd   = `":comment.end}`
)

var (
	uploadMarkerRegex    = regexp.MustCompile(`\s*` + regexp.QuoteMeta(UploadMarker) + `\s*`)
	commentWrapperRegex  = regexp.MustCompile(`\s*` + regexp.QuoteMeta(commentStart) + `(.*?)` + regexp.QuoteMeta(commentEnd) + `\s*`)
	directiveReplacement = " "
)

// Response is a handler reply once in-band directives have been applied
type Response struct {
	Text          string
	IsUpload      bool
	UploadComment string
}

// UploadComment returns the comment wrapper directive for comment. Handlers can append it right
// after the UploadMarker to caption an upload
func UploadComment(comment string) string {
	return commentStart + comment + commentEnd
}

// NameResolver returns the display name of a user or an empty string if it can't be resolved
type NameResolver func(userID string) (name string)

// ProcessResponse applies the in-band directives of a reply. The upload marker (and an optional
// comment wrapper) are extracted first and then every user name placeholder is replaced by the
// name of userID
func ProcessResponse(text string, userID string, resolveName NameResolver) (r Response) {
	r.Text = text

	if strings.Contains(r.Text, UploadMarker) {
		r.IsUpload = true
		r.Text, r.UploadComment = extractUpload(r.Text)
	}

	if strings.Contains(r.Text, UserNamePlaceholder) {
		if name := resolveName(userID); name != "" {
			r.Text = strings.Replace(r.Text, UserNamePlaceholder, name, -1)
		}
	}

	return r
}

// extractUpload strips the upload marker and the first comment wrapper (if present) from text.
// The whitespace around each directive collapses to a single space
func extractUpload(text string) (content string, comment string) {
	content = strings.TrimSpace(uploadMarkerRegex.ReplaceAllString(text, directiveReplacement))

	if m := commentWrapperRegex.FindStringSubmatchIndex(content); m != nil {
		comment = content[m[2]:m[3]]
		content = strings.TrimSpace(content[:m[0]] + directiveReplacement + content[m[1]:])
	}

	return content, comment
}
