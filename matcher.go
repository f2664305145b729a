package fluffy

import (
	"strings"
)

// Match is a trigger that fired for a message along with the extra arguments its handler
// should receive
type Match struct {
	Trigger
	Args []string
}

// MatchTriggers evaluates every trigger, in order, against the message text and returns all of
// those that fire. Matching doesn't stop at the first hit so a single message can fire many
// triggers
func MatchTriggers(triggers []Trigger, text string) (matches []Match) {
	matches = make([]Match, 0)
	if text == "" {
		return matches
	}

	lowered := strings.ToLower(text)
	trimmed := strings.TrimSpace(text)

	for _, t := range triggers {
		switch t.Kind {
		case Command:
			if args, ok := matchCommand(t, text, lowered); ok {
				matches = append(matches, Match{Trigger: t, Args: args})
			}

		case Listen:
			if strings.Contains(lowered, t.normalizedPhrase) {
				matches = append(matches, Match{Trigger: t, Args: t.Options.Args})
			}

		case Exact:
			if trimmed == t.Phrase {
				matches = append(matches, Match{Trigger: t, Args: t.Options.Args})
			}
		}
	}

	return matches
}

// matchCommand returns true if the message is the command's phrase followed by arguments. The
// arguments are matched against the command's expression (anchored at the start of the
// arguments): captured groups become the handler arguments. Without a match, the trigger's
// default arguments are used
func matchCommand(t Trigger, text string, lowered string) (args []string, ok bool) {
	prefix := t.normalizedPhrase + " "
	if !strings.HasPrefix(lowered, prefix) || strings.TrimSpace(lowered) == t.normalizedPhrase {
		return nil, false
	}

	var rest string
	if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
		rest = text[len(prefix):]
	} else {
		// Lowering changed byte lengths so fall back on the lowered arguments
		rest = lowered[len(prefix):]
	}

	supplied := strings.TrimSpace(rest)

	loc := t.Options.Match.FindStringSubmatchIndex(supplied)
	if loc == nil || loc[0] != 0 {
		return t.Options.Args, true
	}

	args = make([]string, 0, len(loc)/2-1)
	for i := 2; i+1 < len(loc); i += 2 {
		if loc[i] < 0 {
			args = append(args, "")
		} else {
			args = append(args, supplied[loc[i]:loc[i+1]])
		}
	}

	return args, true
}
