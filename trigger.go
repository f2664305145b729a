package fluffy

import (
	"regexp"
	"strings"
	"sync"
)

// Kind is the rule that decides how a trigger's phrase is matched against a message
type Kind int

const (
	// Command triggers fire on messages starting with the phrase followed by arguments. The
	// arguments are matched against the trigger's Match expression
	Command Kind = iota
	// Listen triggers fire on messages containing the phrase anywhere (case-insensitive)
	Listen
	// Exact triggers fire on messages equal to the phrase once trimmed
	Exact
)

var kindNames = map[Kind]string{
	Command: "command",
	Listen:  "listen",
	Exact:   "exact",
}

// String returns the name of the kind
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}

	return "unknown"
}

// Handler is what gets executed when a trigger fires. It receives the sender's user id, the
// message text and the trigger's extra arguments (captured groups for commands). An empty reply
// means nothing is sent back. A returned error (or a panic) is turned into an apology reply
type Handler func(userID string, text string, args ...string) (reply string, err error)

// TriggerOptions holds the configuration of a trigger
type TriggerOptions struct {
	// Match is the expression applied to a command's arguments. Required for commands
	Match *regexp.Regexp

	// AdminOnly restricts the trigger to configured admins
	AdminOnly bool

	// TargetChannel is the name of the channel the reply goes to instead of the original one
	TargetChannel string

	// TargetUser is the name of the user whose direct message channel receives the reply. It's
	// ignored when TargetChannel is set
	TargetUser string

	// Args are the default extra arguments passed to the handler
	Args []string
}

// Trigger is a registered (kind, phrase, handler, options) rule
type Trigger struct {
	Kind    Kind
	Phrase  string
	Handler Handler
	Options TriggerOptions

	// lowered phrase used for the case-insensitive kinds
	normalizedPhrase string
}

// Registry holds triggers in registration order. Duplicates are legal and all of them are
// evaluated
type Registry struct {
	mu       sync.RWMutex
	triggers []Trigger
}

// NewRegistry returns an empty Registry
func NewRegistry() (r *Registry) {
	r = new(Registry)
	r.triggers = make([]Trigger, 0)

	return r
}

// Add validates and appends a new trigger. It returns the handler so that registration can
// happen inline with its declaration. Command triggers without a Match expression are rejected
// with a *ConfigurationError
func (r *Registry) Add(kind Kind, phrase string, handler Handler, options TriggerOptions) (h Handler, err error) {
	if _, ok := kindNames[kind]; !ok {
		return nil, &ConfigurationError{Kind: kind, Phrase: phrase, Reason: "unknown trigger kind"}
	}

	if handler == nil {
		return nil, &ConfigurationError{Kind: kind, Phrase: phrase, Reason: "handler must not be nil"}
	}

	if kind == Command && options.Match == nil {
		return nil, &ConfigurationError{Kind: kind, Phrase: phrase, Reason: `command triggers must include the "match" option`}
	}

	t := Trigger{Kind: kind, Phrase: phrase, Handler: handler, Options: options, normalizedPhrase: strings.ToLower(phrase)}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, t)

	return handler, nil
}

// Command registers a command trigger
func (r *Registry) Command(phrase string, handler Handler, options TriggerOptions) (h Handler, err error) {
	return r.Add(Command, phrase, handler, options)
}

// Listen registers a listen trigger
func (r *Registry) Listen(phrase string, handler Handler, options TriggerOptions) (h Handler, err error) {
	return r.Add(Listen, phrase, handler, options)
}

// Exact registers an exact trigger
func (r *Registry) Exact(phrase string, handler Handler, options TriggerOptions) (h Handler, err error) {
	return r.Add(Exact, phrase, handler, options)
}

// Triggers returns a copy of the registered triggers in registration order
func (r *Registry) Triggers() (triggers []Trigger) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	triggers = make([]Trigger, len(r.triggers))
	copy(triggers, r.triggers)

	return triggers
}

// Len returns the number of registered triggers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.triggers)
}
