package fluffy

import (
	"github.com/spf13/viper"
	"io"
)

// Builder holds a bot instance to build
type Builder struct {
	bot *Bot
	err error
}

// NewBot returns a new Builder used to set up a new bot
func NewBot(name string, v *viper.Viper, options ...Option) (fb *Builder) {
	fb = new(Builder)
	fb.bot, fb.err = New(name, v, options...)

	return fb
}

// WithCommand registers a command trigger
func (fb *Builder) WithCommand(phrase string, handler Handler, options TriggerOptions) *Builder {
	return fb.withTrigger(Command, phrase, handler, options)
}

// WithListener registers a listen trigger
func (fb *Builder) WithListener(phrase string, handler Handler, options TriggerOptions) *Builder {
	return fb.withTrigger(Listen, phrase, handler, options)
}

// WithExact registers an exact trigger
func (fb *Builder) WithExact(phrase string, handler Handler, options TriggerOptions) *Builder {
	return fb.withTrigger(Exact, phrase, handler, options)
}

// WithCloser adds a closer to be closed along with the bot (with Bot.Close)
func (fb *Builder) WithCloser(closer io.Closer) *Builder {
	if fb.err != nil || closer == nil {
		return fb
	}

	fb.bot.closers = append(fb.bot.closers, closer)

	return fb
}

func (fb *Builder) withTrigger(kind Kind, phrase string, handler Handler, options TriggerOptions) *Builder {
	if fb.err != nil {
		return fb
	}

	_, fb.err = fb.bot.registry.Add(kind, phrase, handler, options)

	return fb
}

// Build returns the built bot. If there was an error during
// setup, the first error is returned along with a nil bot
func (fb *Builder) Build() (b *Bot, err error) {
	if fb.err != nil {
		return nil, fb.err
	}

	return fb.bot, nil
}
