package fluffy

import (
	"go.opentelemetry.io/otel/metric"
)

// Option defines an option for a Bot
type Option func(*Bot)

// OptionLog sets a logger for the bot. It takes precedence over OptionLogfile
func OptionLog(logger SLogger) Option {
	return func(b *Bot) {
		b.log = logger
	}
}

// OptionLogfile sets a rotating log file for the bot's logs ('~' is expanded). It overrides the
// logFile configuration
func OptionLogfile(path string) Option {
	return func(b *Bot) {
		b.logfile = path
	}
}

// OptionClient sets the client used to talk to slack instead of the default SlackClient built
// from the configured token
func OptionClient(client Client) Option {
	return func(b *Bot) {
		b.client = client
	}
}

// OptionMeter sets the meter used to create the bot's metrics instead of the one from the
// global meter provider
func OptionMeter(meter metric.Meter) Option {
	return func(b *Bot) {
		b.meter = meter
	}
}

// OptionDispatchPolicy sets the dispatch policy instead of the configured one
func OptionDispatchPolicy(p DispatchPolicy) Option {
	return func(b *Bot) {
		b.policy = p
	}
}
