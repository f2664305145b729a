package fluffy

import (
	"context"
	"fmt"
	"github.com/alexandre-normand/fluffy/config"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/metric"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

const (
	// VERSION represents the current fluffy version
	VERSION = "1.0.0"

	handlerApologyFormat = "I'm sorry Dave, I'm afraid I can't do that. (%s)"
	adminRefusal         = "sorry " + UserNamePlaceholder + ", only bot admins can run this command."
)

// State is the lifecycle state of a Bot
type State int32

const (
	// Idle bots haven't been run yet
	Idle State = iota
	// Connecting bots are waiting for the real time session to be established
	Connecting
	// Running bots are processing events
	Running
	// Stopping bots are shutting down
	Stopping
	// Stopped bots are done and can't be run again
	Stopped
)

var stateNames = map[State]string{
	Idle:       "idle",
	Connecting: "connecting",
	Running:    "running",
	Stopping:   "stopping",
	Stopped:    "stopped",
}

// String returns the name of the state
func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}

	return "unknown"
}

// Bot holds the registered triggers and processes incoming messages with them
type Bot struct {
	name      string
	config    *viper.Viper
	registry  *Registry
	client    Client
	directory *Directory
	policy    DispatchPolicy
	log       SLogger
	meter     metric.Meter
	logfile   string
	closers   []io.Closer

	state int32

	cancelMu sync.Mutex
	cancel   context.CancelFunc

	// identity of the bot, set once connected
	selfID  string
	botName string

	*instrumenter
}

// incomingMessage holds what workers need from a received message
type incomingMessage struct {
	userID    string
	channelID string
	text      string
}

// New creates a new bot. Unless options say otherwise, logs go to stdout (or the configured log
// file), the slack client is created from the configured token and the dispatch policy is the
// configured one
func New(name string, v *viper.Viper, options ...Option) (b *Bot, err error) {
	b = new(Bot)
	b.name = name
	b.config = config.LayerConfigWithDefaults(v)
	b.registry = NewRegistry()
	b.closers = make([]io.Closer, 0)
	b.logfile = v.GetString(config.LogFileKey)

	for _, opt := range options {
		opt(b)
	}

	validate := config.Validate
	if b.client != nil {
		validate = config.ValidateSettings
	}

	if err = validate(b.config); err != nil {
		return nil, err
	}

	if b.log == nil {
		var w io.Writer = os.Stdout
		if b.logfile != "" {
			lf, err := newRotatingLogfile(b.logfile)
			if err != nil {
				return nil, err
			}

			b.closers = append(b.closers, lf)
			w = lf
		}

		b.log = NewSLogger(w, v.GetBool(config.DebugKey))
	}

	if b.meter == nil {
		b.meter = defaultMeter()
	}

	if b.instrumenter, err = newInstrumenter(name, b.meter); err != nil {
		return nil, errors.Wrap(err, "failed to create metrics")
	}

	if b.client == nil {
		slackLog, closer := writerOf(b.log)
		if closer != nil {
			b.closers = append(b.closers, closer)
		}

		b.client = NewSlackClient(v.GetString(config.TokenKey), v.GetString(config.UploadFilenameKey), v.GetBool(config.DebugKey), slackLog)
	}

	if b.client, err = NewClientWithTelemetry(b.client, name, b.meter); err != nil {
		return nil, errors.Wrap(err, "failed to create client metrics")
	}

	if b.policy == nil {
		pc := PolicyConfig{
			MaxWorkers:          v.GetInt(config.DispatchMaxWorkersKey),
			PartitionCount:      v.GetInt(config.DispatchPartitionCountKey),
			PartitionBufferSize: v.GetInt(config.DispatchPartitionBufferSizeKey),
		}

		if b.policy, err = NewDispatchPolicy(v.GetString(config.DispatchPolicyKey), pc, b.log, b.instrumenter); err != nil {
			return nil, err
		}
	}

	if b.directory, err = NewDirectory(b.client, v.GetInt(config.DirectoryCacheSizeKey), config.GetAdmins(v), b.log); err != nil {
		return nil, err
	}

	return b, nil
}

// Registry returns the bot's trigger registry. Triggers should be registered prior to calling Run
func (b *Bot) Registry() *Registry {
	return b.registry
}

// State returns the current lifecycle state
func (b *Bot) State() State {
	return State(atomic.LoadInt32(&b.state))
}

// transition moves the bot from one state to another and returns false if the bot wasn't in the
// expected state
func (b *Bot) transition(from State, to State) bool {
	return atomic.CompareAndSwapInt32(&b.state, int32(from), int32(to))
}

// Run connects to slack and processes events until the bot is stopped, a termination signal is
// received or the context is cancelled. A failed connection is returned as a *ConnectionError.
// Invalid credentials reported during the session stop the bot with ErrInvalidCredentials.
// A bot can only be run once
func (b *Bot) Run(ctx context.Context) (err error) {
	if !b.transition(Idle, Connecting) {
		return errors.Errorf("bot [%s] can't be run while %s", b.name, b.State())
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.cancelMu.Lock()
	b.cancel = cancel
	b.cancelMu.Unlock()

	// Stop might have been called before the cancel function was known
	if b.State() == Stopping {
		cancel()
	}

	self, err := b.connect(runCtx)
	if err != nil {
		if b.State() == Stopping {
			b.log.Debugf("Stopped while connecting: %v\n", err)
			b.shutdown()
			return nil
		}

		b.log.Printf("Failed to connect: %v\n", err)
		b.shutdown()
		return &ConnectionError{cause: err}
	}

	if self != nil {
		b.selfID = self.ID
	}

	b.botName, err = b.directory.Populate(runCtx, self, b.config.GetString(config.UsernameKey))
	if err != nil {
		b.log.Printf("Lookups will be done on demand: %v\n", err)
	}

	if !b.transition(Connecting, Running) {
		b.shutdown()
		return nil
	}

	b.log.Printf("Connected as [%s] (id [%s]) with [%d] triggers\n", b.botName, b.selfID, b.registry.Len())

	go b.watchForTerminationSignalToAbort(runCtx)
	go b.keepAlive(runCtx, b.config.GetDuration(config.KeepAliveIntervalKey))

	err = b.processEvents(runCtx, b.config.GetDuration(config.PollIntervalKey))
	b.transition(Running, Stopping)
	b.shutdown()

	return err
}

// Stop requests the termination of a connecting or running bot. Run returns once the shutdown
// is done. In-flight workers aren't interrupted
func (b *Bot) Stop() {
	if !b.transition(Running, Stopping) && !b.transition(Connecting, Stopping) {
		return
	}

	b.cancelMu.Lock()
	defer b.cancelMu.Unlock()

	if b.cancel != nil {
		b.cancel()
	}
}

// Close closes all of the bot's closers (the log file, if any). It should be called once the
// bot is done running
func (b *Bot) Close() (err error) {
	for _, c := range b.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	return err
}

// connect establishes the real time session, giving up after the configured timeout
func (b *Bot) connect(ctx context.Context) (self *slack.UserDetails, err error) {
	connectCtx, cancel := context.WithTimeout(ctx, b.config.GetDuration(config.ConnectTimeoutKey))
	defer cancel()

	return b.client.Connect(connectCtx)
}

// shutdown stops the dispatch policy, disconnects and marks the bot as stopped
func (b *Bot) shutdown() {
	b.policy.Stop()

	if err := b.client.Disconnect(); err != nil {
		b.log.Debugf("Error disconnecting: %v\n", err)
	}

	atomic.StoreInt32(&b.state, int32(Stopped))
	b.log.Printf("Stopped\n")
}

// watchForTerminationSignalToAbort waits for a SIGTERM or SIGINT and stops the bot. It returns
// when the run context is done. Note that this is meant to run in a go routine given that this
// is blocking
func (b *Bot) watchForTerminationSignalToAbort(ctx context.Context) {
	tSignals := make(chan os.Signal, 1)
	// Register to be notified of termination signals so we can abort
	signal.Notify(tSignals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(tSignals)

	select {
	case sig := <-tSignals:
		b.log.Printf("Received termination signal [%s], stopping\n", sig)
		b.Stop()
	case <-ctx.Done():
	}
}

// keepAlive pings the session every interval until the context is done
func (b *Bot) keepAlive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.client.Ping(ctx); err != nil {
				b.log.Printf("Keepalive ping failed: %v\n", err)
			}
		}
	}
}

// processEvents drains the pending events every poll interval until the context is done or the
// credentials are rejected
func (b *Bot) processEvents(ctx context.Context, pollInterval time.Duration) (err error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := b.drainEvents(ctx); err != nil {
				return err
			}
		}
	}
}

// drainEvents handles all pending events
func (b *Bot) drainEvents(ctx context.Context) (err error) {
	for ctx.Err() == nil {
		e, ok := b.client.NextEvent()
		if !ok {
			return nil
		}

		switch ev := e.Data.(type) {
		case *slack.MessageEvent:
			b.processMessageEvent(ctx, ev)

		case *slack.InvalidAuthEvent:
			b.log.Printf("Invalid credentials\n")
			return ErrInvalidCredentials

		case *slack.ConnectionErrorEvent:
			b.log.Printf("Connection error on attempt [%d]: %v\n", ev.Attempt, ev.ErrorObj)

		case *slack.LatencyReport:
			b.log.Debugf("Current latency: %v\n", ev.Value)

		default:
			b.log.Debugf("Ignoring event of type [%s]\n", e.Type)
		}
	}

	return nil
}

// processMessageEvent finds the triggers firing for a new message and submits their workers
func (b *Bot) processMessageEvent(ctx context.Context, msgEvent *slack.MessageEvent) {
	if msgEvent.SubType != "" {
		b.log.Debugf("Ignoring message with subtype [%s]\n", msgEvent.SubType)
		return
	}

	b.coreMetrics.msgsSeen.Add(context.Background(), 1, b.attrs)

	if b.isFromSelf(ctx, msgEvent) {
		b.log.Debugf("Ignoring our own message [%s]\n", msgEvent.Timestamp)
		return
	}

	matches := MatchTriggers(b.registry.Triggers(), msgEvent.Text)
	if len(matches) == 0 {
		return
	}

	msg := incomingMessage{userID: msgEvent.User, channelID: msgEvent.Channel, text: msgEvent.Text}

	// Workers outlive a stop so they get a context that isn't cancelled with the run
	workCtx := context.WithoutCancel(ctx)
	for _, m := range matches {
		b.triggerFired(m.Kind)

		m := m
		b.policy.Submit(msg.userID, func() {
			b.dispatch(workCtx, m, msg)
		})
	}
}

// isFromSelf returns true if the message was sent by the bot, identified by its id or, when
// configured, by its user name
func (b *Bot) isFromSelf(ctx context.Context, msgEvent *slack.MessageEvent) bool {
	if msgEvent.User == "" {
		return false
	}

	if b.selfID != "" && msgEvent.User == b.selfID {
		return true
	}

	if configured := b.config.GetString(config.UsernameKey); configured != "" {
		return b.directory.NameForID(ctx, msgEvent.User) == configured
	}

	return false
}

// dispatch runs a fired trigger and delivers its reply
func (b *Bot) dispatch(ctx context.Context, m Match, msg incomingMessage) {
	dispatchID := uuid.New().String()
	b.log.Debugf("[%s] Running %s trigger [%s] for user [%s] in channel [%s]\n", dispatchID, m.Kind, m.Phrase, msg.userID, msg.channelID)

	var reply string
	if m.Options.AdminOnly && !b.directory.IsAdmin(ctx, msg.userID) {
		b.coreMetrics.adminRefusals.Add(context.Background(), 1, b.attrs)
		b.log.Printf("[%s] Refusing admin trigger [%s] to user [%s]\n", dispatchID, m.Phrase, msg.userID)
		reply = adminRefusal
	} else {
		reply = b.invokeHandler(dispatchID, m, msg)
	}

	if reply == "" {
		b.log.Debugf("[%s] No reply\n", dispatchID)
		return
	}

	r := ProcessResponse(reply, msg.userID, func(userID string) string {
		return b.directory.NameForID(ctx, userID)
	})

	channelID := b.targetChannel(ctx, dispatchID, m.Options, msg.channelID)

	var err error
	if r.IsUpload {
		err = b.client.UploadFile(ctx, channelID, r.Text, r.UploadComment)
	} else {
		err = b.client.SendMessage(ctx, channelID, r.Text)
	}

	if err != nil {
		b.log.Printf("[%s] Failed to deliver reply to [%s]: %v\n", dispatchID, channelID, err)
		return
	}

	b.log.Debugf("[%s] Delivered reply to [%s] (upload: %t)\n", dispatchID, channelID, r.IsUpload)
}

// invokeHandler calls the trigger's handler. Errors and panics are turned into an apology reply
func (b *Bot) invokeHandler(dispatchID string, m Match, msg incomingMessage) (reply string) {
	var err error
	d := measure(func() {
		reply, err = safeInvoke(m.Handler, msg, m.Args)
	})

	b.coreMetrics.handlerLatencyMillis.Record(context.Background(), d.Milliseconds(), b.attrs)

	if err != nil {
		b.coreMetrics.handlerErrors.Add(context.Background(), 1, b.attrs)
		b.log.Printf("[%s] Handler for %s trigger [%s] failed: %v\n", dispatchID, m.Kind, m.Phrase, err)

		return fmt.Sprintf(handlerApologyFormat, err)
	}

	return reply
}

// safeInvoke calls the handler, recovering from a panic as an error
func safeInvoke(h Handler, msg incomingMessage, args []string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			reply = ""
			err = errors.Errorf("%v", r)
		}
	}()

	return h(msg.userID, msg.text, args...)
}

// targetChannel returns the channel a reply should go to. A target channel takes precedence over
// a target user's direct channel. The original channel is used when there's no target or when
// the target can't be resolved
func (b *Bot) targetChannel(ctx context.Context, dispatchID string, o TriggerOptions, originalChannelID string) (channelID string) {
	if o.TargetChannel != "" {
		if channelID = b.directory.ChannelByName(ctx, o.TargetChannel); channelID != "" {
			return channelID
		}

		b.log.Printf("[%s] Unknown target channel [%s], replying in [%s]\n", dispatchID, o.TargetChannel, originalChannelID)
		return originalChannelID
	}

	if o.TargetUser != "" {
		if userID := b.directory.IDForName(ctx, o.TargetUser); userID != "" {
			if channelID = b.directory.DirectChannelFor(ctx, userID); channelID != "" {
				return channelID
			}
		}

		b.log.Printf("[%s] Can't reach target user [%s], replying in [%s]\n", dispatchID, o.TargetUser, originalChannelID)
		return originalChannelID
	}

	return originalChannelID
}
