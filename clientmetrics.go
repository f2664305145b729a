package fluffy

import (
	"context"
	"time"

	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// instrumentedClientMethods are the Client methods (the ones calling the slack web api) that get
// call, error and timing metrics
var instrumentedClientMethods = []string{"SendMessage", "UploadFile", "GetUserInfo", "GetUsers", "OpenDirectChannel", "FindChannelByName"}

// ClientWithTelemetry implements Client with all web api methods wrapped
// with open telemetry metrics. Real time session methods are passed through
type ClientWithTelemetry struct {
	base                 Client
	attrs                metric.MeasurementOption
	methodCounters       map[string]metric.Int64Counter
	errCounters          map[string]metric.Int64Counter
	methodTimeHistograms map[string]metric.Int64Histogram
}

// NewClientWithTelemetry returns an instance of the Client decorated with open telemetry timing and count metrics
func NewClientWithTelemetry(base Client, name string, meter metric.Meter) (c *ClientWithTelemetry, err error) {
	c = new(ClientWithTelemetry)
	c.base = base
	c.attrs = metric.WithAttributes(attribute.String(nameAttribute, name))

	if c.methodCounters, err = newClientMethodCounters("Calls", meter); err != nil {
		return nil, err
	}

	if c.errCounters, err = newClientMethodCounters("Errors", meter); err != nil {
		return nil, err
	}

	if c.methodTimeHistograms, err = newClientMethodTimeHistograms(meter); err != nil {
		return nil, err
	}

	return c, nil
}

func newClientMethodTimeHistograms(meter metric.Meter) (histograms map[string]metric.Int64Histogram, err error) {
	histograms = make(map[string]metric.Int64Histogram)

	for _, m := range instrumentedClientMethods {
		if histograms[m], err = meter.Int64Histogram(m+"_ProcessingTimeMillis", metric.WithUnit("ms")); err != nil {
			return nil, err
		}
	}

	return histograms, nil
}

func newClientMethodCounters(suffix string, meter metric.Meter) (counters map[string]metric.Int64Counter, err error) {
	counters = make(map[string]metric.Int64Counter)

	for _, m := range instrumentedClientMethods {
		if counters[m], err = meter.Int64Counter(m + "_" + suffix); err != nil {
			return nil, err
		}
	}

	return counters, nil
}

// record counts a call (and its error, if any) along with its duration
func (_d *ClientWithTelemetry) record(method string, since time.Time, err error) {
	if err != nil {
		_d.errCounters[method].Add(context.Background(), 1, _d.attrs)
	}

	_d.methodCounters[method].Add(context.Background(), 1, _d.attrs)
	_d.methodTimeHistograms[method].Record(context.Background(), time.Since(since).Milliseconds(), _d.attrs)
}

// Connect implements Client
func (_d *ClientWithTelemetry) Connect(ctx context.Context) (self *slack.UserDetails, err error) {
	return _d.base.Connect(ctx)
}

// NextEvent implements Client
func (_d *ClientWithTelemetry) NextEvent() (e slack.RTMEvent, ok bool) {
	return _d.base.NextEvent()
}

// Ping implements Client
func (_d *ClientWithTelemetry) Ping(ctx context.Context) (err error) {
	return _d.base.Ping(ctx)
}

// Disconnect implements Client
func (_d *ClientWithTelemetry) Disconnect() (err error) {
	return _d.base.Disconnect()
}

// SendMessage implements Client
func (_d *ClientWithTelemetry) SendMessage(ctx context.Context, channelID string, text string) (err error) {
	_since := time.Now()
	defer func() {
		_d.record("SendMessage", _since, err)
	}()
	return _d.base.SendMessage(ctx, channelID, text)
}

// UploadFile implements Client
func (_d *ClientWithTelemetry) UploadFile(ctx context.Context, channelID string, content string, comment string) (err error) {
	_since := time.Now()
	defer func() {
		_d.record("UploadFile", _since, err)
	}()
	return _d.base.UploadFile(ctx, channelID, content, comment)
}

// GetUserInfo implements Client
func (_d *ClientWithTelemetry) GetUserInfo(ctx context.Context, userID string) (user *slack.User, err error) {
	_since := time.Now()
	defer func() {
		_d.record("GetUserInfo", _since, err)
	}()
	return _d.base.GetUserInfo(ctx, userID)
}

// GetUsers implements Client
func (_d *ClientWithTelemetry) GetUsers(ctx context.Context) (users []slack.User, err error) {
	_since := time.Now()
	defer func() {
		_d.record("GetUsers", _since, err)
	}()
	return _d.base.GetUsers(ctx)
}

// OpenDirectChannel implements Client
func (_d *ClientWithTelemetry) OpenDirectChannel(ctx context.Context, userID string) (channelID string, err error) {
	_since := time.Now()
	defer func() {
		_d.record("OpenDirectChannel", _since, err)
	}()
	return _d.base.OpenDirectChannel(ctx, userID)
}

// FindChannelByName implements Client
func (_d *ClientWithTelemetry) FindChannelByName(ctx context.Context, name string) (channelID string, err error) {
	_since := time.Now()
	defer func() {
		_d.record("FindChannelByName", _since, err)
	}()
	return _d.base.FindChannelByName(ctx, name)
}
