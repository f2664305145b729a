package fluffy_test

import (
	"context"
	"github.com/alexandre-normand/fluffy"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"testing"
)

func newTestMeter() (meterProvider *sdkmetric.MeterProvider, reader *sdkmetric.ManualReader) {
	reader = sdkmetric.NewManualReader()
	meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return meterProvider, reader
}

// collectSum returns the value of the int64 sum metric with the given name or -1 if it wasn't
// recorded
func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}

			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				total := int64(0)
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}

				return total
			}
		}
	}

	return -1
}

func TestClientWithTelemetryCountsCallsAndErrors(t *testing.T) {
	mp, reader := newTestMeter()
	captor := newTestClient()
	c, err := fluffy.NewClientWithTelemetry(captor, "chickadee", mp.Meter("test"))
	require.NoError(t, err)

	assert.NoError(t, c.SendMessage(context.Background(), generalChannel, "hello"))
	captor.WithSendError(errors.New("channel_not_found"))
	assert.EqualError(t, c.SendMessage(context.Background(), generalChannel, "hello"), "channel_not_found")

	assert.Equal(t, int64(2), collectSum(t, reader, "SendMessage_Calls"))
	assert.Equal(t, int64(1), collectSum(t, reader, "SendMessage_Errors"))
	assert.Equal(t, int64(-1), collectSum(t, reader, "UploadFile_Calls"))
}

func TestClientWithTelemetryDelegates(t *testing.T) {
	mp, reader := newTestMeter()
	captor := newTestClient()
	c, err := fluffy.NewClientWithTelemetry(captor, "chickadee", mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	self, err := c.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, botUser.ID, self.ID)

	assert.NoError(t, c.UploadFile(ctx, generalChannel, "content", "comment"))
	assert.Equal(t, "content", captor.Uploads()[0].Content)

	u, err := c.GetUserInfo(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Name, u.Name)

	users, err := c.GetUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	channelID, err := c.OpenDirectChannel(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "D"+bob.ID, channelID)

	channelID, err = c.FindChannelByName(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, "COPS", channelID)

	_, err = c.FindChannelByName(ctx, "nowhere")
	assert.Error(t, err)

	captor.QueueMessage(alice.ID, generalChannel, "hello")
	_, ok := c.NextEvent()
	assert.True(t, ok)
	_, ok = c.NextEvent()
	assert.False(t, ok)

	assert.NoError(t, c.Ping(ctx))
	assert.Equal(t, 1, captor.Pings())
	assert.NoError(t, c.Disconnect())
	assert.True(t, captor.Disconnected())

	assert.Equal(t, int64(1), collectSum(t, reader, "UploadFile_Calls"))
	assert.Equal(t, int64(1), collectSum(t, reader, "GetUserInfo_Calls"))
	assert.Equal(t, int64(1), collectSum(t, reader, "GetUsers_Calls"))
	assert.Equal(t, int64(1), collectSum(t, reader, "OpenDirectChannel_Calls"))
	assert.Equal(t, int64(2), collectSum(t, reader, "FindChannelByName_Calls"))
	assert.Equal(t, int64(1), collectSum(t, reader, "FindChannelByName_Errors"))
}

func TestCoreMetrics(t *testing.T) {
	mp, reader := newTestMeter()
	client := newTestClient()
	b := buildBot(t, client, newTestConfig(), func(fb *fluffy.Builder) *fluffy.Builder {
		return fb.
			WithListener("ping", pong, fluffy.TriggerOptions{}).
			WithExact("ping", noop, fluffy.TriggerOptions{AdminOnly: true})
	}, fluffy.OptionMeter(mp.Meter("test")))

	stop := startBot(t, b)
	client.QueueMessage(bob.ID, generalChannel, "ping")
	client.QueueMessage(alice.ID, generalChannel, "nothing to see")

	assert.Eventually(t, func() bool { return len(client.SentMessages()) == 2 }, waitFor, tick)
	assert.NoError(t, stop())

	assert.Equal(t, int64(2), collectSum(t, reader, "msgSeen"))
	assert.Equal(t, int64(2), collectSum(t, reader, "triggersFired"))
	assert.Equal(t, int64(1), collectSum(t, reader, "adminRefusals"))
	assert.Equal(t, int64(-1), collectSum(t, reader, "handlerErrors"))
}
