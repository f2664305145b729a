package fluffy

import (
	"context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"time"
)

const (
	defaultMeterName = "github.com/alexandre-normand/fluffy"
	nameAttribute    = "name"
	kindAttribute    = "kind"
)

// instrumenter holds data for core instrumentation
type instrumenter struct {
	appName     string
	attrs       metric.MeasurementOption
	coreMetrics coreMetrics
}

// coreMetrics holds core fluffy metrics
type coreMetrics struct {
	msgsSeen                 metric.Int64Counter
	triggersFired            metric.Int64Counter
	handlerErrors            metric.Int64Counter
	adminRefusals            metric.Int64Counter
	handlerLatencyMillis     metric.Int64Histogram
	msgDispatchLatencyMillis metric.Int64Histogram
	droppedWork              metric.Int64Counter
}

// defaultMeter returns the meter from the global provider
func defaultMeter() metric.Meter {
	return otel.GetMeterProvider().Meter(defaultMeterName)
}

// newInstrumenter creates a new core instrumenter
func newInstrumenter(appName string, meter metric.Meter) (ins *instrumenter, err error) {
	ins = new(instrumenter)
	ins.appName = appName
	ins.attrs = metric.WithAttributes(attribute.String(nameAttribute, appName))

	if ins.coreMetrics.msgsSeen, err = meter.Int64Counter("msgSeen"); err != nil {
		return nil, err
	}

	if ins.coreMetrics.triggersFired, err = meter.Int64Counter("triggersFired"); err != nil {
		return nil, err
	}

	if ins.coreMetrics.handlerErrors, err = meter.Int64Counter("handlerErrors"); err != nil {
		return nil, err
	}

	if ins.coreMetrics.adminRefusals, err = meter.Int64Counter("adminRefusals"); err != nil {
		return nil, err
	}

	if ins.coreMetrics.handlerLatencyMillis, err = meter.Int64Histogram("handlerLatencyMillis", metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	if ins.coreMetrics.msgDispatchLatencyMillis, err = meter.Int64Histogram("msgDispatchLatencyMillis", metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	if ins.coreMetrics.droppedWork, err = meter.Int64Counter("droppedWork"); err != nil {
		return nil, err
	}

	return ins, nil
}

// triggerFired counts a fired trigger of the given kind
func (ins *instrumenter) triggerFired(kind Kind) {
	ins.coreMetrics.triggersFired.Add(context.Background(), 1, metric.WithAttributes(attribute.String(nameAttribute, ins.appName), attribute.String(kindAttribute, kind.String())))
}

type timed func()

// measure returns the execution duration of a timed function
func measure(operation timed) (d time.Duration) {
	before := time.Now()

	operation()

	return time.Since(before)
}
