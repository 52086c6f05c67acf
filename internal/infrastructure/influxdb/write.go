package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Dispatch telemetry schema.
const (
	measurementDispatch = "curtain_dispatch"

	statusOK     = "ok"
	statusFailed = "failed"
)

// WriteDispatch records one device command publish attempt.
//
// Tags: topic, action, status ("ok" or "failed").
// Fields: count (always 1), error (only on failure).
//
// The write is queued; it never blocks and is dropped when the client is
// not connected.
func (c *Client) WriteDispatch(topic, action string, err error) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(dispatchPoint(topic, action, err, time.Now()))
}

// RecordDispatch satisfies curtain.Recorder.
func (c *Client) RecordDispatch(topic, action string, err error) {
	c.WriteDispatch(topic, action, err)
}

func dispatchPoint(topic, action string, err error, ts time.Time) *write.Point {
	status := statusOK
	fields := map[string]any{"count": 1}
	if err != nil {
		status = statusFailed
		fields["error"] = err.Error()
	}

	return write.NewPoint(
		measurementDispatch,
		map[string]string{
			"topic":  topic,
			"action": action,
			"status": status,
		},
		fields,
		ts,
	)
}
