// Package influxdb records curtain skill telemetry in InfluxDB v2.
//
// Every device command publish produces one curtain_dispatch point tagged
// with the device topic, the action and the outcome. Telemetry is optional:
// Connect returns ErrDisabled when influxdb.enabled is false and the skill
// runs without it.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteDispatch("zigbee2mqtt/studio/curtain/set", "open", nil)
//
// Writes are batched per influxdb.batch_size and influxdb.flush_interval.
// Asynchronous write errors are delivered to the SetOnError callback.
package influxdb
