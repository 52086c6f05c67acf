// Package curtain maps classified curtain intents to MQTT device commands
// and spoken replies.
//
// A request moves through a fixed pipeline:
//
//	IsInDomain → Extractor.Extract → {no targets | awaiting position | ready}
//	ready → Renderer.Render → reply task + Dispatcher.Dispatch task
//
// Device intents that do not name a curtain are dropped without a reply,
// since other skills on the bus share the same intent kinds.
//
// Device commands are best effort. Each target gets one QoS 1 publish; a
// failure is logged and recorded, and never stops the remaining targets
// or the reply.
//
// Response templates are Go text/template files embedded from templates/
// and can be overridden from a directory. They receive:
//
//	.Action      "open", "close", "set" or "help"
//	.Parameters  Position, Targets, Rooms
package curtain
