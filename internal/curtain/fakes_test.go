package curtain

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/nerrad567/curtain-skill/internal/device"
	"github.com/nerrad567/curtain-skill/internal/intent"
)

// published is one recorded Publish call.
type published struct {
	topic   string
	payload string
	qos     byte
	retain  bool
}

// recordingPublisher records publishes and fails for topics in failOn.
type recordingPublisher struct {
	mu     sync.Mutex
	calls  []published
	failOn map[string]error
}

func (p *recordingPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, published{topic: topic, payload: string(payload), qos: qos, retain: retained})
	if err, ok := p.failOn[topic]; ok {
		return err
	}
	return nil
}

func (p *recordingPublisher) to(topic string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []published
	for _, c := range p.calls {
		if c.topic == topic {
			out = append(out, c)
		}
	}
	return out
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// staticLister serves fixed registry entries.
type staticLister struct {
	devices []device.GlobalDevice
	err     error
}

func (l *staticLister) ListDevices(_ context.Context, filter device.Filter) ([]device.GlobalDevice, error) {
	if l.err != nil {
		return nil, l.err
	}
	out := []device.GlobalDevice{}
	for _, d := range l.devices {
		if filter.Matches(d) {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

// inlineRunner runs tasks synchronously and remembers their names.
type inlineRunner struct {
	names []string
}

func (r *inlineRunner) Go(name string, fn func()) {
	r.names = append(r.names, name)
	fn()
}

// recordingRecorder captures dispatch telemetry.
type recordingRecorder struct {
	mu      sync.Mutex
	records []string
}

func (r *recordingRecorder) RecordDispatch(topic, action string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := "ok"
	if err != nil {
		status = "failed"
	}
	r.records = append(r.records, action+" "+topic+" "+status)
}

// captureLogger records messages by level.
type captureLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *captureLogger) log(level, msg string) {
	l.mu.Lock()
	l.entries = append(l.entries, level+": "+msg)
	l.mu.Unlock()
}

func (l *captureLogger) Debug(msg string, _ ...any) { l.log("debug", msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.log("info", msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.log("warn", msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.log("error", msg) }

func (l *captureLogger) has(entry string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e == entry {
			return true
		}
	}
	return false
}

var errBrokerDown = errors.New("broker down")

func strPtr(s string) *string { return &s }

func curtainEntry(name, room, topic string) device.GlobalDevice {
	return device.GlobalDevice{
		Name:       name,
		DeviceType: DeviceType,
		Room:       strPtr(room),
		Attributes: map[string]any{AttrTopic: topic},
	}
}

func curtainDeviceEntity() intent.Entity {
	return intent.Entity{
		ID:              uuid.New(),
		Type:            intent.EntityDevice,
		RawText:         "curtains",
		NormalizedValue: "curtain",
		Metadata:        map[string]any{intent.MetaDeviceType: DeviceType, intent.MetaIsGeneric: false},
	}
}

func roomEntity(room string) intent.Entity {
	return intent.Entity{ID: uuid.New(), Type: intent.EntityRoom, RawText: room, NormalizedValue: room}
}

func numberEntity(v any) intent.Entity {
	return intent.Entity{ID: uuid.New(), Type: intent.EntityNumber, RawText: "n", NormalizedValue: v}
}

// newRequest builds a request from the given room with entity lists.
func newRequest(kind intent.Type, room string, entities map[string][]intent.Entity) intent.Request {
	return intent.Request{
		ID: uuid.New(),
		ClassifiedIntent: intent.ClassifiedIntent{
			ID:         uuid.New(),
			IntentType: kind,
			Confidence: 0.95,
			Entities:   entities,
		},
		ClientRequest: intent.ClientRequest{
			ID:          uuid.New(),
			Text:        "curtain request",
			Room:        room,
			OutputTopic: "assistant/" + room + "/output",
		},
	}
}
