package curtain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nerrad567/curtain-skill/internal/device"
	"github.com/nerrad567/curtain-skill/internal/infrastructure/mqtt"
)

// DeviceType is the registry device type handled by this skill.
const DeviceType = "curtain"

// Default command payloads, used when a registry entry omits them.
const (
	DefaultPayloadOpen        = `{"state": "OPEN"}`
	DefaultPayloadClose       = `{"state": "CLOSE"}`
	DefaultPayloadSetTemplate = `{"position": {{ position }}}`
)

// Registry attribute keys read by FromGlobalDevice.
const (
	AttrTopic              = "topic"
	AttrPayloadOpen        = "payload_open"
	AttrPayloadClose       = "payload_close"
	AttrPayloadSetTemplate = "payload_set_template"
)

// positionPlaceholder matches {{ position }}, {{position}} and {{ .position }}.
var positionPlaceholder = regexp.MustCompile(`\{\{\s*\.?position\s*\}\}`)

// Payloads holds the command payloads of one device.
// Empty fields take the package defaults.
type Payloads struct {
	Open        string
	Close       string
	SetTemplate string
}

// Device is a validated, controllable curtain.
//
// Values are built per lookup and never modified; pass them by value.
type Device struct {
	name     string
	room     string
	topic    string
	payloads Payloads
}

// NewDevice validates topic and payloads and returns a Device.
//
// The topic is checked as given, so surrounding whitespace is rejected,
// and the stored value is trimmed.
func NewDevice(name, room, topic string, payloads Payloads) (Device, error) {
	if err := mqtt.ValidatePublishTopic(topic); err != nil {
		return Device{}, fmt.Errorf("%w: %q: %w", ErrInvalidTopic, topic, err)
	}

	if payloads.Open == "" {
		payloads.Open = DefaultPayloadOpen
	}
	if payloads.Close == "" {
		payloads.Close = DefaultPayloadClose
	}
	if payloads.SetTemplate == "" {
		payloads.SetTemplate = DefaultPayloadSetTemplate
	}
	if n := len(positionPlaceholder.FindAllStringIndex(payloads.SetTemplate, -1)); n != 1 {
		return Device{}, fmt.Errorf("%w: %q has %d position placeholders, want 1",
			ErrInvalidPayloadTemplate, payloads.SetTemplate, n)
	}

	return Device{
		name:     name,
		room:     room,
		topic:    strings.TrimSpace(topic),
		payloads: payloads,
	}, nil
}

// FromGlobalDevice builds a Device from a registry entry's attributes.
func FromGlobalDevice(g device.GlobalDevice) (Device, error) {
	topic, err := stringAttr(g.Attributes, AttrTopic)
	if err != nil {
		return Device{}, err
	}
	if topic == "" {
		return Device{}, fmt.Errorf("%w: attribute %q missing", ErrInvalidTopic, AttrTopic)
	}

	var payloads Payloads
	var errs []error
	payloads.Open, err = stringAttr(g.Attributes, AttrPayloadOpen)
	errs = append(errs, err)
	payloads.Close, err = stringAttr(g.Attributes, AttrPayloadClose)
	errs = append(errs, err)
	payloads.SetTemplate, err = stringAttr(g.Attributes, AttrPayloadSetTemplate)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return Device{}, err
	}

	return NewDevice(g.Name, g.RoomName(), topic, payloads)
}

// stringAttr reads an optional string attribute. Absent yields "".
func stringAttr(attrs map[string]any, key string) (string, error) {
	v, ok := attrs[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: attribute %q is %T, want string", ErrInvalidPayload, key, v)
	}
	return s, nil
}

// Name returns the device name.
func (d Device) Name() string { return d.name }

// Room returns the room the device is assigned to.
func (d Device) Room() string { return d.room }

// Topic returns the MQTT topic commands are published to.
func (d Device) Topic() string { return d.topic }

// OpenPayload returns the payload that opens the curtain.
func (d Device) OpenPayload() string { return d.payloads.Open }

// ClosePayload returns the payload that closes the curtain.
func (d Device) ClosePayload() string { return d.payloads.Close }

// SetTemplate returns the raw set-position template.
func (d Device) SetTemplate() string { return d.payloads.SetTemplate }

// SetPayload renders the set-position template with position.
func (d Device) SetPayload(position int) string {
	return positionPlaceholder.ReplaceAllLiteralString(d.payloads.SetTemplate, strconv.Itoa(position))
}
