package intent

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Type is the kind of a classified intent as emitted by the intent engine.
type Type string

// Intent kinds understood across the assistant. The curtain skill acts on
// the device-control kinds; anything else is unsupported for it.
const (
	DeviceOpen  Type = "device.open"
	DeviceClose Type = "device.close"
	DeviceSet   Type = "device.set"
	DeviceOn    Type = "device.on"
	DeviceOff   Type = "device.off"
	MediaPlay   Type = "media.play"
	MediaStop   Type = "media.stop"
	QueryStatus Type = "query.status"
	QueryTime   Type = "query.time"
	SystemHelp  Type = "system.help"
)

// IsDeviceControl reports whether t addresses a device by state or position.
func (t Type) IsDeviceControl() bool {
	switch t {
	case DeviceOpen, DeviceClose, DeviceSet, DeviceOn, DeviceOff:
		return true
	}
	return false
}

// Entity kinds used as keys of ClassifiedIntent.Entities.
const (
	EntityDevice = "device"
	EntityRoom   = "room"
	EntityNumber = "number"
)

// Metadata keys set by the classifier on device entities.
const (
	MetaDeviceType = "device_type"
	MetaIsGeneric  = "is_generic"
)

// Entity is one structured value extracted from the user's words.
//
// NormalizedValue is whatever the classifier produced: a string for rooms
// and devices, usually a number for number entities, but not guaranteed.
type Entity struct {
	ID              uuid.UUID      `json:"id"`
	Type            string         `json:"type"`
	RawText         string         `json:"raw_text"`
	NormalizedValue any            `json:"normalized_value"`
	Confidence      float64        `json:"confidence"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	LinkedTo        []uuid.UUID    `json:"linked_to,omitempty"`
}

// Value returns NormalizedValue as a string. Numbers are formatted without
// a trailing ".0"; nil yields "".
func (e Entity) Value() string {
	switch v := e.NormalizedValue.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Int parses NormalizedValue as an integer.
//
// JSON numbers are truncated toward zero (75.9 gives 75); NaN, infinities
// and values outside the int range are errors. Strings must be decimal
// integers, surrounding whitespace allowed. Anything else, nil and booleans
// included, is an error.
func (e Entity) Int() (int, error) {
	switch v := e.NormalizedValue.(type) {
	case float64:
		if math.IsNaN(v) || v < float64(math.MinInt) || v >= float64(math.MaxInt)+1 {
			return 0, fmt.Errorf("%w: %v out of range", ErrInvalidNumber, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		if v < math.MinInt || v > math.MaxInt {
			return 0, fmt.Errorf("%w: %d out of range", ErrInvalidNumber, v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: unsupported value %T", ErrInvalidNumber, v)
	}
}

// MetaString returns a string metadata value, or "" when absent or not a string.
func (e Entity) MetaString(key string) string {
	s, _ := e.Metadata[key].(string)
	return s
}

// MetaBool returns a boolean metadata value, or false when absent or not a bool.
func (e Entity) MetaBool(key string) bool {
	b, _ := e.Metadata[key].(bool)
	return b
}

// ClassifiedIntent is the intent engine's reading of one user utterance.
type ClassifiedIntent struct {
	ID         uuid.UUID           `json:"id"`
	IntentType Type                `json:"intent_type"`
	Confidence float64             `json:"confidence"`
	Entities   map[string][]Entity `json:"entities"`
	RawText    string              `json:"raw_text"`
	Timestamp  Timestamp           `json:"timestamp"`
}

// EntitiesOf returns the entities of one kind; nil when there are none.
func (c ClassifiedIntent) EntitiesOf(kind string) []Entity {
	return c.Entities[kind]
}

// HasEntity reports whether at least one entity of kind is present.
func (c ClassifiedIntent) HasEntity(kind string) bool {
	return len(c.Entities[kind]) > 0
}

// ClientRequest is the original request from a satellite or client.
type ClientRequest struct {
	ID          uuid.UUID `json:"id"`
	Text        string    `json:"text"`
	Room        string    `json:"room"`
	OutputTopic string    `json:"output_topic"`
}

// Request is the envelope published on the intent result topic.
type Request struct {
	ID               uuid.UUID        `json:"id"`
	ClassifiedIntent ClassifiedIntent `json:"classified_intent"`
	ClientRequest    ClientRequest    `json:"client_request"`
}

// Response is a skill's answer, published to ClientRequest.OutputTopic.
type Response struct {
	ID            uuid.UUID     `json:"id"`
	Text          string        `json:"text"`
	ClientRequest ClientRequest `json:"client_request"`
}

// NewResponse builds a response with a fresh id.
func NewResponse(text string, req ClientRequest) Response {
	return Response{
		ID:            uuid.New(),
		Text:          text,
		ClientRequest: req,
	}
}
