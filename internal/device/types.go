package device

import (
	"maps"
	"slices"
	"time"
)

// GlobalDevice is one entry of the assistant-wide device registry.
//
// Skills share the registry; each reads the entries of its own DeviceType
// and interprets Attributes itself. For curtains the attributes carry the
// MQTT topic and the open/close/set payloads.
type GlobalDevice struct {
	ID         int64          `json:"id" yaml:"-"`
	Name       string         `json:"name" yaml:"name"`
	DeviceType string         `json:"device_type" yaml:"type"`
	Room       *string        `json:"room,omitempty" yaml:"room,omitempty"`
	Pattern    []string       `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Attributes map[string]any `json:"device_attributes,omitempty" yaml:"attributes,omitempty"`
}

// RoomName returns the room name, or "" for an unassigned device.
func (d GlobalDevice) RoomName() string {
	if d.Room == nil {
		return ""
	}
	return *d.Room
}

// Clone returns a copy that shares no slices or maps with d.
// Attribute values are copied one level deep.
func (d GlobalDevice) Clone() GlobalDevice {
	out := d
	if d.Room != nil {
		room := *d.Room
		out.Room = &room
	}
	out.Pattern = slices.Clone(d.Pattern)
	out.Attributes = maps.Clone(d.Attributes)
	return out
}

// Filter narrows a device listing. Zero-valued fields do not filter.
type Filter struct {
	// DeviceType matches GlobalDevice.DeviceType exactly.
	DeviceType string

	// Rooms matches devices whose room name is one of these, exactly.
	// Devices without a room never match a non-empty Rooms.
	Rooms []string
}

// Matches reports whether d passes the filter.
func (f Filter) Matches(d GlobalDevice) bool {
	if f.DeviceType != "" && d.DeviceType != f.DeviceType {
		return false
	}
	if len(f.Rooms) > 0 {
		if d.Room == nil || !slices.Contains(f.Rooms, *d.Room) {
			return false
		}
	}
	return true
}

// Snapshot is an immutable view of the registry at one point in time.
// Devices keeps repository order (by id).
type Snapshot struct {
	Devices     []GlobalDevice
	RefreshedAt time.Time

	// Generation increments on every successful refresh; 0 means never loaded.
	Generation uint64
}

// Loaded reports whether the snapshot came from a successful refresh.
func (s *Snapshot) Loaded() bool {
	return s.Generation > 0
}
