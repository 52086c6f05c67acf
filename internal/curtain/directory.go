package curtain

import (
	"context"
	"fmt"

	"github.com/nerrad567/curtain-skill/internal/device"
)

// DeviceLister is the registry query the directory depends on.
// *device.Registry implements it.
type DeviceLister interface {
	ListDevices(ctx context.Context, filter device.Filter) ([]device.GlobalDevice, error)
}

// Directory resolves curtains by room from the device registry.
type Directory struct {
	lister DeviceLister
	logger Logger
}

// NewDirectory creates a Directory over lister.
func NewDirectory(lister DeviceLister, logger Logger) *Directory {
	return &Directory{lister: lister, logger: loggerOrNoop(logger)}
}

// FindDevices returns the curtains in any of rooms, in registry order.
//
// Room names match exactly. A registry entry that fails validation is
// logged and skipped; it never fails the lookup. No match is an empty,
// non-nil slice. An error means the registry itself could not be read.
func (d *Directory) FindDevices(ctx context.Context, rooms []string) ([]Device, error) {
	devices := []Device{}
	if len(rooms) == 0 {
		return devices, nil
	}

	entries, err := d.lister.ListDevices(ctx, device.Filter{
		DeviceType: DeviceType,
		Rooms:      rooms,
	})
	if err != nil {
		return nil, fmt.Errorf("listing curtains: %w", err)
	}

	for _, entry := range entries {
		dev, err := FromGlobalDevice(entry)
		if err != nil {
			d.logger.Error("skipping invalid curtain device",
				"device", entry.Name,
				"device_id", entry.ID,
				"error", err,
			)
			continue
		}
		devices = append(devices, dev)
	}

	return devices, nil
}
