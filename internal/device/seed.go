package device

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// seedFile is the on-disk layout of a registry seed.
//
//	devices:
//	  - name: window blinds
//	    type: curtain
//	    room: studio
//	    pattern: [window blinds, blinds]
//	    attributes:
//	      topic: zigbee2mqtt/studio/motor/window_blinds/set
type seedFile struct {
	Devices []GlobalDevice `yaml:"devices"`
}

// LoadSeedFile reads registry entries from a YAML seed file.
func LoadSeedFile(path string) ([]GlobalDevice, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}

	for i, d := range seed.Devices {
		if d.Name == "" || d.DeviceType == "" {
			return nil, fmt.Errorf("%w: entry %d needs name and type", ErrInvalidSeed, i)
		}
	}

	return seed.Devices, nil
}

// Seed upserts devices into repo, stopping at the first failure.
func Seed(ctx context.Context, repo Repository, devices []GlobalDevice) error {
	for _, d := range devices {
		if _, err := repo.Upsert(ctx, d); err != nil {
			return fmt.Errorf("seeding device %q: %w", d.Name, err)
		}
	}
	return nil
}
