package device

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry serves device listings from an in-memory snapshot of the
// repository.
//
// The snapshot is replaced wholesale by Refresh and never modified in
// place, so a reader sees either the old device list or the new one.
// Refresh is explicit: call it at startup and whenever the registry
// publishes a change notification. All methods are safe for concurrent use.
type Registry struct {
	repo     Repository
	snapshot atomic.Pointer[Snapshot]

	// refreshMu serialises refreshes so generations stay ordered.
	refreshMu sync.Mutex

	logger Logger
	now    func() time.Time
}

// NewRegistry creates a registry with an empty, unloaded snapshot.
func NewRegistry(repo Repository) *Registry {
	r := &Registry{
		repo:   repo,
		logger: noopLogger{},
		now:    time.Now,
	}
	r.snapshot.Store(&Snapshot{})
	return r
}

// SetLogger sets the logger for the registry.
// A nil logger disables logging.
func (r *Registry) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// Refresh reloads every device from the repository and swaps in a new
// snapshot. On error the current snapshot stays in place.
func (r *Registry) Refresh(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	devices, err := r.repo.List(ctx, Filter{})
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	next := &Snapshot{
		Devices:     make([]GlobalDevice, len(devices)),
		RefreshedAt: r.now(),
		Generation:  r.snapshot.Load().Generation + 1,
	}
	for i := range devices {
		next.Devices[i] = devices[i].Clone()
	}
	r.snapshot.Store(next)

	r.logger.Info("device registry refreshed",
		"count", len(next.Devices),
		"generation", next.Generation,
	)
	return nil
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (r *Registry) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// Loaded reports whether at least one refresh has succeeded.
func (r *Registry) Loaded() bool {
	return r.snapshot.Load().Loaded()
}

// ListDevices returns copies of the snapshot devices matching filter, in
// registry order. An empty result is an empty, non-nil slice.
func (r *Registry) ListDevices(_ context.Context, filter Filter) ([]GlobalDevice, error) {
	snap := r.snapshot.Load()

	out := []GlobalDevice{}
	for _, d := range snap.Devices {
		if filter.Matches(d) {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}
