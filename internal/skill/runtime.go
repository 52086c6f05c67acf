package skill

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/curtain-skill/internal/curtain"
	"github.com/nerrad567/curtain-skill/internal/infrastructure/mqtt"
	"github.com/nerrad567/curtain-skill/internal/intent"
)

const (
	// subscribeQoS is at-least-once for intents and registry notifications.
	subscribeQoS byte = 1

	// DefaultShutdownTimeout bounds how long Stop waits for in-flight work.
	DefaultShutdownTimeout = 5 * time.Second
)

// Subscriber is the inbound side of the message bus. *mqtt.Client
// implements it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Refresher reloads the device directory. *device.Registry implements it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Processor handles one accepted intent request. *curtain.Skill
// implements it.
type Processor interface {
	ProcessRequest(ctx context.Context, req intent.Request) curtain.Outcome
}

// Config holds runtime settings.
type Config struct {
	// IntentTopic carries intent.Request envelopes. Required.
	IntentTopic string

	// DeviceUpdateTopic carries registry change notifications. Empty
	// disables refresh on notification.
	DeviceUpdateTopic string

	// MinConfidence is the lowest classifier confidence accepted.
	MinConfidence float64

	// Intents are the kinds forwarded to the processor. Others are dropped.
	Intents []intent.Type

	// ShutdownTimeout bounds Stop. Zero means DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
}

// Stats counts inbound traffic since Start.
type Stats struct {
	Received  uint64
	Malformed uint64
	Filtered  uint64
	Accepted  uint64
	Refreshes uint64
}

// Runtime connects the skill to the message bus.
//
// Thread Safety: All methods are safe for concurrent use.
type Runtime struct {
	cfg       Config
	sub       Subscriber
	registry  Refresher
	processor Processor
	tasks     *TaskGroup

	ctx    context.Context
	cancel context.CancelFunc

	started   atomic.Bool
	stopOnce  sync.Once
	received  atomic.Uint64
	malformed atomic.Uint64
	filtered  atomic.Uint64
	accepted  atomic.Uint64
	refreshes atomic.Uint64

	logger   Logger
	loggerMu sync.RWMutex
}

// NewRuntime creates a Runtime. Call Start to subscribe.
func NewRuntime(cfg Config, sub Subscriber, registry Refresher, processor Processor, tasks *TaskGroup) (*Runtime, error) {
	switch {
	case cfg.IntentTopic == "":
		return nil, fmt.Errorf("%w: intent topic is required", ErrInvalidConfig)
	case cfg.MinConfidence < 0 || cfg.MinConfidence > 1:
		return nil, fmt.Errorf("%w: min confidence %v outside 0..1", ErrInvalidConfig, cfg.MinConfidence)
	case len(cfg.Intents) == 0:
		return nil, fmt.Errorf("%w: no intents to handle", ErrInvalidConfig)
	case sub == nil:
		return nil, fmt.Errorf("%w: subscriber is required", ErrInvalidConfig)
	case processor == nil:
		return nil, fmt.Errorf("%w: processor is required", ErrInvalidConfig)
	case registry == nil && cfg.DeviceUpdateTopic != "":
		return nil, fmt.Errorf("%w: device update topic set without a registry", ErrInvalidConfig)
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if tasks == nil {
		tasks = NewTaskGroup(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runtime{
		cfg:       cfg,
		sub:       sub,
		registry:  registry,
		processor: processor,
		tasks:     tasks,
		ctx:       ctx,
		cancel:    cancel,
		logger:    noopLogger{},
	}, nil
}

// SetLogger sets the logger for the runtime.
func (r *Runtime) SetLogger(logger Logger) {
	r.loggerMu.Lock()
	defer r.loggerMu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

func (r *Runtime) log() Logger {
	r.loggerMu.RLock()
	defer r.loggerMu.RUnlock()
	return r.logger
}

// Start subscribes to the intent and device update topics. Work started
// by the runtime is cancelled when ctx is done or Stop is called.
func (r *Runtime) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	// Follow the caller's cancellation as well as Stop.
	stop := context.AfterFunc(ctx, r.cancel)
	abort := make(chan struct{})
	go func() {
		select {
		case <-r.ctx.Done():
		case <-abort:
		}
		stop()
	}()

	// A failed start leaves the runtime as it was before Start.
	fail := func(err error) error {
		close(abort)
		r.started.Store(false)
		return err
	}

	if err := r.sub.Subscribe(r.cfg.IntentTopic, subscribeQoS, r.handleIntent); err != nil {
		return fail(fmt.Errorf("subscribing to intents: %w", err))
	}
	r.log().Info("subscribed to intents", "topic", r.cfg.IntentTopic)

	if r.cfg.DeviceUpdateTopic != "" {
		if err := r.sub.Subscribe(r.cfg.DeviceUpdateTopic, subscribeQoS, r.handleDeviceUpdate); err != nil {
			r.unsubscribe(r.cfg.IntentTopic)
			return fail(fmt.Errorf("subscribing to device updates: %w", err))
		}
		r.log().Info("subscribed to device updates", "topic", r.cfg.DeviceUpdateTopic)
	}

	r.log().Info("skill runtime started",
		"intents", r.cfg.Intents,
		"min_confidence", r.cfg.MinConfidence,
	)
	return nil
}

// Stop unsubscribes, cancels in-flight work and waits up to the shutdown
// timeout for it to finish. Tasks still running after the timeout are
// abandoned. Safe to call more than once.
func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		if r.started.Load() {
			r.unsubscribe(r.cfg.IntentTopic)
			if r.cfg.DeviceUpdateTopic != "" {
				r.unsubscribe(r.cfg.DeviceUpdateTopic)
			}
		}

		// Let in-flight handlers finish their publishes before cancelling.
		finished := r.tasks.Wait(r.cfg.ShutdownTimeout)
		r.cancel()

		if !finished {
			r.log().Warn("skill runtime stopped with tasks still running",
				"active", r.tasks.Active(),
				"timeout", r.cfg.ShutdownTimeout,
			)
			return
		}
		r.log().Info("skill runtime stopped")
	})
}

// Stats returns a snapshot of the traffic counters.
func (r *Runtime) Stats() Stats {
	return Stats{
		Received:  r.received.Load(),
		Malformed: r.malformed.Load(),
		Filtered:  r.filtered.Load(),
		Accepted:  r.accepted.Load(),
		Refreshes: r.refreshes.Load(),
	}
}

func (r *Runtime) unsubscribe(topic string) {
	if err := r.sub.Unsubscribe(topic); err != nil {
		r.log().Warn("unsubscribe failed", "topic", topic, "error", err)
	}
}

// handleIntent decodes one intent message and hands it to the processor.
// It never blocks on processing.
func (r *Runtime) handleIntent(topic string, payload []byte) error {
	if r.ctx.Err() != nil {
		return nil
	}
	r.received.Add(1)

	req, err := intent.DecodeRequest(payload)
	if err != nil {
		r.malformed.Add(1)
		r.log().Warn("dropping malformed intent message", "topic", topic, "error", err)
		return nil
	}

	if !r.accepts(req) {
		r.filtered.Add(1)
		r.log().Debug("intent not handled by this skill",
			"request_id", req.ID,
			"intent", req.ClassifiedIntent.IntentType,
			"confidence", req.ClassifiedIntent.Confidence,
		)
		return nil
	}

	r.accepted.Add(1)
	r.tasks.Go("request", func() {
		started := time.Now()
		outcome := r.processor.ProcessRequest(r.ctx, req)
		r.log().Debug("request processed",
			"request_id", req.ID,
			"intent", req.ClassifiedIntent.IntentType,
			"outcome", outcome.String(),
			"duration", time.Since(started),
		)
	})
	return nil
}

// accepts reports whether req is a handled kind at sufficient confidence.
func (r *Runtime) accepts(req intent.Request) bool {
	ci := req.ClassifiedIntent
	return slices.Contains(r.cfg.Intents, ci.IntentType) && ci.Confidence >= r.cfg.MinConfidence
}

// handleDeviceUpdate refreshes the registry. The payload is ignored.
func (r *Runtime) handleDeviceUpdate(topic string, _ []byte) error {
	if r.ctx.Err() != nil {
		return nil
	}

	r.tasks.Go("registry-refresh", func() {
		if err := r.registry.Refresh(r.ctx); err != nil {
			r.log().Error("device registry refresh failed, keeping previous snapshot",
				"topic", topic,
				"error", err,
			)
			return
		}
		r.refreshes.Add(1)
	})
	return nil
}
