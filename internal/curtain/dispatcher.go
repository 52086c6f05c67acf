package curtain

// commandQoS is at-least-once delivery for device commands and responses.
const commandQoS byte = 1

// Publisher is the messaging transport. *mqtt.Client implements it and is
// safe for concurrent use.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Recorder receives the outcome of every device publish. Implementations
// must not block.
type Recorder interface {
	RecordDispatch(topic, action string, err error)
}

type noopRecorder struct{}

func (noopRecorder) RecordDispatch(string, string, error) {}

// Dispatcher publishes device commands.
type Dispatcher struct {
	publisher Publisher
	recorder  Recorder
	logger    Logger
}

// NewDispatcher creates a Dispatcher. recorder may be nil.
func NewDispatcher(publisher Publisher, recorder Recorder, logger Logger) *Dispatcher {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Dispatcher{
		publisher: publisher,
		recorder:  recorder,
		logger:    loggerOrNoop(logger),
	}
}

// Dispatch publishes one command per target, in target order.
//
// A failed publish is logged and recorded and the loop moves on to the
// next device. There is no retry. Actions without a payload selector are
// logged and publish nothing.
func (d *Dispatcher) Dispatch(action Action, params Parameters) {
	if !action.Dispatches() {
		d.logger.Error("action has no device command", "action", action.Name)
		return
	}

	for _, dev := range params.Targets {
		payload := action.Payload(dev, params)

		d.logger.Info("sending curtain command",
			"device", dev.Name(),
			"topic", dev.Topic(),
			"payload", payload,
		)

		err := d.publisher.Publish(dev.Topic(), []byte(payload), commandQoS, false)
		d.recorder.RecordDispatch(dev.Topic(), action.Name, err)
		if err != nil {
			d.logger.Error("failed to send curtain command",
				"device", dev.Name(),
				"topic", dev.Topic(),
				"error", err,
			)
		}
	}
}
