package curtain

import (
	"fmt"

	"github.com/nerrad567/curtain-skill/internal/intent"
)

// Responder publishes replies to the client's output topic.
type Responder struct {
	publisher Publisher
	logger    Logger
}

// NewResponder creates a Responder.
func NewResponder(publisher Publisher, logger Logger) *Responder {
	return &Responder{publisher: publisher, logger: loggerOrNoop(logger)}
}

// Send publishes text as an intent.Response. A request without an output
// topic is logged and skipped.
func (r *Responder) Send(text string, req intent.ClientRequest) error {
	if req.OutputTopic == "" {
		r.logger.Warn("client request has no output topic, dropping response",
			"client_request_id", req.ID,
		)
		return nil
	}

	payload, err := intent.EncodeResponse(intent.NewResponse(text, req))
	if err != nil {
		return err
	}

	if err := r.publisher.Publish(req.OutputTopic, payload, commandQoS, false); err != nil {
		return fmt.Errorf("publishing response to %s: %w", req.OutputTopic, err)
	}
	return nil
}
