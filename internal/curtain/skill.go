package curtain

import (
	"context"
	"fmt"

	"github.com/nerrad567/curtain-skill/internal/intent"
)

// Outcome is the terminal state a request reached.
type Outcome int

// Request outcomes.
const (
	// OutcomeDropped: the intent was not about curtains; nothing was sent.
	OutcomeDropped Outcome = iota
	// OutcomeUnsupported: the intent kind has no action.
	OutcomeUnsupported
	// OutcomeFailed: the registry could not be read.
	OutcomeFailed
	// OutcomeNoTargets: no curtains in the requested rooms.
	OutcomeNoTargets
	// OutcomeAwaitingParameter: a set intent arrived without a number.
	OutcomeAwaitingParameter
	// OutcomeAnswered: a reply was scheduled with no device commands.
	OutcomeAnswered
	// OutcomeDispatched: reply and device commands were scheduled.
	OutcomeDispatched
)

var outcomeNames = [...]string{
	OutcomeDropped:           "dropped",
	OutcomeUnsupported:       "unsupported",
	OutcomeFailed:            "failed",
	OutcomeNoTargets:         "no_targets",
	OutcomeAwaitingParameter: "awaiting_parameter",
	OutcomeAnswered:          "answered",
	OutcomeDispatched:        "dispatched",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// TaskRunner runs background units of work. The skill runtime supplies a
// tracked implementation; the default starts a bare goroutine.
type TaskRunner interface {
	Go(name string, fn func())
}

type goRunner struct{}

func (goRunner) Go(_ string, fn func()) { go fn() }

// Config wires a Skill to its collaborators.
type Config struct {
	Lister    DeviceLister // required
	Publisher Publisher    // required
	Templates *Templates   // required
	Tasks     TaskRunner
	Recorder  Recorder
	Logger    Logger
}

// Skill turns classified intents into curtain commands and replies.
// ProcessRequest may be called concurrently.
type Skill struct {
	extractor  *Extractor
	renderer   *Renderer
	dispatcher *Dispatcher
	responder  *Responder
	tasks      TaskRunner
	logger     Logger
}

// New creates a Skill. Templates must already be loaded, so a missing
// template fails at startup rather than per request.
func New(cfg Config) (*Skill, error) {
	switch {
	case cfg.Lister == nil:
		return nil, fmt.Errorf("%w: device lister", ErrMissingDependency)
	case cfg.Publisher == nil:
		return nil, fmt.Errorf("%w: publisher", ErrMissingDependency)
	case cfg.Templates == nil:
		return nil, fmt.Errorf("%w: templates", ErrMissingDependency)
	}

	for _, name := range requiredTemplates() {
		if _, ok := cfg.Templates.Lookup(name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
	}

	logger := loggerOrNoop(cfg.Logger)
	tasks := cfg.Tasks
	if tasks == nil {
		tasks = goRunner{}
	}

	return &Skill{
		extractor:  NewExtractor(NewDirectory(cfg.Lister, logger), logger),
		renderer:   NewRenderer(cfg.Templates, logger),
		dispatcher: NewDispatcher(cfg.Publisher, cfg.Recorder, logger),
		responder:  NewResponder(cfg.Publisher, logger),
		tasks:      tasks,
		logger:     logger,
	}, nil
}

// ProcessRequest runs one request to a terminal Outcome.
//
// Terminal replies (no targets, awaiting parameter, unsupported, failed)
// are sent before returning. On the ready path the reply and the device
// commands are handed to the TaskRunner as two independent tasks, so a
// failure in one never affects the other.
func (s *Skill) ProcessRequest(ctx context.Context, req intent.Request) Outcome {
	ci := req.ClassifiedIntent
	s.logger.Debug("processing intent",
		"request_id", req.ID,
		"intent", ci.IntentType,
		"confidence", ci.Confidence,
	)

	if scopedToDevice(ci.IntentType) && !IsInDomain(ci) {
		s.logger.Info("intent is not for curtain control, ignoring",
			"request_id", req.ID,
			"intent", ci.IntentType,
		)
		return OutcomeDropped
	}

	action, ok := LookupAction(ci.IntentType)
	if !ok {
		s.logger.Warn("unsupported intent type", "request_id", req.ID, "intent", ci.IntentType)
		s.reply(req, ReplyUnsupported)
		return OutcomeUnsupported
	}

	var params Parameters
	if action.RequiresTargets {
		var err error
		params, err = s.extractor.Extract(ctx, req)
		if err != nil {
			s.logger.Error("resolving curtains failed", "request_id", req.ID, "error", err)
			s.reply(req, ReplyProcessingFailed)
			return OutcomeFailed
		}

		if len(params.Targets) == 0 {
			s.reply(req, replyNoTargets(params.Rooms))
			return OutcomeNoTargets
		}

		// An explicit 0 is a valid position; only a missing number asks back.
		if ci.IntentType == intent.DeviceSet && params.Position == 0 && !ci.HasEntity(intent.EntityNumber) {
			s.reply(req, ReplyAwaitingPosition)
			return OutcomeAwaitingParameter
		}
	}

	text := s.renderer.Render(action, params)
	s.tasks.Go("response", func() {
		s.reply(req, text)
	})

	if !action.Dispatches() {
		return OutcomeAnswered
	}

	s.tasks.Go("dispatch", func() {
		s.dispatcher.Dispatch(action, params)
	})
	return OutcomeDispatched
}

// reply sends text and logs a failure; replies are never retried.
func (s *Skill) reply(req intent.Request, text string) {
	if err := s.responder.Send(text, req.ClientRequest); err != nil {
		s.logger.Error("failed to send response",
			"request_id", req.ID,
			"output_topic", req.ClientRequest.OutputTopic,
			"error", err,
		)
	}
}

// scopedToDevice reports whether an intent kind must name a curtain before
// this skill answers it. Other skills share these kinds.
func scopedToDevice(t intent.Type) bool {
	return t.IsDeviceControl() || t == intent.SystemHelp
}
