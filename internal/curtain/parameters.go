package curtain

import (
	"context"

	"github.com/nerrad567/curtain-skill/internal/intent"
)

// Parameters is the per-request command bundle.
//
// Built once by Extract and read-only afterwards. Targets holds copies of
// the resolved devices.
type Parameters struct {
	Position int
	Targets  []Device
	Rooms    []string
}

// Extractor builds Parameters from an intent request.
type Extractor struct {
	directory *Directory
	logger    Logger
}

// NewExtractor creates an Extractor resolving devices through directory.
func NewExtractor(directory *Directory, logger Logger) *Extractor {
	return &Extractor{directory: directory, logger: loggerOrNoop(logger)}
}

// Extract resolves target rooms, target devices and, for set intents, the
// position.
//
// Rooms come from room entities, else from the client request's room. A
// number entity that does not parse leaves Position at 0 with a warning.
// The only error is a failed registry read.
func (x *Extractor) Extract(ctx context.Context, req intent.Request) (Parameters, error) {
	ci := req.ClassifiedIntent

	var params Parameters
	if roomEntities := ci.EntitiesOf(intent.EntityRoom); len(roomEntities) > 0 {
		params.Rooms = make([]string, 0, len(roomEntities))
		for _, e := range roomEntities {
			params.Rooms = append(params.Rooms, e.Value())
		}
	} else {
		params.Rooms = []string{req.ClientRequest.Room}
	}

	targets, err := x.directory.FindDevices(ctx, params.Rooms)
	if err != nil {
		return Parameters{}, err
	}
	params.Targets = targets

	if ci.IntentType == intent.DeviceSet {
		if numbers := ci.EntitiesOf(intent.EntityNumber); len(numbers) > 0 {
			position, err := numbers[0].Int()
			if err != nil {
				x.logger.Warn("failed to parse position from entity",
					"raw_text", numbers[0].RawText,
					"error", err,
				)
				position = 0
			}
			params.Position = position
		}
	}

	x.logger.Debug("extracted parameters",
		"intent", ci.IntentType,
		"targets", len(params.Targets),
		"rooms", params.Rooms,
		"position", params.Position,
	)
	return params, nil
}
