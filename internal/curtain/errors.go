package curtain

import "errors"

// Domain errors for the curtain package.
var (
	// ErrInvalidTopic is returned when a device topic is not a valid
	// concrete MQTT publish topic.
	ErrInvalidTopic = errors.New("curtain: invalid topic")

	// ErrInvalidPayload is returned when a payload attribute is not a string.
	ErrInvalidPayload = errors.New("curtain: invalid payload")

	// ErrInvalidPayloadTemplate is returned when a set-position template
	// does not contain exactly one position placeholder.
	ErrInvalidPayloadTemplate = errors.New("curtain: invalid payload template")

	// ErrTemplateNotFound is returned at load time when a required response
	// template is missing.
	ErrTemplateNotFound = errors.New("curtain: template not found")

	// ErrMissingDependency is returned by New when a required collaborator is nil.
	ErrMissingDependency = errors.New("curtain: missing dependency")
)
