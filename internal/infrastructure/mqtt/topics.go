package mqtt

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTopicLength is the longest device topic accepted, in characters.
// Brokers allow far more; the limit keeps registry entries sane.
const MaxTopicLength = 128

// DefaultBase is the root of the assistant topic tree.
const DefaultBase = "assistant"

// Topics provides builders for assistant MQTT topics under a base prefix.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{Base: "assistant"}
//	topics.IntentResult()
//	// Returns: "assistant/intent_engine/result"
type Topics struct {
	Base string
}

func (t Topics) base() string {
	if t.Base == "" {
		return DefaultBase
	}
	return strings.TrimSuffix(t.Base, "/")
}

// IntentResult returns the topic the intent engine publishes classified requests on.
//
// Example: assistant/intent_engine/result
func (t Topics) IntentResult() string {
	return fmt.Sprintf("%s/intent_engine/result", t.base())
}

// GlobalDeviceUpdate returns the device registry change notification topic.
//
// Example: assistant/global_device_update
func (t Topics) GlobalDeviceUpdate() string {
	return fmt.Sprintf("%s/global_device_update", t.base())
}

// SkillStatus returns the retained online/offline status topic for a skill.
//
// Example: assistant/skill/curtain-skill/status
func (t Topics) SkillStatus(clientID string) string {
	return fmt.Sprintf("%s/skill/%s/status", t.base(), clientID)
}

// ValidatePublishTopic checks that topic is a concrete publish target.
//
// Rejected:
//   - empty topics
//   - wildcard markers '#' and '+'
//   - '$' (reserved for broker-internal topics such as $SYS)
//   - whitespace and control characters anywhere, including at the ends
//   - more than MaxTopicLength characters
func ValidatePublishTopic(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	for _, r := range topic {
		switch {
		case r == '#' || r == '+':
			return fmt.Errorf("%w: wildcard %q not allowed", ErrTopicNotAllowed, r)
		case r == '$':
			return fmt.Errorf("%w: reserved character %q not allowed", ErrTopicNotAllowed, r)
		case unicode.IsSpace(r):
			return fmt.Errorf("%w: whitespace not allowed", ErrTopicNotAllowed)
		case unicode.IsControl(r):
			return fmt.Errorf("%w: control character %U not allowed", ErrTopicNotAllowed, r)
		}
	}

	if n := utf8.RuneCountInString(topic); n > MaxTopicLength {
		return fmt.Errorf("%w: length %d exceeds maximum %d", ErrTopicNotAllowed, n, MaxTopicLength)
	}

	return nil
}
