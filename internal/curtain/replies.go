package curtain

import (
	"fmt"
	"strings"
)

// Fixed replies that do not come from templates.
const (
	ReplyAwaitingPosition = "What position would you like to set the curtains to?"
	ReplyUnsupported      = "I'm not sure how to handle that request."
	ReplyProcessingFailed = "Sorry, I couldn't process your request."
)

// replyNoTargets reports that no curtains matched rooms.
func replyNoTargets(rooms []string) string {
	return fmt.Sprintf("I couldn't find any curtains in %s.", strings.Join(rooms, ", "))
}
