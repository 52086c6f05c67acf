package intent

import (
	"encoding/json"
	"fmt"
)

// DecodeRequest parses an intent result message.
//
// Besides JSON syntax, the envelope must name an intent type; a request
// without one cannot be routed by any skill.
func DecodeRequest(payload []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if req.ClassifiedIntent.IntentType == "" {
		return Request{}, fmt.Errorf("%w: missing intent_type", ErrMalformedRequest)
	}
	return req, nil
}

// EncodeResponse serialises a response for publishing.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return data, nil
}
