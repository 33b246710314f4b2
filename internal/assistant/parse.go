package assistant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"kiosk-assistant/internal/normalize"
	"kiosk-assistant/internal/types"
)

var (
	ErrMalformedJSON   = errors.New("model reply is not valid JSON")
	ErrUnexpectedShape = errors.New("model reply has an unexpected shape")
	ErrEmptyMessages   = errors.New("model reply contains no messages")
)

const (
	DefaultFacialExpression = "default"
	DefaultAnimation        = "StandingIdle"
)

// envelope is the closed set of reply shapes the model may produce.
type envelope int

const (
	envelopeUnknown  envelope = iota
	envelopeMessages          // {"messages": [...]}
	envelopeArray             // [...]
	envelopeSingle            // {"text": ...}
)

type rawMessage struct {
	Text             string `json:"text"`
	FacialExpression string `json:"facialExpression"`
	Animation        string `json:"animation"`
}

// ParseReply turns a model reply into avatar messages. A reply that is not
// valid JSON gets one more attempt on its outermost {...} span; fallback
// reports whether that second attempt was made.
func ParseReply(raw string) (msgs []types.AvatarMessage, fallback bool, err error) {
	msgs, err = parseEnvelope([]byte(raw))
	if !errors.Is(err, ErrMalformedJSON) {
		return msgs, false, err
	}
	span, ok := normalize.JSONSpan(raw)
	if !ok {
		return nil, true, err
	}
	msgs, err = parseEnvelope([]byte(span))
	return msgs, true, err
}

func classify(data []byte) (envelope, json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return envelopeUnknown, nil, ErrMalformedJSON
	}
	switch data[0] {
	case '[':
		return envelopeArray, data, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return envelopeUnknown, nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
		}
		if m, ok := obj["messages"]; ok {
			return envelopeMessages, m, nil
		}
		if _, ok := obj["text"]; ok {
			return envelopeSingle, data, nil
		}
		return envelopeUnknown, nil, fmt.Errorf("%w: object without messages or text", ErrUnexpectedShape)
	}
	return envelopeUnknown, nil, fmt.Errorf("%w: top-level JSON %s", ErrUnexpectedShape, kindOf(data))
}

func parseEnvelope(data []byte) ([]types.AvatarMessage, error) {
	kind, body, err := classify(data)
	if err != nil {
		return nil, err
	}
	var raws []rawMessage
	switch kind {
	case envelopeMessages, envelopeArray:
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, fmt.Errorf("%w: messages must be an array of objects", ErrUnexpectedShape)
		}
	case envelopeSingle:
		var one rawMessage
		if err := json.Unmarshal(body, &one); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		raws = []rawMessage{one}
	}

	out := make([]types.AvatarMessage, 0, len(raws))
	for _, r := range raws {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		msg := types.AvatarMessage{Text: text, FacialExpression: r.FacialExpression, Animation: r.Animation}
		if msg.FacialExpression == "" {
			msg.FacialExpression = DefaultFacialExpression
		}
		if msg.Animation == "" {
			msg.Animation = DefaultAnimation
		}
		out = append(out, msg)
	}
	if len(out) == 0 {
		return nil, ErrEmptyMessages
	}
	return out, nil
}

func kindOf(data []byte) string {
	switch data[0] {
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	}
	return "number"
}
