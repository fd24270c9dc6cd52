package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/validator"
)

// envelope is the provider's wrapper around server messages.
type envelope struct {
	Message json.RawMessage `json:"message"`
}

type discriminant struct {
	Type model.EventType `json:"type"`
}

// decodable is a webhook event that can carry its raw body.
type decodable interface {
	model.WebhookEvent
	SetRawPayload(b json.RawMessage)
}

// Unwrap returns the event object of a webhook body, accepting both the bare
// event and the provider's {"message": {...}} envelope.
func Unwrap(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty request body", apperrors.ErrBadRequest)
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON body: %v", apperrors.ErrBadRequest, err)
	}
	if msg := bytes.TrimSpace(env.Message); len(msg) > 0 && msg[0] == '{' {
		return msg, nil
	}
	return trimmed, nil
}

// Decode turns a webhook body into one of the known event types and validates
// it. A missing or unrecognized type yields apperrors.ErrUnknownEventType.
func Decode(raw []byte) (model.WebhookEvent, error) {
	body, err := Unwrap(raw)
	if err != nil {
		return nil, err
	}

	var d discriminant
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("%w: invalid event type: %v", apperrors.ErrBadRequest, err)
	}

	var evt decodable
	switch d.Type {
	case model.EventAssistantRequest:
		evt = &model.AssistantRequestEvent{}
	case model.EventStatusUpdate:
		evt = &model.StatusUpdateEvent{}
	case model.EventEndOfCallReport:
		evt = &model.EndOfCallReportEvent{}
	default:
		return nil, apperrors.ErrUnknownEventType
	}

	if err := json.Unmarshal(body, evt); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal %s: %v", apperrors.ErrBadRequest, d.Type, err)
	}
	if err := validator.Validate(evt); err != nil {
		return nil, err
	}

	evt.SetRawPayload(body)
	return evt, nil
}

// PeekType reports the discriminant of a body without validating it. It is
// used for metrics and failure records when Decode fails.
func PeekType(raw []byte) model.EventType {
	body, err := Unwrap(raw)
	if err != nil {
		return ""
	}
	var d discriminant
	_ = json.Unmarshal(body, &d)
	return d.Type
}
