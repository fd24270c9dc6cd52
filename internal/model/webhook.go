package model

import (
	"encoding/json"

	"github.com/sashabaranov/go-openai"
)

// EventType is the discriminant of a telephony provider webhook.
type EventType string

// Webhook event types handled by the dispatcher.
const (
	EventAssistantRequest EventType = "assistant-request"
	EventStatusUpdate     EventType = "status-update"
	EventEndOfCallReport  EventType = "end-of-call-report"
	// EventFunctionCall is posted to the appointment endpoint by the assistant.
	EventFunctionCall EventType = "function-call"
)

// CallCustomer is the calling party.
type CallCustomer struct {
	Number string `json:"number,omitempty"`
}

// CallInfo identifies the provider call an event belongs to.
type CallInfo struct {
	ID            string       `json:"id" validate:"required"`
	PhoneNumberID string       `json:"phoneNumberId,omitempty"`
	Customer      CallCustomer `json:"customer,omitempty"`
}

// PhoneNumberInfo is the tenant's destination number the call arrived on.
type PhoneNumberInfo struct {
	Number string `json:"number" validate:"required"`
}

// WebhookEvent is implemented by each decoded webhook payload.
type WebhookEvent interface {
	Kind() EventType
	CallID() string
	// RawPayload returns the body the event was decoded from.
	RawPayload() json.RawMessage
}

// rawBody carries the undecoded payload alongside a typed event.
type rawBody struct {
	raw json.RawMessage
}

// RawPayload returns the body the event was decoded from.
func (r rawBody) RawPayload() json.RawMessage { return r.raw }

// SetRawPayload stores the body the event was decoded from.
func (r *rawBody) SetRawPayload(b json.RawMessage) { r.raw = b }

// AssistantRequestEvent asks for the assistant configuration of an incoming call.
type AssistantRequestEvent struct {
	rawBody
	Type        EventType       `json:"type"`
	Call        CallInfo        `json:"call"`
	PhoneNumber PhoneNumberInfo `json:"phoneNumber"`
}

// Kind implements WebhookEvent.
func (e *AssistantRequestEvent) Kind() EventType { return EventAssistantRequest }

// CallID implements WebhookEvent.
func (e *AssistantRequestEvent) CallID() string { return e.Call.ID }

// StatusUpdateEvent reports an intermediate call status such as "in-progress".
type StatusUpdateEvent struct {
	rawBody
	Type   EventType `json:"type"`
	Call   CallInfo  `json:"call"`
	Status string    `json:"status" validate:"required"`
}

// Kind implements WebhookEvent.
func (e *StatusUpdateEvent) Kind() EventType { return EventStatusUpdate }

// CallID implements WebhookEvent.
func (e *StatusUpdateEvent) CallID() string { return e.Call.ID }

// EndOfCallReportEvent carries the final duration, cost, transcript and summary of a call.
type EndOfCallReportEvent struct {
	rawBody
	Type        EventType       `json:"type"`
	Call        CallInfo        `json:"call"`
	PhoneNumber PhoneNumberInfo `json:"phoneNumber"`
	Duration    float64         `json:"duration" validate:"gte=0"`
	Cost        float64         `json:"cost" validate:"gte=0"`
	Transcript  string          `json:"transcript"`
	Summary     string          `json:"summary"`
	EndedReason string          `json:"endedReason,omitempty"`
}

// Kind implements WebhookEvent.
func (e *EndOfCallReportEvent) Kind() EventType { return EventEndOfCallReport }

// CallID implements WebhookEvent.
func (e *EndOfCallReportEvent) CallID() string { return e.Call.ID }

// CreateAppointmentParams are the arguments of the createAppointment function.
// The description tags feed the function schema advertised to the assistant.
type CreateAppointmentParams struct {
	ClientName    string `json:"clientName" validate:"required" description:"Full name of the client"`
	ClientPhone   string `json:"clientPhone" validate:"required" description:"Client phone number"`
	ClientEmail   string `json:"clientEmail,omitempty" validate:"omitempty,email" description:"Client email address for the confirmation, if offered"`
	ServiceName   string `json:"serviceName" validate:"required" description:"Name of the service to book, as listed in the catalog"`
	PreferredDate string `json:"preferredDate" validate:"required,datetime=2006-01-02" description:"Preferred date in YYYY-MM-DD format"`
	PreferredTime string `json:"preferredTime" validate:"required,datetime=15:04" description:"Preferred time in 24-hour HH:MM format"`
}

// FunctionCall is the invocation the assistant made.
type FunctionCall struct {
	Name       string                  `json:"name" validate:"required"`
	Parameters CreateAppointmentParams `json:"parameters"`
}

// FunctionCallEvent is posted to the appointment endpoint when the assistant books.
type FunctionCallEvent struct {
	Type         EventType       `json:"type"`
	Call         CallInfo        `json:"call"`
	PhoneNumber  PhoneNumberInfo `json:"phoneNumber"`
	FunctionCall FunctionCall    `json:"functionCall"`
}

// --- Responses ---

// AssistantResponse wraps the assistant configuration returned for an assistant-request.
type AssistantResponse struct {
	Assistant AssistantConfig `json:"assistant"`
}

// AssistantConfig describes the conversational agent answering one call.
type AssistantConfig struct {
	Name         string            `json:"name"`
	FirstMessage string            `json:"firstMessage"`
	Model        AssistantModel    `json:"model"`
	Voice        AssistantVoice    `json:"voice"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// AssistantModel selects the language model, its instructions and callable functions.
type AssistantModel struct {
	Provider    string                         `json:"provider"`
	Model       string                         `json:"model"`
	Temperature float32                        `json:"temperature"`
	Messages    []openai.ChatCompletionMessage `json:"messages"`
	Functions   []AssistantFunction            `json:"functions"`
}

// AssistantFunction is a function definition plus where the provider should post invocations.
type AssistantFunction struct {
	openai.FunctionDefinition
	Server *FunctionServer `json:"server,omitempty"`
}

// FunctionServer is the endpoint receiving function-call webhooks.
type FunctionServer struct {
	URL string `json:"url"`
}

// AssistantVoice selects the text-to-speech voice.
type AssistantVoice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

// SuccessResponse acknowledges status-update and end-of-call-report deliveries.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is returned for any rejected or failed delivery.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FunctionResultResponse is the text the assistant reads back after a function call.
type FunctionResultResponse struct {
	Result string `json:"result"`
}
