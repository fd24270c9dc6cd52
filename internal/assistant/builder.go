// Package assistant assembles the per-call assistant configuration returned to
// the telephony provider on assistant-request.
package assistant

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"gitlab.com/timkado/api/voice-receptionist/internal/config"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
)

// CreateAppointmentFunction is the single action the assistant may call.
const CreateAppointmentFunction = "createAppointment"

// DefaultGreeting completes the first message when a tenant has no greeting.
const DefaultGreeting = "how can I help you today?"

// Options are the deployment-wide defaults applied to every assistant.
type Options struct {
	ModelProvider     string
	Model             string
	Temperature       float32
	VoiceProvider     string
	DefaultVoiceID    string
	FunctionServerURL string
	// MaxServicesInPrompt caps the catalog entries listed in the system prompt; 0 means no cap.
	MaxServicesInPrompt int
}

// OptionsFromConfig maps the assistant section of the service config.
func OptionsFromConfig(c config.AssistantConfig) Options {
	return Options{
		ModelProvider:       c.ModelProvider,
		Model:               c.Model,
		Temperature:         c.Temperature,
		VoiceProvider:       c.VoiceProvider,
		DefaultVoiceID:      c.DefaultVoiceID,
		FunctionServerURL:   c.FunctionServerURL,
		MaxServicesInPrompt: c.MaxServicesInPrompt,
	}
}

var appointmentParameters = mustSchema(model.CreateAppointmentParams{})

func mustSchema(v any) *jsonschema.Definition {
	def, err := jsonschema.GenerateSchemaForType(v)
	if err != nil {
		panic(fmt.Sprintf("assistant: cannot build function schema: %v", err))
	}
	return def
}

// Build returns the assistant configuration for one call to cfg's number.
// The result depends only on its inputs: services are listed by name and
// business hours Monday through Sunday.
func Build(cfg model.VoiceConfig, services []model.Service, opts Options) model.AssistantConfig {
	voiceID := cfg.VoiceID
	if voiceID == "" {
		voiceID = opts.DefaultVoiceID
	}

	return model.AssistantConfig{
		Name:         cfg.AssistantName,
		FirstMessage: FirstMessage(cfg),
		Model: model.AssistantModel{
			Provider:    opts.ModelProvider,
			Model:       opts.Model,
			Temperature: opts.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt(cfg, services, opts.MaxServicesInPrompt)},
			},
			Functions: []model.AssistantFunction{createAppointmentFunction(opts.FunctionServerURL)},
		},
		Voice: model.AssistantVoice{
			Provider: opts.VoiceProvider,
			VoiceID:  voiceID,
		},
		Metadata: map[string]string{
			"tenant_id":       cfg.TenantID,
			"voice_config_id": strconv.FormatUint(uint64(cfg.ID), 10),
		},
	}
}

// FirstMessage is the sentence spoken when the call is answered.
func FirstMessage(cfg model.VoiceConfig) string {
	greeting := strings.TrimSpace(cfg.Greeting)
	if greeting == "" {
		greeting = DefaultGreeting
	}
	return fmt.Sprintf("Thank you for calling %s! This is %s, %s", cfg.BusinessName, cfg.AssistantName, greeting)
}

// SystemPrompt renders the assistant instructions from the tenant's catalog,
// hours and booking instructions.
func SystemPrompt(cfg model.VoiceConfig, services []model.Service, maxServices int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, the friendly AI receptionist for %s. ", cfg.AssistantName, cfg.BusinessName)
	b.WriteString("Answer questions about our services and business hours, and book appointments for callers. ")
	b.WriteString("Keep answers short and conversational; you are speaking on the phone.\n\n")

	b.WriteString("Services:\n")
	listed := sortedServices(services)
	if maxServices > 0 && len(listed) > maxServices {
		listed = listed[:maxServices]
	}
	if len(listed) == 0 {
		b.WriteString("- No services are listed yet. Offer to take the caller's details so the team can call back.\n")
	}
	for _, svc := range listed {
		b.WriteString("- ")
		b.WriteString(describeService(svc))
		b.WriteString("\n")
	}

	b.WriteString("\nBusiness hours")
	if cfg.Timezone != "" {
		fmt.Fprintf(&b, " (%s)", cfg.Timezone)
	}
	b.WriteString(":\n")
	hours := cfg.BusinessHours.Data()
	for _, day := range model.Weekdays {
		fmt.Fprintf(&b, "- %s: %s\n", day, describeHours(hours, day))
	}

	if instructions := strings.TrimSpace(cfg.BookingInstructions); instructions != "" {
		b.WriteString("\nBooking instructions:\n")
		b.WriteString(instructions)
		b.WriteString("\n")
	}

	b.WriteString("\nTo book, collect the caller's full name, phone number, the service, and a preferred date and time ")
	fmt.Fprintf(&b, "within business hours, then call %s. Offer to send an email confirmation if the caller gives an address. ", CreateAppointmentFunction)
	b.WriteString("Never quote prices or services that are not listed above.")

	return b.String()
}

func sortedServices(services []model.Service) []model.Service {
	out := make([]model.Service, len(services))
	copy(out, services)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func describeService(svc model.Service) string {
	var details []string
	if svc.Price > 0 {
		details = append(details, fmt.Sprintf("$%.2f", svc.Price))
	}
	if svc.DurationMinutes > 0 {
		details = append(details, fmt.Sprintf("%d minutes", svc.DurationMinutes))
	}

	line := svc.Name
	if len(details) > 0 {
		line += " (" + strings.Join(details, ", ") + ")"
	}
	if desc := strings.TrimSpace(svc.Description); desc != "" {
		line += ": " + desc
	}
	return line
}

func describeHours(hours model.BusinessHours, day time.Weekday) string {
	h, ok := hours.For(day)
	if !ok || h.Closed || h.Open == "" || h.Close == "" {
		return "Closed"
	}
	return h.Open + " - " + h.Close
}

func createAppointmentFunction(serverURL string) model.AssistantFunction {
	fn := model.AssistantFunction{
		FunctionDefinition: openai.FunctionDefinition{
			Name:        CreateAppointmentFunction,
			Description: "Book an appointment for the caller once you have their name, phone number, service, and preferred date and time.",
			Parameters:  appointmentParameters,
		},
	}
	if serverURL != "" {
		fn.Server = &model.FunctionServer{URL: serverURL}
	}
	return fn
}
