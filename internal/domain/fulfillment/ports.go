package fulfillment

import "context"

// GenerationRequest is a single text generation call.
type GenerationRequest struct {
	// Prompt is the fully rendered user prompt.
	Prompt string
	// System is an optional system prompt.
	System string
	// MaxTokens bounds the response length; 0 uses the adapter default.
	MaxTokens int
}

// GenerationResult is the outcome of a successful generation call.
type GenerationResult struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// TextGenerator is the port to the external generation API. The adapter
// retries transient failures internally; errors that reach the caller are
// terminal for the attempt (ErrGenerationRejected or ErrGenerationUnavailable).
type TextGenerator interface {
	Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error)
}

// MailMessage is an outbound delivery email.
type MailMessage struct {
	ToName   string
	ToEmail  string
	Subject  string
	HTMLBody string
	TextBody string
}

// MailResult is the provider acknowledgement of an accepted message.
type MailResult struct {
	// MessageID is the provider-assigned message identifier.
	MessageID string
}

// MailSender is the port to the email provider. A rejected message surfaces
// ErrDeliveryRejected; a transient provider failure surfaces
// ErrDeliveryUnavailable.
type MailSender interface {
	Send(ctx context.Context, msg *MailMessage) (*MailResult, error)
}
