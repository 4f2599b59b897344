package fulfillment

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.New("fulfillment: order not found")
	// ErrCategoryNotFound indicates the requested category does not exist.
	ErrCategoryNotFound = errors.New("fulfillment: category not found")
	// ErrDuplicateReceipt indicates an order for the receipt already exists.
	ErrDuplicateReceipt = errors.New("fulfillment: receipt already imported")
	// ErrConflictingState indicates the order's status changed between read
	// and write; the caller should re-read and re-evaluate.
	ErrConflictingState = errors.New("fulfillment: order modified concurrently")
	// ErrGenerationInFlight indicates a generation attempt is already running
	// for the order.
	ErrGenerationInFlight = errors.New("fulfillment: generation already in progress")
	// ErrDeliveryInFlight indicates a delivery attempt is already running for
	// the order.
	ErrDeliveryInFlight = errors.New("fulfillment: delivery already in progress")
	// ErrNoApprovedContent indicates the order has no approved content version
	// to deliver.
	ErrNoApprovedContent = errors.New("fulfillment: no approved content version")
	// ErrGenerationRejected indicates the generation API refused the request;
	// retrying the same request will not help.
	ErrGenerationRejected = errors.New("fulfillment: generation request rejected")
	// ErrGenerationUnavailable indicates the generation API kept failing
	// transiently after bounded retries.
	ErrGenerationUnavailable = errors.New("fulfillment: generation service unavailable")
	// ErrDeliveryRejected indicates the email provider rejected the message;
	// the message itself must change before retrying.
	ErrDeliveryRejected = errors.New("fulfillment: delivery rejected by provider")
	// ErrDeliveryUnavailable indicates the email provider failed transiently;
	// the same message may be retried later.
	ErrDeliveryUnavailable = errors.New("fulfillment: delivery provider unavailable")
)

// TemplateError indicates a prompt template referenced a placeholder with no
// corresponding order attribute. The attempt is fatal; the template or the
// order data must change.
type TemplateError struct {
	Placeholder string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("fulfillment: template references unknown placeholder %q", e.Placeholder)
}
