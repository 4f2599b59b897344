package fulfillment

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spellworks/backend/internal/domain/fulfillment"
)

// DeliveryService emails approved content to buyers. Every attempt, success
// or failure, appends a delivery record; the mail adapter never retries, so a
// message is sent at most once per attempt.
type DeliveryService struct {
	orders     fulfillment.OrderRepository
	versions   fulfillment.ContentVersionRepository
	records    fulfillment.DeliveryRecordRepository
	categories fulfillment.CategoryRepository
	sender     fulfillment.MailSender
	logger     *zap.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

// NewDeliveryService creates a new DeliveryService
func NewDeliveryService(
	orders fulfillment.OrderRepository,
	versions fulfillment.ContentVersionRepository,
	records fulfillment.DeliveryRecordRepository,
	categories fulfillment.CategoryRepository,
	sender fulfillment.MailSender,
	logger *zap.Logger,
) *DeliveryService {
	return &DeliveryService{
		orders:     orders,
		versions:   versions,
		records:    records,
		categories: categories,
		sender:     sender,
		logger:     logger.Named("delivery"),
		inFlight:   make(map[uuid.UUID]struct{}),
	}
}

// Deliver sends the order's approved content to the buyer. The order must be
// APPROVED with an approved current content version; precondition failures
// return before any external call and leave no trace. A second call while one
// is running returns ErrDeliveryInFlight.
func (s *DeliveryService) Deliver(ctx context.Context, orderID uuid.UUID) (*DeliveryRecordResponse, error) {
	if !s.acquire(orderID) {
		return nil, fulfillment.ErrDeliveryInFlight
	}
	defer s.release(orderID)

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != fulfillment.OrderStatusApproved {
		return nil, fulfillment.ErrConflictingState
	}

	version, err := s.versions.FindCurrent(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if version == nil || !version.Approved {
		return nil, fulfillment.ErrNoApprovedContent
	}

	subject, err := s.renderSubject(ctx, order)
	if err != nil {
		return nil, err
	}

	msg := &fulfillment.MailMessage{
		ToName:   order.BuyerName,
		ToEmail:  order.BuyerEmail,
		Subject:  subject,
		TextBody: version.Body,
		HTMLBody: htmlBody(version.Body),
	}

	result, sendErr := s.sender.Send(ctx, msg)
	if sendErr != nil {
		record := fulfillment.NewFailedDeliveryRecord(orderID, version.ID, sendErr.Error())
		if err := s.records.Create(ctx, record); err != nil {
			s.logger.Error("Could not record failed delivery",
				zap.String("order_id", orderID.String()), zap.Error(err))
		}
		if err := s.orders.Transition(ctx, orderID,
			fulfillment.OrderStatusApproved, fulfillment.OrderStatusFailed, sendErr.Error()); err != nil {
			s.logger.Warn("Could not mark order failed after delivery error",
				zap.String("order_id", orderID.String()), zap.Error(err))
		}
		s.logger.Error("Delivery failed",
			zap.String("order_id", orderID.String()),
			zap.Error(sendErr),
		)
		return nil, sendErr
	}

	record := fulfillment.NewDeliveryRecord(orderID, version.ID, result.MessageID)
	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}
	if err := s.orders.Transition(ctx, orderID,
		fulfillment.OrderStatusApproved, fulfillment.OrderStatusDelivered, ""); err != nil {
		return nil, err
	}

	s.logger.Info("Content delivered",
		zap.String("order_id", orderID.String()),
		zap.String("provider_message_id", result.MessageID),
	)

	return ToDeliveryRecordResponse(record), nil
}

// renderSubject renders the category's subject template, falling back to a
// plain receipt reference when no category or template exists.
func (s *DeliveryService) renderSubject(ctx context.Context, order *fulfillment.Order) (string, error) {
	if order.CategoryID != nil {
		category, err := s.categories.FindByID(ctx, *order.CategoryID)
		if err != nil {
			return "", err
		}
		if category.EmailSubject != "" {
			return fulfillment.RenderTemplate(category.EmailSubject, order.TemplateAttributes())
		}
	}
	return fmt.Sprintf("Your order %s", order.ReceiptID), nil
}

// htmlBody wraps the plain-text body as minimal HTML, escaping the content
// and preserving paragraph breaks.
func htmlBody(text string) string {
	escaped := html.EscapeString(text)
	paragraphs := strings.Split(escaped, "\n\n")
	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(p, "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

func (s *DeliveryService) acquire(orderID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.inFlight[orderID]; running {
		return false
	}
	s.inFlight[orderID] = struct{}{}
	return true
}

func (s *DeliveryService) release(orderID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, orderID)
}
