package fulfillment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spellworks/backend/internal/domain/fulfillment"
)

func approvedOrder() *fulfillment.Order {
	order := fulfillment.NewOrder("3100010", "Ada", "ada@example.com")
	order.Status = fulfillment.OrderStatusApproved
	return order
}

func approvedVersion(orderID uuid.UUID) *fulfillment.ContentVersion {
	version := fulfillment.NewContentVersion(orderID, "Dear Ada,\n\nyour reading.", "prompt", "model", 10, 20)
	version.Version = 2
	version.MarkApproved(time.Now())
	return version
}

func TestDeliveryService_Deliver_Success(t *testing.T) {
	orders := new(MockOrderRepository)
	versions := new(MockContentVersionRepository)
	records := new(MockDeliveryRecordRepository)
	categories := new(MockCategoryRepository)
	sender := new(MockMailSender)

	order := approvedOrder()
	version := approvedVersion(order.ID)

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	versions.On("FindCurrent", mock.Anything, order.ID).Return(version, nil)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg *fulfillment.MailMessage) bool {
		return msg.ToEmail == "ada@example.com" &&
			msg.Subject == "Your order 3100010" &&
			msg.TextBody == version.Body &&
			msg.HTMLBody == "<p>Dear Ada,</p><p>your reading.</p>"
	})).Return(&fulfillment.MailResult{MessageID: "msg-42"}, nil)
	records.On("Create", mock.Anything, mock.MatchedBy(func(r *fulfillment.DeliveryRecord) bool {
		return r.Success && r.ProviderMessageID == "msg-42" && r.ContentVersionID == version.ID
	})).Return(nil)
	orders.On("Transition", mock.Anything, order.ID,
		fulfillment.OrderStatusApproved, fulfillment.OrderStatusDelivered, "").Return(nil)

	svc := NewDeliveryService(orders, versions, records, categories, sender, zap.NewNop())
	resp, err := svc.Deliver(context.Background(), order.ID)

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "msg-42", resp.ProviderMessageID)
	orders.AssertExpectations(t)
	records.AssertExpectations(t)
}

func TestDeliveryService_Deliver_TemplatedSubject(t *testing.T) {
	orders := new(MockOrderRepository)
	versions := new(MockContentVersionRepository)
	records := new(MockDeliveryRecordRepository)
	categories := new(MockCategoryRepository)
	sender := new(MockMailSender)

	categoryID := uuid.New()
	order := approvedOrder()
	order.CategoryID = &categoryID
	version := approvedVersion(order.ID)

	category := fulfillment.NewCategory("Candle", "candle", "tmpl")
	category.ID = categoryID
	category.EmailSubject = "A candle for {{buyer_name}}"

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	versions.On("FindCurrent", mock.Anything, order.ID).Return(version, nil)
	categories.On("FindByID", mock.Anything, categoryID).Return(category, nil)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg *fulfillment.MailMessage) bool {
		return msg.Subject == "A candle for Ada"
	})).Return(&fulfillment.MailResult{MessageID: "msg-43"}, nil)
	records.On("Create", mock.Anything, mock.Anything).Return(nil)
	orders.On("Transition", mock.Anything, order.ID,
		fulfillment.OrderStatusApproved, fulfillment.OrderStatusDelivered, "").Return(nil)

	svc := NewDeliveryService(orders, versions, records, categories, sender, zap.NewNop())
	_, err := svc.Deliver(context.Background(), order.ID)

	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestDeliveryService_Deliver_NotApprovedStatus(t *testing.T) {
	orders := new(MockOrderRepository)
	versions := new(MockContentVersionRepository)
	records := new(MockDeliveryRecordRepository)
	categories := new(MockCategoryRepository)
	sender := new(MockMailSender)

	order := fulfillment.NewOrder("3100011", "Ada", "ada@example.com")
	order.Status = fulfillment.OrderStatusReview

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	svc := NewDeliveryService(orders, versions, records, categories, sender, zap.NewNop())
	_, err := svc.Deliver(context.Background(), order.ID)

	assert.ErrorIs(t, err, fulfillment.ErrConflictingState)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeliveryService_Deliver_UnapprovedVersion(t *testing.T) {
	orders := new(MockOrderRepository)
	versions := new(MockContentVersionRepository)
	records := new(MockDeliveryRecordRepository)
	categories := new(MockCategoryRepository)
	sender := new(MockMailSender)

	order := approvedOrder()
	version := fulfillment.NewContentVersion(order.ID, "body", "prompt", "model", 1, 2)

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	versions.On("FindCurrent", mock.Anything, order.ID).Return(version, nil)

	svc := NewDeliveryService(orders, versions, records, categories, sender, zap.NewNop())
	_, err := svc.Deliver(context.Background(), order.ID)

	assert.ErrorIs(t, err, fulfillment.ErrNoApprovedContent)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDeliveryService_Deliver_ProviderFailureRecordsAndFails(t *testing.T) {
	orders := new(MockOrderRepository)
	versions := new(MockContentVersionRepository)
	records := new(MockDeliveryRecordRepository)
	categories := new(MockCategoryRepository)
	sender := new(MockMailSender)

	order := approvedOrder()
	version := approvedVersion(order.ID)

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	versions.On("FindCurrent", mock.Anything, order.ID).Return(version, nil)
	sender.On("Send", mock.Anything, mock.Anything).Return(nil, fulfillment.ErrDeliveryUnavailable)
	records.On("Create", mock.Anything, mock.MatchedBy(func(r *fulfillment.DeliveryRecord) bool {
		return !r.Success && r.ErrorDetail == fulfillment.ErrDeliveryUnavailable.Error()
	})).Return(nil)
	orders.On("Transition", mock.Anything, order.ID,
		fulfillment.OrderStatusApproved, fulfillment.OrderStatusFailed,
		fulfillment.ErrDeliveryUnavailable.Error()).Return(nil)

	svc := NewDeliveryService(orders, versions, records, categories, sender, zap.NewNop())
	_, err := svc.Deliver(context.Background(), order.ID)

	assert.ErrorIs(t, err, fulfillment.ErrDeliveryUnavailable)
	records.AssertExpectations(t)
	orders.AssertExpectations(t)
}
