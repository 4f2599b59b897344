package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/spellworks/backend/internal/domain/commerce"
	"github.com/spellworks/backend/internal/domain/fulfillment"
	"github.com/spellworks/backend/internal/domain/shared"
)

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByReceiptID(ctx context.Context, receiptID string) (*fulfillment.Order, error) {
	args := m.Called(ctx, receiptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Order), args.Error(1)
}

func (m *MockOrderRepository) ExistsByReceiptID(ctx context.Context, receiptID string) (bool, error) {
	args := m.Called(ctx, receiptID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]fulfillment.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fulfillment.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, order *fulfillment.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *fulfillment.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Transition(ctx context.Context, id uuid.UUID, from, to fulfillment.OrderStatus, detail string) error {
	args := m.Called(ctx, id, from, to, detail)
	return args.Error(0)
}

// MockContentVersionRepository is a mock implementation of ContentVersionRepository
type MockContentVersionRepository struct {
	mock.Mock
}

func (m *MockContentVersionRepository) Create(ctx context.Context, version *fulfillment.ContentVersion) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockContentVersionRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.ContentVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.ContentVersion), args.Error(1)
}

func (m *MockContentVersionRepository) FindCurrent(ctx context.Context, orderID uuid.UUID) (*fulfillment.ContentVersion, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.ContentVersion), args.Error(1)
}

func (m *MockContentVersionRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.ContentVersion, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fulfillment.ContentVersion), args.Error(1)
}

func (m *MockContentVersionRepository) Approve(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockDeliveryRecordRepository is a mock implementation of DeliveryRecordRepository
type MockDeliveryRecordRepository struct {
	mock.Mock
}

func (m *MockDeliveryRecordRepository) Create(ctx context.Context, record *fulfillment.DeliveryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockDeliveryRecordRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.DeliveryRecord, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fulfillment.DeliveryRecord), args.Error(1)
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*fulfillment.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindActive(ctx context.Context) ([]fulfillment.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fulfillment.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context) ([]fulfillment.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fulfillment.Category), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *fulfillment.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *fulfillment.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

// MockSyncCheckpointRepository is a mock implementation of SyncCheckpointRepository
type MockSyncCheckpointRepository struct {
	mock.Mock
}

func (m *MockSyncCheckpointRepository) Get(ctx context.Context) (*fulfillment.SyncCheckpoint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.SyncCheckpoint), args.Error(1)
}

func (m *MockSyncCheckpointRepository) Save(ctx context.Context, checkpoint *fulfillment.SyncCheckpoint) error {
	args := m.Called(ctx, checkpoint)
	return args.Error(0)
}

// MockGateway is a mock implementation of the commerce gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListReceipts(ctx context.Context, req *commerce.ListReceiptsRequest) (*commerce.ListReceiptsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.ListReceiptsResponse), args.Error(1)
}

func (m *MockGateway) ShopID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockTextGenerator is a mock implementation of TextGenerator
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, req *fulfillment.GenerationRequest) (*fulfillment.GenerationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.GenerationResult), args.Error(1)
}

// MockMailSender is a mock implementation of MailSender
type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) Send(ctx context.Context, msg *fulfillment.MailMessage) (*fulfillment.MailResult, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.MailResult), args.Error(1)
}
