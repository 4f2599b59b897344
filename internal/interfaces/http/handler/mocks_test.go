package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/spellworks/backend/internal/domain/fulfillment"
	"github.com/spellworks/backend/internal/domain/shared"
)

// MockOrderRepository is a mock implementation of fulfillment.OrderRepository
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

// MockContentVersionRepository is a mock implementation of fulfillment.ContentVersionRepository
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

// MockDeliveryRecordRepository is a mock implementation of fulfillment.DeliveryRecordRepository
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

// MockCategoryRepository is a mock implementation of fulfillment.CategoryRepository
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

// fakeSyncTrigger is a canned SyncTrigger for handler tests
type fakeSyncTrigger struct {
	err   error
	calls int
}

func (f *fakeSyncTrigger) TriggerNow(ctx context.Context) error {
	f.calls++
	return f.err
}
