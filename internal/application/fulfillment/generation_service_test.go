package fulfillment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spellworks/backend/internal/domain/fulfillment"
)

func pendingOrderWithCategory(categoryID uuid.UUID) *fulfillment.Order {
	order := fulfillment.NewOrder("3100001", "Ada", "ada@example.com")
	order.CategoryID = &categoryID
	order.Intention = "new beginnings"
	return order
}

func promptCategory(id uuid.UUID) *fulfillment.Category {
	category := fulfillment.NewCategory("Candle", "candle", "Write for {{buyer_name}} about {{intention}}.")
	category.ID = id
	return category
}

func TestGenerationService_Generate_Success(t *testing.T) {
	orders := new(MockOrderRepository)
	versions := new(MockContentVersionRepository)
	categories := new(MockCategoryRepository)
	generator := new(MockTextGenerator)

	categoryID := uuid.New()
	order := pendingOrderWithCategory(categoryID)

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orders.On("Transition", mock.Anything, order.ID,
		fulfillment.OrderStatusPending, fulfillment.OrderStatusGenerating, "").Return(nil)
	categories.On("FindByID", mock.Anything, categoryID).Return(promptCategory(categoryID), nil)
	generator.On("Generate", mock.Anything, mock.MatchedBy(func(req *fulfillment.GenerationRequest) bool {
		return req.Prompt == "Write for Ada about new beginnings."
	})).Return(&fulfillment.GenerationResult{
		Text: "Dear Ada ...", Model: "claude-sonnet-4-20250514", InputTokens: 40, OutputTokens: 120,
	}, nil)
	versions.On("Create", mock.Anything, mock.AnythingOfType("*fulfillment.ContentVersion")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*fulfillment.ContentVersion).Version = 1
		}).Return(nil)
	orders.On("Transition", mock.Anything, order.ID,
		fulfillment.OrderStatusGenerating, fulfillment.OrderStatusReview, "").Return(nil)

	svc := NewGenerationService(orders, versions, categories, generator, zap.NewNop())
	resp, err := svc.Generate(context.Background(), order.ID)

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Version)
	assert.Equal(t, "Dear Ada ...", resp.Body)
	assert.Equal(t, 120, resp.OutputTokens)
	orders.AssertExpectations(t)
	versions.AssertExpectations(t)
}

func TestGenerationService_Generate_UnavailableMarksFailed(t *testing.T) {
	orders := new(MockOrderRepository)
	versions := new(MockContentVersionRepository)
	categories := new(MockCategoryRepository)
	generator := new(MockTextGenerator)

	categoryID := uuid.New()
	order := pendingOrderWithCategory(categoryID)

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orders.On("Transition", mock.Anything, order.ID,
		fulfillment.OrderStatusPending, fulfillment.OrderStatusGenerating, "").Return(nil)
	categories.On("FindByID", mock.Anything, categoryID).Return(promptCategory(categoryID), nil)
	generator.On("Generate", mock.Anything, mock.Anything).
		Return(nil, fulfillment.ErrGenerationUnavailable)
	orders.On("Transition", mock.Anything, order.ID,
		fulfillment.OrderStatusGenerating, fulfillment.OrderStatusFailed,
		fulfillment.ErrGenerationUnavailable.Error()).Return(nil)

	svc := NewGenerationService(orders, versions, categories, generator, zap.NewNop())
	_, err := svc.Generate(context.Background(), order.ID)

	assert.ErrorIs(t, err, fulfillment.ErrGenerationUnavailable)
	versions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	orders.AssertExpectations(t)
}

func TestGenerationService_Generate_UnknownPlaceholderFailsOrder(t *testing.T) {
	orders := new(MockOrderRepository)
	versions := new(MockContentVersionRepository)
	categories := new(MockCategoryRepository)
	generator := new(MockTextGenerator)

	categoryID := uuid.New()
	order := pendingOrderWithCategory(categoryID)
	category := promptCategory(categoryID)
	category.PromptTemplate = "Write about {{star_sign}}."

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orders.On("Transition", mock.Anything, order.ID,
		fulfillment.OrderStatusPending, fulfillment.OrderStatusGenerating, "").Return(nil)
	categories.On("FindByID", mock.Anything, categoryID).Return(category, nil)
	orders.On("Transition", mock.Anything, order.ID,
		fulfillment.OrderStatusGenerating, fulfillment.OrderStatusFailed,
		mock.AnythingOfType("string")).Return(nil)

	svc := NewGenerationService(orders, versions, categories, generator, zap.NewNop())
	_, err := svc.Generate(context.Background(), order.ID)

	var templateErr *fulfillment.TemplateError
	require.ErrorAs(t, err, &templateErr)
	assert.Equal(t, "star_sign", templateErr.Placeholder)
	generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestGenerationService_Generate_NoCategoryFailsOrder(t *testing.T) {
	orders := new(MockOrderRepository)
	versions := new(MockContentVersionRepository)
	categories := new(MockCategoryRepository)
	generator := new(MockTextGenerator)

	order := fulfillment.NewOrder("3100002", "Ada", "ada@example.com")

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orders.On("Transition", mock.Anything, order.ID,
		fulfillment.OrderStatusPending, fulfillment.OrderStatusGenerating, "").Return(nil)
	orders.On("Transition", mock.Anything, order.ID,
		fulfillment.OrderStatusGenerating, fulfillment.OrderStatusFailed,
		mock.AnythingOfType("string")).Return(nil)

	svc := NewGenerationService(orders, versions, categories, generator, zap.NewNop())
	_, err := svc.Generate(context.Background(), order.ID)

	assert.ErrorIs(t, err, fulfillment.ErrCategoryNotFound)
}

func TestGenerationService_Generate_ConflictingClaim(t *testing.T) {
	orders := new(MockOrderRepository)
	versions := new(MockContentVersionRepository)
	categories := new(MockCategoryRepository)
	generator := new(MockTextGenerator)

	order := fulfillment.NewOrder("3100003", "Ada", "ada@example.com")

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orders.On("Transition", mock.Anything, order.ID,
		fulfillment.OrderStatusPending, fulfillment.OrderStatusGenerating, "").
		Return(fulfillment.ErrConflictingState)

	svc := NewGenerationService(orders, versions, categories, generator, zap.NewNop())
	_, err := svc.Generate(context.Background(), order.ID)

	assert.ErrorIs(t, err, fulfillment.ErrConflictingState)
	generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestGenerationService_Generate_SecondCallerRejectedWhileRunning(t *testing.T) {
	orders := new(MockOrderRepository)
	versions := new(MockContentVersionRepository)
	categories := new(MockCategoryRepository)
	generator := new(MockTextGenerator)

	categoryID := uuid.New()
	order := pendingOrderWithCategory(categoryID)

	started := make(chan struct{})
	unblock := make(chan struct{})

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orders.On("Transition", mock.Anything, order.ID,
		fulfillment.OrderStatusPending, fulfillment.OrderStatusGenerating, "").Return(nil)
	categories.On("FindByID", mock.Anything, categoryID).Return(promptCategory(categoryID), nil)
	generator.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-unblock
		}).Return(&fulfillment.GenerationResult{Text: "body", Model: "m"}, nil)
	versions.On("Create", mock.Anything, mock.Anything).Return(nil)
	orders.On("Transition", mock.Anything, order.ID,
		fulfillment.OrderStatusGenerating, fulfillment.OrderStatusReview, "").Return(nil)

	svc := NewGenerationService(orders, versions, categories, generator, zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Generate(context.Background(), order.ID)
		assert.NoError(t, err)
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first generation never started")
	}

	_, err := svc.Generate(context.Background(), order.ID)
	assert.ErrorIs(t, err, fulfillment.ErrGenerationInFlight)

	close(unblock)
	wg.Wait()
}
