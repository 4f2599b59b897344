package fulfillment

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spellworks/backend/internal/domain/fulfillment"
)

// GenerationService produces content for orders. Each order runs at most one
// generation at a time; every attempt appends a new content version.
type GenerationService struct {
	orders     fulfillment.OrderRepository
	versions   fulfillment.ContentVersionRepository
	categories fulfillment.CategoryRepository
	generator  fulfillment.TextGenerator
	logger     *zap.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

// NewGenerationService creates a new GenerationService
func NewGenerationService(
	orders fulfillment.OrderRepository,
	versions fulfillment.ContentVersionRepository,
	categories fulfillment.CategoryRepository,
	generator fulfillment.TextGenerator,
	logger *zap.Logger,
) *GenerationService {
	return &GenerationService{
		orders:     orders,
		versions:   versions,
		categories: categories,
		generator:  generator,
		logger:     logger.Named("generation"),
		inFlight:   make(map[uuid.UUID]struct{}),
	}
}

// Generate runs one generation attempt for the order. The order must be in a
// state that allows generation (pending, review or failed); the attempt moves
// it through GENERATING and ends in REVIEW on success or FAILED on error.
// A second call while one is running returns ErrGenerationInFlight.
func (s *GenerationService) Generate(ctx context.Context, orderID uuid.UUID) (*ContentVersionResponse, error) {
	if !s.acquire(orderID) {
		return nil, fulfillment.ErrGenerationInFlight
	}
	defer s.release(orderID)

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Claim the order: only one caller wins the move into GENERATING.
	if err := s.orders.Transition(ctx, orderID, order.Status, fulfillment.OrderStatusGenerating, ""); err != nil {
		return nil, err
	}

	version, err := s.generate(ctx, order)
	if err != nil {
		s.failOrder(ctx, orderID, err)
		return nil, err
	}

	if err := s.orders.Transition(ctx, orderID, fulfillment.OrderStatusGenerating, fulfillment.OrderStatusReview, ""); err != nil {
		return nil, err
	}

	s.logger.Info("Content generated",
		zap.String("order_id", orderID.String()),
		zap.Int("version", version.Version),
		zap.Int("output_tokens", version.OutputTokens),
	)

	return ToContentVersionResponse(version), nil
}

// generate renders the prompt, calls the generation client and appends the
// resulting content version.
func (s *GenerationService) generate(ctx context.Context, order *fulfillment.Order) (*fulfillment.ContentVersion, error) {
	if order.CategoryID == nil {
		return nil, fulfillment.ErrCategoryNotFound
	}
	category, err := s.categories.FindByID(ctx, *order.CategoryID)
	if err != nil {
		return nil, err
	}

	prompt, err := fulfillment.RenderTemplate(category.PromptTemplate, order.TemplateAttributes())
	if err != nil {
		return nil, err
	}

	result, err := s.generator.Generate(ctx, &fulfillment.GenerationRequest{Prompt: prompt})
	if err != nil {
		return nil, err
	}

	version := fulfillment.NewContentVersion(
		order.ID, result.Text, prompt, result.Model,
		result.InputTokens, result.OutputTokens,
	)
	if err := s.versions.Create(ctx, version); err != nil {
		return nil, err
	}
	return version, nil
}

// failOrder moves the order into FAILED recording what went wrong. The order
// may already have been moved by a concurrent actor; that loss is logged, not
// escalated, because the generation error itself is what the caller gets.
func (s *GenerationService) failOrder(ctx context.Context, orderID uuid.UUID, cause error) {
	err := s.orders.Transition(ctx, orderID,
		fulfillment.OrderStatusGenerating, fulfillment.OrderStatusFailed, cause.Error())
	if err != nil {
		s.logger.Warn("Could not mark order failed after generation error",
			zap.String("order_id", orderID.String()),
			zap.NamedError("generation_error", cause),
			zap.Error(err),
		)
		return
	}
	s.logger.Error("Generation failed",
		zap.String("order_id", orderID.String()),
		zap.Error(cause),
	)
}

func (s *GenerationService) acquire(orderID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.inFlight[orderID]; running {
		return false
	}
	s.inFlight[orderID] = struct{}{}
	return true
}

func (s *GenerationService) release(orderID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, orderID)
}
