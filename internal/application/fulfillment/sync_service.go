package fulfillment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spellworks/backend/internal/domain/commerce"
	"github.com/spellworks/backend/internal/domain/fulfillment"
)

// generationTrigger starts a generation attempt for a newly imported order.
type generationTrigger interface {
	Generate(ctx context.Context, orderID uuid.UUID) (*ContentVersionResponse, error)
}

// SyncService imports paid storefront receipts as orders. Re-running a sync
// over the same receipts is idempotent: the receipt identifier deduplicates.
type SyncService struct {
	gateway     commerce.Gateway
	orders      fulfillment.OrderRepository
	categories  fulfillment.CategoryRepository
	checkpoints fulfillment.SyncCheckpointRepository
	generation  generationTrigger
	pageSize    int
	logger      *zap.Logger
}

// NewSyncService creates a new SyncService. generation may be nil to import
// orders without triggering content generation.
func NewSyncService(
	gateway commerce.Gateway,
	orders fulfillment.OrderRepository,
	categories fulfillment.CategoryRepository,
	checkpoints fulfillment.SyncCheckpointRepository,
	generation *GenerationService,
	pageSize int,
	logger *zap.Logger,
) *SyncService {
	s := &SyncService{
		gateway:     gateway,
		orders:      orders,
		categories:  categories,
		checkpoints: checkpoints,
		pageSize:    pageSize,
		logger:      logger.Named("sync"),
	}
	if generation != nil {
		s.generation = generation
	}
	return s
}

// Run executes one sync pass. It satisfies the scheduler's runner contract.
func (s *SyncService) Run(ctx context.Context) error {
	_, err := s.Sync(ctx)
	return err
}

// Sync pages through paid receipts newer than the checkpoint, creates a
// pending order per unseen receipt and advances the checkpoint after each
// fully processed page. A page fetch failure aborts the pass; the checkpoint
// stays where it was so the next pass re-covers the same ground.
func (s *SyncService) Sync(ctx context.Context) (*SyncResult, error) {
	checkpoint, err := s.checkpoints.Get(ctx)
	if err != nil {
		return nil, err
	}

	active, err := s.categories.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	var created []uuid.UUID
	offset := 0

	// The query watermark stays fixed for the entire pass: offsets are
	// positions within one result set, and moving the lower bound between
	// pages would shift receipts out from under them.
	minCreated := checkpoint.LastSyncedAt

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := s.gateway.ListReceipts(ctx, &commerce.ListReceiptsRequest{
			MinCreated: minCreated,
			Limit:      s.pageSize,
			Offset:     offset,
		})
		if err != nil {
			return result, err
		}

		pageMax := checkpoint.LastSyncedAt
		for i := range page.Receipts {
			receipt := &page.Receipts[i]
			if receipt.CreatedAt.After(pageMax) {
				pageMax = receipt.CreatedAt
			}

			orderID, imported, err := s.importReceipt(ctx, receipt, active)
			if err != nil {
				return result, err
			}
			result.Fetched++
			if imported {
				result.Created++
				created = append(created, orderID)
			} else {
				result.Skipped++
			}
		}

		// The whole page is processed; the watermark may move now.
		checkpoint.Advance(pageMax)
		if err := s.checkpoints.Save(ctx, checkpoint); err != nil {
			return result, err
		}

		if !page.HasMore {
			break
		}
		offset = page.NextOffset
	}

	s.logger.Info("Receipt sync pass finished",
		zap.Int("fetched", result.Fetched),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)

	s.triggerGeneration(ctx, created)
	return result, nil
}

// importReceipt creates a pending order for the receipt unless one already
// exists. Returns the order id and whether a new order was created.
func (s *SyncService) importReceipt(ctx context.Context, receipt *commerce.Receipt, active []fulfillment.Category) (uuid.UUID, bool, error) {
	exists, err := s.orders.ExistsByReceiptID(ctx, receipt.ReceiptID)
	if err != nil {
		return uuid.Nil, false, err
	}
	if exists {
		return uuid.Nil, false, nil
	}

	order := fulfillment.NewOrder(receipt.ReceiptID, receipt.BuyerName, receipt.BuyerEmail)
	order.TotalAmount = receipt.TotalAmount
	if receipt.Currency != "" {
		order.Currency = receipt.Currency
	}
	order.OrderedAt = receipt.CreatedAt

	if item := receipt.PrimaryItem(); item != nil {
		order.ListingTitle = item.Title
		order.Personalization = item.Personalization
		order.Intention = extractIntention(item.Personalization)
	}

	// Buyers often put their intention in the checkout note instead of a
	// personalization field; keep the note and use it as the fallback.
	if message := strings.TrimSpace(receipt.MessageFromBuyer); message != "" {
		if order.Personalization == nil {
			order.Personalization = make(map[string]string, 1)
		}
		order.Personalization["buyer_message"] = message
		if order.Intention == "" {
			order.Intention = message
		}
	}

	if category := fulfillment.ResolveCategory(active, order.ListingTitle); category != nil {
		id := category.ID
		order.CategoryID = &id
	}

	if err := s.orders.Create(ctx, order); err != nil {
		// A concurrent pass imported the same receipt between the existence
		// check and the insert.
		if errors.Is(err, fulfillment.ErrDuplicateReceipt) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}

	s.logger.Debug("Receipt imported",
		zap.String("receipt_id", receipt.ReceiptID),
		zap.String("order_id", order.ID.String()),
	)
	return order.ID, true, nil
}

// triggerGeneration starts generation for each newly created order. Failures
// are logged and leave the order failed or pending; they never abort the pass.
func (s *SyncService) triggerGeneration(ctx context.Context, orderIDs []uuid.UUID) {
	if s.generation == nil {
		return
	}
	for _, id := range orderIDs {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.generation.Generate(ctx, id); err != nil {
			s.logger.Warn("Generation after sync failed",
				zap.String("order_id", id.String()),
				zap.Error(err),
			)
		}
	}
}

// extractIntention pulls the buyer's stated intention out of the
// personalization fields, matching the field name case-insensitively.
func extractIntention(personalization map[string]string) string {
	for k, v := range personalization {
		if strings.Contains(strings.ToLower(k), "intention") {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
