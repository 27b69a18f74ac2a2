package shop

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ilmhub/coinhub/internal/ilmhub"
	"github.com/ilmhub/coinhub/internal/model"
)

// CreateRewardItem adds a catalog item and re-queries the catalog.
func (s *Service) CreateRewardItem(ctx context.Context, in ilmhub.RewardItemInput) (*model.RewardItem, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}

	done, ok := s.store.Begin(OpCreateItem)
	if !ok {
		return nil, ErrInFlight
	}
	defer done()

	item, err := s.backend.CreateRewardItem(ctx, in)
	if !settled(ctx) {
		return nil, ctx.Err()
	}
	if err != nil {
		s.notifyFailure("create reward item", err)
		return nil, fmt.Errorf("create reward item: %w", err)
	}

	s.notifySuccess(fmt.Sprintf("Added %s", item.Title))
	s.invalidate("reward_item", "created", item.ID)
	if err := s.LoadCatalog(ctx); err != nil {
		s.logger.Warn("refresh after create item", "item_id", item.ID, "error", err)
	}
	return item, nil
}

// DeleteRewardItem removes a catalog item. Open redemptions referencing it
// are the backend's concern.
func (s *Service) DeleteRewardItem(ctx context.Context, id int64) error {
	done, ok := s.store.Begin(opDeleteItemPrefix + strconv.FormatInt(id, 10))
	if !ok {
		return ErrInFlight
	}
	defer done()

	err := s.backend.DeleteRewardItem(ctx, id)
	if !settled(ctx) {
		return ctx.Err()
	}
	if err != nil {
		s.notifyFailure("delete reward item", err)
		return fmt.Errorf("delete reward item %d: %w", id, err)
	}

	s.invalidate("reward_item", "deleted", id)
	if err := s.LoadCatalog(ctx); err != nil {
		s.logger.Warn("refresh after delete item", "item_id", id, "error", err)
	}
	return nil
}
