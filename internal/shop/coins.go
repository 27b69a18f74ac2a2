package shop

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ilmhub/coinhub/internal/model"
)

// GiveCoinsInput is a teacher's coin award.
type GiveCoinsInput struct {
	StudentID int64  `validate:"gt=0"`
	Amount    int    `validate:"gt=0"`
	Reason    string `validate:"required,max=200"`
}

// GiveCoins credits a student through the ledger and re-queries their
// transactions. The balance is not touched locally.
func (s *Service) GiveCoins(ctx context.Context, in GiveCoinsInput) (*model.Transaction, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}

	done, ok := s.store.Begin(opGiveCoinsPrefix + strconv.FormatInt(in.StudentID, 10))
	if !ok {
		return nil, ErrInFlight
	}
	defer done()

	tx, err := s.backend.CreateTransaction(ctx, in.StudentID, in.Amount, in.Reason)
	if !settled(ctx) {
		return nil, ctx.Err()
	}
	if err != nil {
		s.notifyFailure("create transaction", err)
		return nil, fmt.Errorf("give coins to %d: %w", in.StudentID, err)
	}

	s.notifySuccess(fmt.Sprintf("%d coins given", in.Amount))
	s.invalidate("transaction", "created", in.StudentID)

	if err := s.LoadTransactions(ctx, in.StudentID); err != nil {
		s.logger.Warn("refresh after give coins", "student_id", in.StudentID, "error", err)
	}
	return tx, nil
}
