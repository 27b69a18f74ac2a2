package redemption

import (
	"fmt"

	"github.com/ilmhub/coinhub/internal/model"
)

// ValidateRequest checks a purchase intent against the item's stock and the
// student's balance and returns the total cost. Quantity is checked first.
func ValidateRequest(student model.Student, item model.RewardItem, quantity int) (int, error) {
	if quantity < 1 || quantity > item.Stock {
		return 0, fmt.Errorf("%w: %d (stock %d)", ErrInvalidQuantity, quantity, item.Stock)
	}
	total := item.Cost * quantity
	if student.Coins < total {
		return 0, fmt.Errorf("%w: need %d coins, have %d", ErrInsufficientFunds, total, student.Coins)
	}
	return total, nil
}
