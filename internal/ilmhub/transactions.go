package ilmhub

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/ilmhub/coinhub/internal/model"
)

type createTransactionRequest struct {
	Amount      int    `json:"amount"`
	Reason      string `json:"reason"`
	ReferenceID string `json:"referenceId"`
}

// CreateTransaction records a ledger entry for a student. Each call carries a
// fresh reference id.
func (c *Client) CreateTransaction(ctx context.Context, studentID int64, amount int, reason string) (*model.Transaction, error) {
	var tx model.Transaction
	req := createTransactionRequest{Amount: amount, Reason: reason, ReferenceID: uuid.NewString()}
	path := fmt.Sprintf("%s/%d/transactions", studentPrefix, studentID)
	if err := c.do(ctx, http.MethodPost, path, req, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) ListTransactions(ctx context.Context, studentID int64) ([]model.Transaction, error) {
	var list []model.Transaction
	path := fmt.Sprintf("%s/%d/transactions", studentPrefix, studentID)
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}
