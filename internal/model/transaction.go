package model

import "time"

// Transaction is a ledger entry owned by the backend. Positive amounts credit
// the student, negative amounts debit.
type Transaction struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"studentId"`
	Amount      int       `json:"amount"`
	Reason      string    `json:"reason"`
	ReferenceID string    `json:"referenceId"`
	CreatedAt   time.Time `json:"createdAt"`
}
