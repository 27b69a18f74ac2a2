package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle state of a redemption request. The numeric values
// are the backend's wire values.
type Status int

const (
	StatusPending   Status = 0
	StatusApproved  Status = 1
	StatusDelivered Status = 2
	StatusCanceled  Status = 3
)

var statusLabels = [...]string{"Pending", "Approved", "Delivered", "Canceled"}

// Statuses lists every known status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusDelivered, StatusCanceled}
}

func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusCanceled
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusLabels[s]
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// ParseStatus accepts a label (case-insensitive) or its numeric form.
func ParseStatus(v string) (Status, error) {
	v = strings.TrimSpace(v)
	for i, l := range statusLabels {
		if strings.EqualFold(l, v) {
			return Status(i), nil
		}
	}
	n, err := strconv.Atoi(v)
	if err != nil || !Status(n).Valid() {
		return 0, fmt.Errorf("unknown status %q", v)
	}
	return Status(n), nil
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("marshal status: unknown value %d", int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts both "Approved" and 1; the backend has used both.
func (s *Status) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		parsed, err := ParseStatus(str)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if !Status(n).Valid() {
		return fmt.Errorf("unknown status %d", n)
	}
	*s = Status(n)
	return nil
}

// RedemptionRequest is a student's request to exchange coins for a catalog
// item. TotalCost is fixed at creation as unit cost times quantity.
type RedemptionRequest struct {
	ID           int64     `json:"id"`
	StudentID    int64     `json:"studentId"`
	StudentName  string    `json:"studentName"`
	RewardItemID int64     `json:"rewardItemId"`
	RewardTitle  string    `json:"rewardTitle"`
	Quantity     int       `json:"quantity"`
	TotalCost    int       `json:"totalCost"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}
