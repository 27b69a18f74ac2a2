package redemption

import (
	"errors"
	"fmt"

	"github.com/ilmhub/coinhub/internal/model"
)

var (
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// transitions is the staged lifecycle: a request must be approved before it
// can be delivered. Terminal statuses have no entry.
var transitions = map[model.Status][]model.Status{
	model.StatusPending:  {model.StatusApproved, model.StatusCanceled},
	model.StatusApproved: {model.StatusDelivered, model.StatusCanceled},
}

// NextStatuses returns the statuses reachable from s in one review step.
func NextStatuses(s model.Status) []model.Status {
	next := transitions[s]
	out := make([]model.Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether a reviewer may move a request from one status to another.
func CanTransition(from, to model.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition validates a review step and returns the new status.
func Transition(from, to model.Status) (model.Status, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// Tone is the badge color class for a status.
type Tone string

const (
	ToneWarning Tone = "warning"
	ToneSuccess Tone = "success"
	ToneInfo    Tone = "info"
	ToneDanger  Tone = "danger"
	ToneMuted   Tone = "muted"
)

// Badge is the display mapping for a status.
type Badge struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

// BadgeFor returns the badge for s. The mapping is fixed, so rendering the
// same status twice yields the same badge.
func BadgeFor(s model.Status) Badge {
	switch s {
	case model.StatusPending:
		return Badge{Label: "Pending", Tone: ToneWarning}
	case model.StatusApproved:
		return Badge{Label: "Approved", Tone: ToneSuccess}
	case model.StatusDelivered:
		return Badge{Label: "Delivered", Tone: ToneInfo}
	case model.StatusCanceled:
		return Badge{Label: "Canceled", Tone: ToneDanger}
	}
	return Badge{Label: s.String(), Tone: ToneMuted}
}
