package state

import (
	"slices"

	"github.com/ilmhub/coinhub/internal/model"
)

// Action is a state change. Only the concrete types in this file are valid.
type Action interface {
	actionType() string
}

type (
	RequestStarted struct{ Slice Slice }
	RequestFailed  struct {
		Slice Slice
		Err   string
	}
	CatalogLoaded      struct{ Items []model.RewardItem }
	StudentLoaded      struct{ Student model.Student }
	RedemptionsLoaded  struct{ Items []model.RedemptionRequest }
	RedemptionCreated  struct{ Redemption model.RedemptionRequest }
	RedemptionUpdated  struct{ Redemption model.RedemptionRequest }
	RedemptionRemoved  struct{ ID int64 }
	TransactionsLoaded struct {
		StudentID int64
		Items     []model.Transaction
	}
	OperationStarted  struct{ Op string }
	OperationFinished struct{ Op string }
	NoticeShown       struct{ Notice Notice }
	NoticeDismissed   struct{}
	Reset             struct{}
)

func (RequestStarted) actionType() string     { return "request_started" }
func (RequestFailed) actionType() string      { return "request_failed" }
func (CatalogLoaded) actionType() string      { return "catalog_loaded" }
func (StudentLoaded) actionType() string      { return "student_loaded" }
func (RedemptionsLoaded) actionType() string  { return "redemptions_loaded" }
func (RedemptionCreated) actionType() string  { return "redemption_created" }
func (RedemptionUpdated) actionType() string  { return "redemption_updated" }
func (RedemptionRemoved) actionType() string  { return "redemption_removed" }
func (TransactionsLoaded) actionType() string { return "transactions_loaded" }
func (OperationStarted) actionType() string   { return "operation_started" }
func (OperationFinished) actionType() string  { return "operation_finished" }
func (NoticeShown) actionType() string        { return "notice_shown" }
func (NoticeDismissed) actionType() string    { return "notice_dismissed" }
func (Reset) actionType() string              { return "reset" }

// Type returns the action's name for logging.
func Type(a Action) string {
	return a.actionType()
}

// Reduce applies a to s and returns the next state. s is not modified.
// Coin balances and stock only change through the Loaded actions, which
// carry backend data.
func Reduce(s Snapshot, a Action) Snapshot {
	next := s.Clone()
	next.Version = s.Version + 1

	switch a := a.(type) {
	case RequestStarted:
		next.Meta[a.Slice] = Meta{Phase: PhaseLoading}
	case RequestFailed:
		next.Meta[a.Slice] = Meta{Phase: PhaseFailed, Error: a.Err}
	case CatalogLoaded:
		next.Catalog = cloneOrEmpty(a.Items)
		next.Meta[SliceCatalog] = Meta{Phase: PhaseSucceeded}
	case StudentLoaded:
		st := a.Student
		next.Student = &st
		next.Meta[SliceStudent] = Meta{Phase: PhaseSucceeded}
	case RedemptionsLoaded:
		next.Redemptions = cloneOrEmpty(a.Items)
		next.Meta[SliceRedemptions] = Meta{Phase: PhaseSucceeded}
	case RedemptionCreated:
		if i := indexOf(next.Redemptions, a.Redemption.ID); i >= 0 {
			next.Redemptions[i] = a.Redemption
		} else {
			next.Redemptions = append(next.Redemptions, a.Redemption)
		}
	case RedemptionUpdated:
		if i := indexOf(next.Redemptions, a.Redemption.ID); i >= 0 {
			next.Redemptions[i] = a.Redemption
		}
	case RedemptionRemoved:
		next.Redemptions = slices.DeleteFunc(next.Redemptions, func(r model.RedemptionRequest) bool {
			return r.ID == a.ID
		})
	case TransactionsLoaded:
		next.Transactions = cloneOrEmpty(a.Items)
		next.TransactionsFor = a.StudentID
		next.Meta[SliceTransactions] = Meta{Phase: PhaseSucceeded}
	case OperationStarted:
		next.InFlight[a.Op] = true
	case OperationFinished:
		delete(next.InFlight, a.Op)
	case NoticeShown:
		n := a.Notice
		next.Notice = &n
	case NoticeDismissed:
		next.Notice = nil
	case Reset:
		fresh := Initial()
		fresh.Version = next.Version
		return fresh
	}
	return next
}

func indexOf(list []model.RedemptionRequest, id int64) int {
	return slices.IndexFunc(list, func(r model.RedemptionRequest) bool { return r.ID == id })
}

func cloneOrEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}
