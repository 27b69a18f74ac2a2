package state

import (
	"maps"
	"slices"

	"github.com/ilmhub/coinhub/internal/model"
)

// Phase mirrors the request lifecycle of one slice of state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

type Slice string

const (
	SliceCatalog      Slice = "catalog"
	SliceStudent      Slice = "student"
	SliceRedemptions  Slice = "redemptions"
	SliceTransactions Slice = "transactions"
)

type Meta struct {
	Phase Phase  `json:"phase"`
	Error string `json:"error,omitempty"`
}

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a dismissible message for the user.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Snapshot is an immutable view of a session's state. Reduce never shares
// slices or maps between the snapshot it receives and the one it returns.
type Snapshot struct {
	Version      uint64                    `json:"version"`
	Catalog      []model.RewardItem        `json:"catalog"`
	Student      *model.Student            `json:"student"`
	Redemptions  []model.RedemptionRequest `json:"redemptions"`
	Transactions []model.Transaction       `json:"transactions"`
	// TransactionsFor is the student the transaction list belongs to.
	TransactionsFor int64           `json:"transactionsFor,omitempty"`
	Meta            map[Slice]Meta  `json:"meta"`
	InFlight        map[string]bool `json:"inFlight"`
	Notice          *Notice         `json:"notice"`
}

// Initial returns the empty state with every slice idle.
func Initial() Snapshot {
	return Snapshot{
		Catalog:      []model.RewardItem{},
		Redemptions:  []model.RedemptionRequest{},
		Transactions: []model.Transaction{},
		Meta: map[Slice]Meta{
			SliceCatalog:      {Phase: PhaseIdle},
			SliceStudent:      {Phase: PhaseIdle},
			SliceRedemptions:  {Phase: PhaseIdle},
			SliceTransactions: {Phase: PhaseIdle},
		},
		InFlight: map[string]bool{},
	}
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Catalog = slices.Clone(s.Catalog)
	out.Redemptions = slices.Clone(s.Redemptions)
	out.Transactions = slices.Clone(s.Transactions)
	if s.Student != nil {
		st := *s.Student
		out.Student = &st
	}
	if s.Notice != nil {
		n := *s.Notice
		out.Notice = &n
	}
	out.Meta = maps.Clone(s.Meta)
	if out.Meta == nil {
		out.Meta = map[Slice]Meta{}
	}
	out.InFlight = maps.Clone(s.InFlight)
	if out.InFlight == nil {
		out.InFlight = map[string]bool{}
	}
	return out
}

// Redemption returns the redemption with the given id, if loaded.
func (s Snapshot) Redemption(id int64) (model.RedemptionRequest, bool) {
	for _, r := range s.Redemptions {
		if r.ID == id {
			return r, true
		}
	}
	return model.RedemptionRequest{}, false
}

// Item returns the catalog item with the given id, if loaded.
func (s Snapshot) Item(id int64) (model.RewardItem, bool) {
	for _, it := range s.Catalog {
		if it.ID == id {
			return it, true
		}
	}
	return model.RewardItem{}, false
}

// Busy reports whether op is in flight.
func (s Snapshot) Busy(op string) bool {
	return s.InFlight[op]
}
