package shop

import (
	"context"
	"fmt"
	"sync"

	"github.com/ilmhub/coinhub/internal/ilmhub"
	"github.com/ilmhub/coinhub/internal/model"
)

// fakeBackend is an in-memory IlmHub. It applies the debit on approval the
// way the real backend does, so tests can observe re-queried balances.
type fakeBackend struct {
	mu          sync.Mutex
	items       map[int64]model.RewardItem
	students    map[int64]model.Student
	redemptions map[int64]model.RedemptionRequest
	txs         map[int64][]model.Transaction
	nextID      int64
	calls       map[string]int
	fail        map[string]error
	// emptyUpdate makes UpdateRedemptionStatus apply the change but reply
	// with a zero record, as a 204 decodes.
	emptyUpdate bool
	// block, when set, is waited on inside CreateRedemption.
	block chan struct{}
	// entered is signalled when CreateRedemption starts.
	entered chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		items:       map[int64]model.RewardItem{},
		students:    map[int64]model.Student{},
		redemptions: map[int64]model.RedemptionRequest{},
		txs:         map[int64][]model.Transaction{},
		nextID:      100,
		calls:       map[string]int{},
		fail:        map[string]error{},
	}
}

func (f *fakeBackend) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.fail[name]
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = map[string]int{}
}

func (f *fakeBackend) ListRewardItems(ctx context.Context) ([]model.RewardItem, error) {
	if err := f.record("ListRewardItems"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.RewardItem
	for id := int64(0); id <= f.nextID; id++ {
		if it, ok := f.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeBackend) GetRewardItem(ctx context.Context, id int64) (*model.RewardItem, error) {
	if err := f.record("GetRewardItem"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return nil, &ilmhub.APIError{StatusCode: 404, Method: "GET", Path: fmt.Sprintf("/api/reward-items/%d", id)}
	}
	return &it, nil
}

func (f *fakeBackend) CreateRewardItem(ctx context.Context, in ilmhub.RewardItemInput) (*model.RewardItem, error) {
	if err := f.record("CreateRewardItem"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	it := model.RewardItem{ID: f.nextID, Title: in.Title, Description: in.Description, Cost: in.Cost, Stock: in.Stock}
	f.items[it.ID] = it
	return &it, nil
}

func (f *fakeBackend) DeleteRewardItem(ctx context.Context, id int64) error {
	if err := f.record("DeleteRewardItem"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

func (f *fakeBackend) GetStudent(ctx context.Context, id int64) (*model.Student, error) {
	if err := f.record("GetStudent"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.students[id]
	if !ok {
		return nil, &ilmhub.APIError{StatusCode: 404}
	}
	return &st, nil
}

func (f *fakeBackend) CreateRedemption(ctx context.Context, studentID, rewardItemID int64, quantity int) (*model.RedemptionRequest, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
		}
	}
	if err := f.record("CreateRedemption"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	it := f.items[rewardItemID]
	st := f.students[studentID]
	f.nextID++
	r := model.RedemptionRequest{
		ID:           f.nextID,
		StudentID:    studentID,
		StudentName:  st.FullName(),
		RewardItemID: rewardItemID,
		RewardTitle:  it.Title,
		Quantity:     quantity,
		TotalCost:    it.Cost * quantity,
		Status:       model.StatusPending,
	}
	f.redemptions[r.ID] = r
	return &r, nil
}

func (f *fakeBackend) ListRedemptions(ctx context.Context) ([]model.RedemptionRequest, error) {
	if err := f.record("ListRedemptions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedRedemptions(func(model.RedemptionRequest) bool { return true }), nil
}

func (f *fakeBackend) ListRedemptionsByStudent(ctx context.Context, studentID int64) ([]model.RedemptionRequest, error) {
	if err := f.record("ListRedemptionsByStudent"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedRedemptions(func(r model.RedemptionRequest) bool { return r.StudentID == studentID }), nil
}

func (f *fakeBackend) sortedRedemptions(keep func(model.RedemptionRequest) bool) []model.RedemptionRequest {
	var out []model.RedemptionRequest
	for id := int64(0); id <= f.nextID; id++ {
		if r, ok := f.redemptions[id]; ok && keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeBackend) UpdateRedemptionStatus(ctx context.Context, id int64, status model.Status) (*model.RedemptionRequest, error) {
	if err := f.record("UpdateRedemptionStatus"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.redemptions[id]
	if !ok {
		return nil, &ilmhub.APIError{StatusCode: 404}
	}
	if status == model.StatusApproved {
		st := f.students[r.StudentID]
		st.Coins -= r.TotalCost
		f.students[r.StudentID] = st
	}
	r.Status = status
	f.redemptions[id] = r
	if f.emptyUpdate {
		return &model.RedemptionRequest{}, nil
	}
	return &r, nil
}

func (f *fakeBackend) DeleteRedemption(ctx context.Context, id int64) error {
	if err := f.record("DeleteRedemption"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.redemptions, id)
	return nil
}

func (f *fakeBackend) CreateTransaction(ctx context.Context, studentID int64, amount int, reason string) (*model.Transaction, error) {
	if err := f.record("CreateTransaction"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	tx := model.Transaction{ID: f.nextID, StudentID: studentID, Amount: amount, Reason: reason}
	f.txs[studentID] = append(f.txs[studentID], tx)
	st := f.students[studentID]
	st.Coins += amount
	f.students[studentID] = st
	return &tx, nil
}

func (f *fakeBackend) ListTransactions(ctx context.Context, studentID int64) ([]model.Transaction, error) {
	if err := f.record("ListTransactions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Transaction(nil), f.txs[studentID]...), nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Invalidate(entity, action string, id int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, fmt.Sprintf("%s_%s:%d", entity, action, id))
}
