package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/ilmhub/coinhub/internal/catalog"
	"github.com/ilmhub/coinhub/internal/ilmhub"
	"github.com/ilmhub/coinhub/internal/model"
	"github.com/ilmhub/coinhub/internal/redemption"
	"github.com/ilmhub/coinhub/internal/state"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInFlight     = errors.New("operation already in progress")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	OpSubmitRedemption = "submit-redemption"
	opReviewPrefix     = "review-redemption:"
	opDeletePrefix     = "delete-redemption:"
	opGiveCoinsPrefix  = "give-coins:"
	OpCreateItem       = "create-reward-item"
	opDeleteItemPrefix = "delete-reward-item:"
)

// ReviewOp is the in-flight key for reviewing one redemption.
func ReviewOp(id int64) string { return opReviewPrefix + strconv.FormatInt(id, 10) }

// Backend is the slice of the IlmHub API the shop needs.
type Backend interface {
	ListRewardItems(ctx context.Context) ([]model.RewardItem, error)
	GetRewardItem(ctx context.Context, id int64) (*model.RewardItem, error)
	CreateRewardItem(ctx context.Context, in ilmhub.RewardItemInput) (*model.RewardItem, error)
	DeleteRewardItem(ctx context.Context, id int64) error
	GetStudent(ctx context.Context, id int64) (*model.Student, error)
	CreateRedemption(ctx context.Context, studentID, rewardItemID int64, quantity int) (*model.RedemptionRequest, error)
	ListRedemptions(ctx context.Context) ([]model.RedemptionRequest, error)
	ListRedemptionsByStudent(ctx context.Context, studentID int64) ([]model.RedemptionRequest, error)
	UpdateRedemptionStatus(ctx context.Context, id int64, status model.Status) (*model.RedemptionRequest, error)
	DeleteRedemption(ctx context.Context, id int64) error
	CreateTransaction(ctx context.Context, studentID int64, amount int, reason string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, studentID int64) ([]model.Transaction, error)
}

// Notifier is told about mutations other sessions should re-query for.
type Notifier interface {
	Invalidate(entity, action string, id int64)
}

// Viewer identifies whose view-model a Service maintains.
type Viewer struct {
	UserID int64
	Role   model.Role
}

// Service applies a viewer's operations to the backend and reflects the
// backend's answers in the viewer's store. The store is a read replica: money
// fields are only ever replaced by backend reads.
type Service struct {
	backend  Backend
	store    *state.Store
	viewer   Viewer
	notifier Notifier
	validate *validator.Validate
	logger   *slog.Logger
}

func NewService(backend Backend, store *state.Store, viewer Viewer, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend:  backend,
		store:    store,
		viewer:   viewer,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *Service) Store() *state.Store { return s.store }

func (s *Service) Viewer() Viewer { return s.viewer }

func (s *Service) invalidate(entity, action string, id int64) {
	if s.notifier != nil {
		s.notifier.Invalidate(entity, action, id)
	}
}

// settled reports whether a response should still be applied. A done
// context means the caller went away; its results are dropped.
func settled(ctx context.Context) bool {
	return ctx.Err() == nil
}

func (s *Service) notifyFailure(msg string, err error) {
	s.logger.Warn(msg, "error", err)
	s.store.Dispatch(state.NoticeShown{Notice: state.Notice{Kind: state.NoticeError, Message: UserMessage(err)}})
}

func (s *Service) notifySuccess(msg string) {
	s.store.Dispatch(state.NoticeShown{Notice: state.Notice{Kind: state.NoticeSuccess, Message: msg}})
}

// DismissNotice clears the current notice.
func (s *Service) DismissNotice() {
	s.store.Dispatch(state.NoticeDismissed{})
}

// Offers returns the affordability view over the loaded catalog and balance.
func (s *Service) Offers() []catalog.Offer {
	snap := s.store.State()
	coins := 0
	if snap.Student != nil {
		coins = snap.Student.Coins
	}
	return catalog.View(snap.Catalog, coins)
}

// --- Loaders ---

func (s *Service) LoadCatalog(ctx context.Context) error {
	s.store.Dispatch(state.RequestStarted{Slice: state.SliceCatalog})
	items, err := s.backend.ListRewardItems(ctx)
	if !settled(ctx) {
		return ctx.Err()
	}
	if err != nil {
		s.store.Dispatch(state.RequestFailed{Slice: state.SliceCatalog, Err: UserMessage(err)})
		return fmt.Errorf("load catalog: %w", err)
	}
	s.store.Dispatch(state.CatalogLoaded{Items: items})
	return nil
}

func (s *Service) LoadStudent(ctx context.Context, id int64) (*model.Student, error) {
	s.store.Dispatch(state.RequestStarted{Slice: state.SliceStudent})
	st, err := s.backend.GetStudent(ctx, id)
	if !settled(ctx) {
		return nil, ctx.Err()
	}
	if err != nil {
		s.store.Dispatch(state.RequestFailed{Slice: state.SliceStudent, Err: UserMessage(err)})
		return nil, fmt.Errorf("load student %d: %w", id, err)
	}
	s.store.Dispatch(state.StudentLoaded{Student: *st})
	return st, nil
}

// LoadRedemptions loads the viewer's redemptions: all of them for admins,
// the student's own otherwise.
func (s *Service) LoadRedemptions(ctx context.Context) error {
	s.store.Dispatch(state.RequestStarted{Slice: state.SliceRedemptions})
	var (
		list []model.RedemptionRequest
		err  error
	)
	if s.viewer.Role == model.RoleAdmin {
		list, err = s.backend.ListRedemptions(ctx)
	} else {
		list, err = s.backend.ListRedemptionsByStudent(ctx, s.viewer.UserID)
	}
	if !settled(ctx) {
		return ctx.Err()
	}
	if err != nil {
		s.store.Dispatch(state.RequestFailed{Slice: state.SliceRedemptions, Err: UserMessage(err)})
		return fmt.Errorf("load redemptions: %w", err)
	}
	s.store.Dispatch(state.RedemptionsLoaded{Items: list})
	return nil
}

func (s *Service) LoadTransactions(ctx context.Context, studentID int64) error {
	s.store.Dispatch(state.RequestStarted{Slice: state.SliceTransactions})
	list, err := s.backend.ListTransactions(ctx, studentID)
	if !settled(ctx) {
		return ctx.Err()
	}
	if err != nil {
		s.store.Dispatch(state.RequestFailed{Slice: state.SliceTransactions, Err: UserMessage(err)})
		return fmt.Errorf("load transactions for %d: %w", studentID, err)
	}
	s.store.Dispatch(state.TransactionsLoaded{StudentID: studentID, Items: list})
	return nil
}

// Refresh re-queries everything the viewer's panel shows. Loads run
// concurrently; one failing does not cancel the others.
func (s *Service) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.LoadCatalog(ctx) })
	switch s.viewer.Role {
	case model.RoleStudent:
		g.Go(func() error {
			_, err := s.LoadStudent(ctx, s.viewer.UserID)
			return err
		})
		g.Go(func() error { return s.LoadRedemptions(ctx) })
	case model.RoleAdmin:
		g.Go(func() error { return s.LoadRedemptions(ctx) })
	}
	return g.Wait()
}

// --- Redemption submission ---

// RequestRedemption validates a purchase against the loaded balance and
// stock, then submits it. Validation failures never reach the backend. Coins
// are not debited locally; the student is re-queried after creation.
func (s *Service) RequestRedemption(ctx context.Context, studentID, rewardItemID int64, quantity int) (*model.RedemptionRequest, error) {
	done, ok := s.store.Begin(OpSubmitRedemption)
	if !ok {
		return nil, ErrInFlight
	}
	defer done()

	student, err := s.studentFor(ctx, studentID)
	if err != nil {
		if settled(ctx) {
			s.notifyFailure("load student for redemption", err)
		}
		return nil, err
	}
	item, err := s.itemFor(ctx, rewardItemID)
	if err != nil {
		if settled(ctx) {
			s.notifyFailure("load reward item for redemption", err)
		}
		return nil, err
	}
	if _, err := redemption.ValidateRequest(*student, *item, quantity); err != nil {
		return nil, err
	}

	created, err := s.backend.CreateRedemption(ctx, studentID, rewardItemID, quantity)
	if !settled(ctx) {
		return nil, ctx.Err()
	}
	if err != nil {
		s.notifyFailure("create redemption", err)
		return nil, fmt.Errorf("create redemption: %w", err)
	}

	s.store.Dispatch(state.RedemptionCreated{Redemption: *created})
	s.notifySuccess(fmt.Sprintf("Requested %d × %s", quantity, item.Title))
	s.invalidate("redemption", "created", created.ID)

	var g errgroup.Group
	g.Go(func() error {
		_, err := s.LoadStudent(ctx, studentID)
		return err
	})
	g.Go(func() error { return s.LoadRedemptions(ctx) })
	if err := g.Wait(); err != nil {
		s.logger.Warn("refresh after redemption", "redemption_id", created.ID, "error", err)
	}
	return created, nil
}

// studentFor returns the loaded student if it matches id, else fetches it.
func (s *Service) studentFor(ctx context.Context, id int64) (*model.Student, error) {
	if snap := s.store.State(); snap.Student != nil && snap.Student.ID == id {
		return snap.Student, nil
	}
	return s.LoadStudent(ctx, id)
}

func (s *Service) itemFor(ctx context.Context, id int64) (*model.RewardItem, error) {
	if it, ok := s.store.State().Item(id); ok {
		return &it, nil
	}
	it, err := s.backend.GetRewardItem(ctx, id)
	if !settled(ctx) {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("get reward item %d: %w", id, err)
	}
	return it, nil
}

// --- Redemption review ---

// ReviewRedemption moves a redemption to newStatus. The staged lifecycle is
// enforced here before the backend is asked.
func (s *Service) ReviewRedemption(ctx context.Context, id int64, newStatus model.Status) (*model.RedemptionRequest, error) {
	done, ok := s.store.Begin(ReviewOp(id))
	if !ok {
		return nil, ErrInFlight
	}
	defer done()

	current, ok := s.store.State().Redemption(id)
	if !ok {
		if err := s.LoadRedemptions(ctx); err != nil {
			if settled(ctx) {
				s.notifyFailure("load redemptions for review", err)
			}
			return nil, err
		}
		if current, ok = s.store.State().Redemption(id); !ok {
			return nil, fmt.Errorf("redemption %d: %w", id, ilmhub.ErrNotFound)
		}
	}

	if _, err := redemption.Transition(current.Status, newStatus); err != nil {
		return nil, err
	}

	updated, err := s.backend.UpdateRedemptionStatus(ctx, id, newStatus)
	if !settled(ctx) {
		return nil, ctx.Err()
	}
	if err != nil {
		s.notifyFailure("update redemption status", err)
		if errors.Is(err, ilmhub.ErrNotFound) {
			s.store.Dispatch(state.RedemptionRemoved{ID: id})
		}
		return nil, fmt.Errorf("update redemption %d: %w", id, err)
	}

	// An empty reply (204 or no body) carries no record; the list is
	// re-read and the stored copy returned instead.
	if updated == nil || updated.ID == 0 {
		if err := s.LoadRedemptions(ctx); err != nil {
			if settled(ctx) {
				s.notifyFailure("reload redemption after review", err)
			}
			return nil, fmt.Errorf("reload redemption %d: %w", id, err)
		}
		loaded, ok := s.store.State().Redemption(id)
		if !ok {
			return nil, fmt.Errorf("redemption %d: %w", id, ilmhub.ErrNotFound)
		}
		s.notifySuccess(fmt.Sprintf("Redemption #%d is now %s", id, loaded.Status))
		s.invalidate("redemption", "updated", id)
		return &loaded, nil
	}

	s.store.Dispatch(state.RedemptionUpdated{Redemption: *updated})
	s.notifySuccess(fmt.Sprintf("Redemption #%d is now %s", id, updated.Status))
	s.invalidate("redemption", "updated", id)

	if err := s.LoadRedemptions(ctx); err != nil {
		s.logger.Warn("refresh after review", "redemption_id", id, "error", err)
	}
	return updated, nil
}

// DeleteRedemption removes a redemption upstream. Repeating it is harmless.
func (s *Service) DeleteRedemption(ctx context.Context, id int64) error {
	done, ok := s.store.Begin(opDeletePrefix + strconv.FormatInt(id, 10))
	if !ok {
		return ErrInFlight
	}
	defer done()

	err := s.backend.DeleteRedemption(ctx, id)
	if !settled(ctx) {
		return ctx.Err()
	}
	if err != nil {
		s.notifyFailure("delete redemption", err)
		return fmt.Errorf("delete redemption %d: %w", id, err)
	}
	s.store.Dispatch(state.RedemptionRemoved{ID: id})
	s.invalidate("redemption", "deleted", id)
	return nil
}
