package handler

import (
	"log/slog"
	"net/http"

	"github.com/ilmhub/coinhub/internal/auth"
	"github.com/ilmhub/coinhub/internal/catalog"
	"github.com/ilmhub/coinhub/internal/ilmhub"
	"github.com/ilmhub/coinhub/internal/model"
	"github.com/ilmhub/coinhub/internal/redemption"
	"github.com/ilmhub/coinhub/internal/shop"
	"github.com/ilmhub/coinhub/internal/state"
)

// ShopHandler serves the session-bound operations. Every request runs
// against the caller's own Service and store.
type ShopHandler struct {
	registry *shop.Registry
	logger   *slog.Logger
}

func NewShopHandler(registry *shop.Registry, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{registry: registry, logger: logger}
}

func (h *ShopHandler) service(w http.ResponseWriter, r *http.Request) (*shop.Service, auth.AuthContext, bool) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "not logged in")
		return nil, ac, false
	}
	return h.registry.For(ac.Session), ac, true
}

type redemptionView struct {
	model.RedemptionRequest
	Badge        redemption.Badge `json:"badge"`
	NextStatuses []model.Status   `json:"nextStatuses"`
}

func viewRedemption(r model.RedemptionRequest) redemptionView {
	return redemptionView{
		RedemptionRequest: r,
		Badge:             redemption.BadgeFor(r.Status),
		NextStatuses:      redemption.NextStatuses(r.Status),
	}
}

func viewRedemptions(list []model.RedemptionRequest) []redemptionView {
	out := make([]redemptionView, 0, len(list))
	for _, r := range list {
		out = append(out, viewRedemption(r))
	}
	return out
}

type shopResponse struct {
	Student *model.Student  `json:"student"`
	Coins   int             `json:"coins"`
	Offers  []catalog.Offer `json:"offers"`
}

// Shop returns the student's balance and the affordability view. The first
// visit, or ?refresh=1, re-queries the backend.
func (h *ShopHandler) Shop(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	snap := svc.Store().State()
	if snap.Meta[state.SliceCatalog].Phase == state.PhaseIdle || r.URL.Query().Get("refresh") != "" {
		if err := svc.Refresh(r.Context()); err != nil {
			writeError(w, h.logger, "load shop", err)
			return
		}
		snap = svc.Store().State()
	}
	resp := shopResponse{Student: snap.Student, Offers: svc.Offers()}
	if snap.Student != nil {
		resp.Coins = snap.Student.Coins
	}
	writeJSON(w, http.StatusOK, resp)
}

type createRedemptionRequest struct {
	RewardItemID int64 `json:"rewardItemId"`
	Quantity     int   `json:"quantity"`
}

func (h *ShopHandler) CreateRedemption(w http.ResponseWriter, r *http.Request) {
	svc, ac, ok := h.service(w, r)
	if !ok {
		return
	}
	var req createRedemptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := svc.RequestRedemption(r.Context(), ac.UserID, req.RewardItemID, req.Quantity)
	if err != nil {
		writeError(w, h.logger, "create redemption", err)
		return
	}
	writeJSON(w, http.StatusCreated, viewRedemption(*created))
}

// ListRedemptions returns every redemption for admins and the caller's own
// otherwise.
func (h *ShopHandler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	if err := svc.LoadRedemptions(r.Context()); err != nil {
		writeError(w, h.logger, "list redemptions", err)
		return
	}
	writeJSON(w, http.StatusOK, viewRedemptions(svc.Store().State().Redemptions))
}

type updateStatusRequest struct {
	Status *model.Status `json:"status"`
}

func (h *ShopHandler) UpdateRedemptionStatus(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == nil {
		writeMessage(w, http.StatusUnprocessableEntity, "status is required")
		return
	}
	updated, err := svc.ReviewRedemption(r.Context(), id, *req.Status)
	if err != nil {
		writeError(w, h.logger, "update redemption status", err)
		return
	}
	writeJSON(w, http.StatusOK, viewRedemption(*updated))
}

func (h *ShopHandler) DeleteRedemption(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := svc.DeleteRedemption(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete redemption", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ShopHandler) ListRewardItems(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	if err := svc.LoadCatalog(r.Context()); err != nil {
		writeError(w, h.logger, "list reward items", err)
		return
	}
	writeJSON(w, http.StatusOK, svc.Store().State().Catalog)
}

func (h *ShopHandler) CreateRewardItem(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	var req ilmhub.RewardItemInput
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := svc.CreateRewardItem(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "create reward item", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ShopHandler) DeleteRewardItem(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := svc.DeleteRewardItem(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete reward item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type giveCoinsRequest struct {
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

func (h *ShopHandler) GiveCoins(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req giveCoinsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tx, err := svc.GiveCoins(r.Context(), shop.GiveCoinsInput{StudentID: id, Amount: req.Amount, Reason: req.Reason})
	if err != nil {
		writeError(w, h.logger, "give coins", err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *ShopHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := svc.LoadTransactions(r.Context(), id); err != nil {
		writeError(w, h.logger, "list transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, svc.Store().State().Transactions)
}

// --- Snapshot ---

func (h *ShopHandler) State(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, svc.Store().State())
}

// RefreshState re-queries the caller's panel. Partial failures are recorded
// per slice in the snapshot's meta, so the snapshot is returned regardless.
func (h *ShopHandler) RefreshState(w http.ResponseWriter, r *http.Request) {
	svc, ac, ok := h.service(w, r)
	if !ok {
		return
	}
	if err := svc.Refresh(r.Context()); err != nil {
		h.logger.Warn("refresh state", "session_id", ac.SessionID, "error", err)
	}
	writeJSON(w, http.StatusOK, svc.Store().State())
}

func (h *ShopHandler) DismissNotice(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	svc.DismissNotice()
	w.WriteHeader(http.StatusNoContent)
}
