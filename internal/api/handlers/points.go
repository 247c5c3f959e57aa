package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/baharkarakas/point-service/internal/api/httpx"
	"github.com/baharkarakas/point-service/internal/api/validate"
	"github.com/baharkarakas/point-service/internal/models"
	"github.com/baharkarakas/point-service/internal/services"
)

// PointService is what the handlers need from services.TransactionService.
type PointService interface {
	GetBalance(ctx context.Context, userID int64) (models.Balance, error)
	GetHistory(ctx context.Context, userID int64) ([]models.PointHistory, error)
	Charge(ctx context.Context, userID, amount int64) (models.Balance, error)
	Use(ctx context.Context, userID, amount int64) (models.Balance, error)
}

type PointHandler struct {
	svc PointService
	log zerolog.Logger
}

func NewPointHandler(svc PointService, log zerolog.Logger) *PointHandler {
	return &PointHandler{svc: svc, log: log}
}

type amountReq struct {
	Amount *int64 `json:"amount" validate:"required"`
}

type balanceResp struct {
	UserID    int64  `json:"user_id"`
	Point     int64  `json:"point"`
	UpdatedAt string `json:"updated_at"`
}

type historyResp struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Amount    int64  `json:"amount"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func toBalanceResp(b models.Balance) balanceResp {
	return balanceResp{UserID: b.UserID, Point: b.Amount, UpdatedAt: b.UpdatedAt.UTC().Format(timeLayout)}
}

func (h *PointHandler) Balance(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	b, err := h.svc.GetBalance(r.Context(), uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toBalanceResp(b))
}

func (h *PointHandler) Histories(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	hs, err := h.svc.GetHistory(r.Context(), uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]historyResp, 0, len(hs))
	for _, rec := range hs {
		out = append(out, historyResp{
			ID:        rec.ID,
			UserID:    rec.UserID,
			Amount:    rec.Amount,
			Type:      string(rec.Type),
			CreatedAt: rec.CreatedAt.UTC().Format(timeLayout),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *PointHandler) Charge(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.Charge)
}

func (h *PointHandler) Use(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.Use)
}

func (h *PointHandler) mutate(w http.ResponseWriter, r *http.Request, op func(context.Context, int64, int64) (models.Balance, error)) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req amountReq
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		var errs validate.Errs
		if errors.As(err, &errs) {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "validation failed", errs)
			return
		}
		h.fail(w, r, err)
		return
	}
	b, err := op(r.Context(), uid, *req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toBalanceResp(b))
}

// userID parses the {userID} path param. Non-positive values are left to the
// service so they surface as INVALID_IDENTIFIER.
func (h *PointHandler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, string(services.KindInvalidIdentifier), "user id must be an integer", nil)
		return 0, false
	}
	return id, true
}

func (h *PointHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status, _ := httpx.StatusFor(err); status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("point request failed")
	}
	httpx.WriteServiceError(w, err)
}
