package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/baharkarakas/point-service/internal/api/httpx"
	"github.com/baharkarakas/point-service/internal/api/validate"
	"github.com/baharkarakas/point-service/internal/auth"
)

type AuthHandler struct {
	TM     *auth.TokenManager
	AppEnv string
}

func NewAuthHandler(tm *auth.TokenManager, appEnv string) *AuthHandler {
	return &AuthHandler{TM: tm, AppEnv: appEnv}
}

type tokenReq struct {
	UserID int64 `json:"user_id" validate:"gt=0"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

// Token issues a pair for any user id. Dev only; there is no credential store.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if h.AppEnv != "dev" {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "token issuance is disabled", nil)
		return
	}
	var req tokenReq
	if !decode(w, r, &req) {
		return
	}
	h.issue(w, req.UserID)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if !decode(w, r, &req) {
		return
	}
	claims, err := h.TM.ParseRefresh(req.RefreshToken)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token", nil)
		return
	}
	uid, _ := claims.UID()
	h.issue(w, uid)
}

func (h *AuthHandler) issue(w http.ResponseWriter, uid int64) {
	pair, err := h.TM.GeneratePair(uid)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "token generation failed", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResp{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		ExpiresIn:    int64(time.Until(pair.AccessExp).Truncate(time.Second).Seconds()),
	})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12)).Decode(dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var errs validate.Errs
		if errors.As(err, &errs) {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "validation failed", errs)
			return false
		}
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return false
	}
	return true
}
