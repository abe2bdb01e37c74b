// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pdiddy/report-drafter/internal/store"
)

// DefaultQuota is granted to accounts created without an explicit quota.
const DefaultQuota = 10

type createAccountRequest struct {
	Email string `json:"email"`
	Quota int    `json:"quota"`
}

type useQuotaRequest struct {
	UserID string `json:"user_id"`
}

type rechargeOption struct {
	store.RechargePackage
	Reference string `json:"reference"`
}

type rechargeInfo struct {
	AccountID string           `json:"account_id"`
	Email     string           `json:"email"`
	Quota     int              `json:"quota"`
	Locked    bool             `json:"locked"`
	Packages  []rechargeOption `json:"packages"`
}

type rechargeRequest struct {
	Package string `json:"package"`
}

type useQuotaResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	RemainingQuota int    `json:"remaining_quota"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if status, err := decodeJSONBody(w, r, &req, false); err != nil {
		respondError(w, status, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		respondError(w, http.StatusBadRequest, errors.New("email is required"))
		return
	}
	if req.Quota <= 0 {
		req.Quota = DefaultQuota
	}
	account, err := s.store.CreateAccount(r.Context(), req.Email, req.Quota)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("account created", zap.String("account", account.ID), zap.Int("quota", account.Quota))
	respondJSON(w, http.StatusCreated, account)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.store.GetAccount(r.Context(), chi.URLParam(r, "account"))
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, account)
}

// handleUseQuota consumes one credit: 403 for an inactive account, 402 once
// the credits are gone.
func (s *Server) handleUseQuota(w http.ResponseWriter, r *http.Request) {
	var req useQuotaRequest
	if status, err := decodeJSONBody(w, r, &req, false); err != nil {
		respondError(w, status, err)
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, errors.New("user_id is required"))
		return
	}

	remaining, err := s.store.UseQuota(r.Context(), req.UserID)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("using quota failed", zap.String("account", req.UserID), zap.Error(err))
		}
		respondError(w, status, err)
		return
	}
	respondJSON(w, http.StatusOK, useQuotaResponse{
		Success:        true,
		Message:        "One credit used.",
		RemainingQuota: remaining,
	})
}

// handleRechargeInfo lists the credit packages with the transfer reference
// the account holder writes on the payment.
func (s *Server) handleRechargeInfo(w http.ResponseWriter, r *http.Request) {
	account, err := s.store.GetAccount(r.Context(), chi.URLParam(r, "account"))
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	info := rechargeInfo{
		AccountID: account.ID,
		Email:     account.Email,
		Quota:     account.Quota,
		Locked:    !account.Active || account.Quota <= 0,
	}
	for _, pkg := range store.RechargePackages() {
		info.Packages = append(info.Packages, rechargeOption{
			RechargePackage: pkg,
			Reference:       store.TransferReference(account.Email, pkg.ID),
		})
	}
	respondJSON(w, http.StatusOK, info)
}

// handleRecharge credits a paid package to the account.
func (s *Server) handleRecharge(w http.ResponseWriter, r *http.Request) {
	var req rechargeRequest
	if status, err := decodeJSONBody(w, r, &req, false); err != nil {
		respondError(w, status, err)
		return
	}
	id := chi.URLParam(r, "account")
	if _, err := s.store.Recharge(r.Context(), id, req.Package); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	s.logger.Info("account recharged", zap.String("account", id), zap.String("package", req.Package))
	s.handleGetAccount(w, r)
}
