// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pdiddy/report-drafter/internal/store"
	"github.com/pdiddy/report-drafter/pkg/types"
)

type infoRequest struct {
	Topic   string `json:"topic"`
	Subject string `json:"subject"`
	Grade   string `json:"grade"`
}

func (req *infoRequest) trim() {
	req.Topic = strings.TrimSpace(req.Topic)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Grade = strings.TrimSpace(req.Grade)
}

type createReportRequest struct {
	infoRequest
	AccountID string `json:"account_id"`
}

type ownerRequest struct {
	AccountID string `json:"account_id"`
}

type sectionRequest struct {
	Text string `json:"text"`
}

type guidanceRequest struct {
	Guidance string `json:"guidance"`
}

func (s *Server) handleListSections(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, types.Sections())
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.ListReports(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if reports == nil {
		reports = []store.ReportSummary{}
	}
	respondJSON(w, http.StatusOK, reports)
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if status, err := decodeJSONBody(w, r, &req, true); err != nil {
		respondError(w, status, err)
		return
	}
	req.trim()
	ctx := r.Context()
	if req.AccountID != "" {
		if _, err := s.store.GetAccount(ctx, req.AccountID); err != nil {
			respondError(w, statusFor(err), err)
			return
		}
	}
	doc, err := s.store.CreateReport(ctx, req.Topic, req.Subject, req.Grade)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if req.AccountID != "" {
		if err := s.store.SetOwner(ctx, doc.ID, req.AccountID); err != nil {
			respondError(w, statusFor(err), err)
			return
		}
		if doc, err = s.store.GetReport(ctx, doc.ID); err != nil {
			respondError(w, statusFor(err), err)
			return
		}
	}
	s.logger.Info("report created", zap.String("report", doc.ID), zap.String("account", doc.AccountID))
	respondJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSetInfo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "report")
	var req infoRequest
	if status, err := decodeJSONBody(w, r, &req, false); err != nil {
		respondError(w, status, err)
		return
	}
	req.trim()
	if err := s.store.SetInfo(r.Context(), id, req.Topic, req.Subject, req.Grade); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	s.handleGetReport(w, r)
}

func (s *Server) handleSetOwner(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if status, err := decodeJSONBody(w, r, &req, false); err != nil {
		respondError(w, status, err)
		return
	}
	if err := s.store.SetOwner(r.Context(), chi.URLParam(r, "report"), strings.TrimSpace(req.AccountID)); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	s.handleGetReport(w, r)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "report")
	sess := s.session(id)
	if err := sess.close(); err != nil {
		respondError(w, http.StatusConflict, errors.New("a generation is running for this report"))
		return
	}
	if err := s.store.DeleteReport(r.Context(), id); err != nil {
		sess.reopen()
		respondError(w, statusFor(err), err)
		return
	}
	s.dropSession(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEditSection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "report")
	sectionID, ok := contentSection(w, r)
	if !ok {
		return
	}
	var req sectionRequest
	if status, err := decodeJSONBody(w, r, &req, false); err != nil {
		respondError(w, status, err)
		return
	}
	if s.session(id).busy() {
		respondError(w, http.StatusConflict, errors.New("a generation is running for this report"))
		return
	}
	if err := s.store.PublishSection(r.Context(), id, sectionID, req.Text); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	s.handleGetReport(w, r)
}

func (s *Server) handleGenerateSection(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := contentSection(w, r)
	if !ok {
		return
	}
	var req guidanceRequest
	if status, err := decodeJSONBody(w, r, &req, true); err != nil {
		respondError(w, status, err)
		return
	}
	doc, ok := s.loadReport(w, r)
	if !ok {
		return
	}

	sess := s.session(doc.ID)
	if err := s.checkCredits(r.Context(), sess, doc); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	gc := types.NewGenerationContext(doc, req.Guidance)
	logger := s.logger.With(zap.String("report", doc.ID))
	if err := sess.draft(sectionID, gc, logger); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"section": string(sectionID), "state": "drafting"})
}

// checkCredits refuses generation for a report whose owning account is
// locked or out of credits, telling the report's feed why.
func (s *Server) checkCredits(ctx context.Context, sess *session, doc types.DocumentState) error {
	err := s.store.CheckCredits(ctx, doc.AccountID)
	switch {
	case errors.Is(err, store.ErrQuotaExhausted):
		sess.feed.Notify("The account has no credits left. Recharge to keep using AI.", types.SeverityError)
	case errors.Is(err, store.ErrAccountInactive):
		sess.feed.Notify("The account is locked.", types.SeverityError)
	}
	return err
}

// loadReport fetches the report named in the URL, writing the error
// response itself when it fails.
func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (types.DocumentState, bool) {
	doc, err := s.store.GetReport(r.Context(), chi.URLParam(r, "report"))
	if err != nil {
		respondError(w, statusFor(err), err)
		return types.DocumentState{}, false
	}
	return doc, true
}

// contentSection parses the section URL parameter.
func contentSection(w http.ResponseWriter, r *http.Request) (types.SectionID, bool) {
	id := types.SectionID(chi.URLParam(r, "section"))
	if !id.IsContent() {
		respondError(w, http.StatusNotFound, fmt.Errorf("unknown section %q", id))
		return "", false
	}
	return id, true
}
