// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/report-drafter/pkg/types"
)

// sessionView is the Deep Dive snapshot plus the state of any running
// section draft.
type sessionView struct {
	types.Snapshot
	Drafting    bool   `json:"drafting"`
	DraftStatus string `json:"draft_status,omitempty"`
}

type itemRequest struct {
	Text string `json:"text"`
}

func (s *Server) view(reportID string) sessionView {
	sess := s.session(reportID)
	drafting, status := sess.draftStatus()
	return sessionView{Snapshot: sess.machine.Snapshot(), Drafting: drafting, DraftStatus: status}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.view(doc.ID))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
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
	if err := sess.startDeepDive(gc); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusAccepted, s.view(doc.ID))
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "report")
	if _, err := s.session(id).machine.AddItem(); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, s.view(id))
}

func (s *Server) handleEditItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "report")
	index, ok := itemIndex(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if status, err := decodeJSONBody(w, r, &req, false); err != nil {
		respondError(w, status, err)
		return
	}
	if err := s.session(id).machine.EditItem(index, req.Text); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, s.view(id))
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "report")
	index, ok := itemIndex(w, r)
	if !ok {
		return
	}
	if err := s.session(id).machine.RemoveItem(index); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, s.view(id))
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	sess := s.session(doc.ID)
	if err := s.checkCredits(r.Context(), sess, doc); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	if err := sess.expand(); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusAccepted, s.view(doc.ID))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "report")
	if err := s.session(id).machine.Reset(); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, s.view(id))
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "report")
	var after int64
	if raw := r.URL.Query().Get("after"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, errors.New("after must be an integer"))
			return
		}
		after = v
	}
	respondJSON(w, http.StatusOK, s.session(id).feed.Since(after))
}

// itemIndex parses the zero-based item index URL parameter.
func itemIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("item index must be an integer"))
		return 0, false
	}
	return index, true
}
