package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"k8s.io/klog/v2"

	"github.com/carverauto/srql/internal/query"
	"github.com/carverauto/srql/internal/srqlerrors"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if err := s.enforceAPIKey(r); err != nil {
		s.writeError(w, r, err)
		return
	}

	var req query.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, srqlerrors.NewInvalidRequest("malformed request body"))
		return
	}
	if req.Direction == "" {
		req.Direction = query.DirectionNext
	}

	resp, err := s.engine.Execute(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Shadow comparison is fire-and-forget: it has its own client,
	// context, and timeout, and survives this request's completion.
	if s.dual != nil {
		go s.dual.Compare(req, resp.Results)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if err := s.enforceAPIKey(r); err != nil {
		s.writeError(w, r, err)
		return
	}

	var req query.TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, srqlerrors.NewInvalidRequest("malformed request body"))
		return
	}

	resp, err := s.engine.Translate(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// enforceAPIKey compares the x-api-key header against the store
// snapshot, both sides trimmed. With no key configured, auth is off.
func (s *Server) enforceAPIKey(r *http.Request) error {
	expected, enabled := s.keys.Current()
	if !enabled {
		return nil
	}

	provided := strings.TrimSpace(r.Header.Get("x-api-key"))
	if provided == "" || provided != strings.TrimSpace(expected) {
		return srqlerrors.NewAuth()
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	svc := srqlerrors.AsServiceError(err)
	if svc.Kind == srqlerrors.KindInternal || svc.Kind == srqlerrors.KindConfig {
		klog.ErrorS(svc.Cause(), "request failed",
			"path", r.URL.Path,
			"requestID", middleware.GetReqID(r.Context()),
		)
	}
	writeJSON(w, svc.HTTPStatus(), map[string]string{"error": svc.ClientMessage()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		klog.V(4).InfoS("response encoding failed", "err", err)
	}
}
