// Package server exposes the document hub as a JSON HTTP API. Handlers stay
// thin: auth, decoding, and status mapping live here; all document semantics
// live in internal/app.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"synapsesync/internal/app"
	"synapsesync/internal/identity"
	"synapsesync/internal/ratelimit"
	"synapsesync/internal/util"
	"synapsesync/pkg/ai"
	"synapsesync/pkg/domain"
	"synapsesync/pkg/syncer"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Identity       *identity.Verifier
	Limiter        *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
	MaxUploadBytes int64
}

// Server exposes HTTP endpoints for the document hub.
type Server struct {
	app            *app.App
	identity       *identity.Verifier
	limiter        *ratelimit.FixedWindowLimiter
	trusted        *util.TrustedProxies
	mux            *http.ServeMux
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app is required")
	}
	if cfg.Identity == nil {
		return nil, errors.New("identity verifier is required")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		identity:       cfg.Identity,
		limiter:        cfg.Limiter,
		trusted:        cfg.TrustedProxies,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("hub", s.trusted, util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.Handle("/documents", s.withOwner(s.handleDocuments))
	s.mux.Handle("/documents/", s.withOwner(s.handleDocumentByID))

	s.mux.Handle("/autoupdate/sweep", s.withOwner(s.handleSweep))

	s.mux.Handle("/profile", s.withOwner(s.handleProfile))
	s.mux.Handle("/profile/tier", s.withOwner(s.handleTier))
	s.mux.Handle("/profile/interval", s.withOwner(s.handleInterval))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ownerHandler func(http.ResponseWriter, *http.Request, identity.Owner)

func (s *Server) withOwner(next ownerHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		owner, err := s.identity.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if s.limiter != nil && !s.limiter.Allow(owner.ID) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r, owner)
	})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request, owner identity.Owner) {
	switch r.Method {
	case http.MethodGet:
		s.handleListDocuments(w, r, owner)
	case http.MethodPost:
		s.handleUploadDocument(w, r, owner)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request, owner identity.Owner) {
	docs, err := s.app.ListDocuments(r.Context(), owner.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": docs,
		"count": len(docs),
	})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request, owner identity.Owner) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	doc, err := s.app.UploadDocument(r.Context(), owner, header.Filename, data)
	if errors.Is(err, syncer.ErrOffline) {
		writeJSON(w, http.StatusAccepted, savedLocally(doc))
		return
	}
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// /documents/{id} plus the restore, autoupdate, and chat sub-resources.
func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request, owner identity.Owner) {
	path := strings.TrimPrefix(r.URL.Path, "/documents/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		notFound(w, "not found")
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "restore":
			s.handleRestore(w, r, owner, id)
		case "autoupdate":
			s.handleToggleAutoUpdate(w, r, owner, id)
		case "chat":
			s.handleChat(w, r, owner, id)
		default:
			notFound(w, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, err := s.app.OpenDocument(r.Context(), owner.ID, id)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodPut:
		s.handleEdit(w, r, owner, id)
	case http.MethodDelete:
		if err := s.app.DeleteDocument(r.Context(), owner, id); err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

type editRequest struct {
	Content  string `json:"content"`
	AutoSave bool   `json:"autoSave"`
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request, owner identity.Owner, id string) {
	var req editRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	doc, err := s.app.EditDocument(r.Context(), owner, id, req.Content, req.AutoSave)
	if errors.Is(err, syncer.ErrOffline) {
		writeJSON(w, http.StatusAccepted, savedLocally(doc))
		return
	}
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type restoreRequest struct {
	VersionID string `json:"versionId"`
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request, owner identity.Owner, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req restoreRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.VersionID) == "" {
		writeError(w, http.StatusBadRequest, "versionId is required")
		return
	}
	doc, err := s.app.RestoreDocument(r.Context(), owner, id, req.VersionID)
	if errors.Is(err, syncer.ErrOffline) {
		writeJSON(w, http.StatusAccepted, savedLocally(doc))
		return
	}
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleToggleAutoUpdate(w http.ResponseWriter, r *http.Request, owner identity.Owner, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	doc, err := s.app.ToggleAutoUpdate(r.Context(), owner, id)
	if errors.Is(err, syncer.ErrOffline) {
		writeJSON(w, http.StatusAccepted, savedLocally(doc))
		return
	}
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type chatRequest struct {
	Message string    `json:"message"`
	History []ai.Turn `json:"history"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, owner identity.Owner, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req chatRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	answer, err := s.app.Chat(r.Context(), owner, id, req.History, req.Message)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": answer})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request, owner identity.Owner) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	result, err := s.app.RunAutoUpdateSweep(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"checked":   result.Checked,
		"refreshed": result.Refreshed,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, owner identity.Owner) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	acct, err := s.app.Profile(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

type tierRequest struct {
	Tier string `json:"tier"`
}

func (s *Server) handleTier(w http.ResponseWriter, r *http.Request, owner identity.Owner) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var req tierRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	acct, err := s.app.UpgradeTier(r.Context(), owner, domain.Tier(strings.ToUpper(strings.TrimSpace(req.Tier))))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

type intervalRequest struct {
	Days int `json:"days"`
}

func (s *Server) handleInterval(w http.ResponseWriter, r *http.Request, owner identity.Owner) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var req intervalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	acct, err := s.app.SetAutoUpdateInterval(r.Context(), owner, req.Days)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

// writeAppError maps domain failures onto HTTP statuses. Quota violations are
// forbidden, a dead remote on a dual write is a bad gateway, missing
// documents are not found.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrDocumentLimit):
		writeError(w, http.StatusForbidden, "document limit reached for tier")
	case errors.Is(err, app.ErrEditLimit):
		writeError(w, http.StatusForbidden, "edit limit reached for this week")
	case errors.Is(err, app.ErrNotMaterialized):
		writeError(w, http.StatusConflict, "document content not materialized")
	case errors.Is(err, syncer.ErrNotFound):
		notFound(w, "document not found")
	case errors.Is(err, syncer.ErrDualWriteFailure):
		writeError(w, http.StatusBadGateway, "remote save failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func savedLocally(doc domain.Document) map[string]any {
	return map[string]any{
		"document": doc,
		"status":   "saved locally, sync pending",
	}
}

func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCode(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "unauthorized":
		return "AUTH_INVALID_TOKEN"
	case message == "too many requests":
		return "REQUEST_RATE_LIMITED"
	case message == "document limit reached for tier":
		return "DOC_LIMIT_REACHED"
	case message == "edit limit reached for this week":
		return "DOC_EDIT_LIMIT_REACHED"
	case message == "document content not materialized":
		return "DOC_NOT_MATERIALIZED"
	case message == "document not found":
		return "DOC_NOT_FOUND"
	case message == "remote save failed":
		return "SYNC_REMOTE_FAILED"
	case strings.Contains(message, "file is required"):
		return "DOC_FILE_REQUIRED"
	case message == "invalid form data":
		return "DOC_INVALID_UPLOAD_FORM"
	}

	switch status {
	case http.StatusBadRequest:
		return "DOC_INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusForbidden:
		return "DOC_FORBIDDEN"
	case http.StatusNotFound:
		return "DOC_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
