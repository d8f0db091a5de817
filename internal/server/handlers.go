package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/dialoguegraph/pkg/assets"
	"github.com/matzehuels/dialoguegraph/pkg/buildinfo"
	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
	apperr "github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/render"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

// =============================================================================
// Response types
// =============================================================================

// StateResponse describes a playback session.
type StateResponse struct {
	Session string   `json:"session"`
	Graph   string   `json:"graph"`
	Node    string   `json:"node,omitempty"`
	Text    string   `json:"text,omitempty"`
	Options []string `json:"options"`
	Ended   bool     `json:"ended"`
	History []string `json:"history"`
}

// PutResponse is returned after a graph is stored.
type PutResponse struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

type selectRequest struct {
	Index *int `json:"index"`
}

// =============================================================================
// Health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

// =============================================================================
// Graphs
// =============================================================================

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	names, err := s.repo.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	st, err := s.repo.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	etag := strconv.Quote(store.Hash(st))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := store.Write(st, w); err != nil {
		s.logger.Error("write graph", "err", err)
	}
}

// handlePutGraph replaces a graph. With If-Match, the write only happens
// when the stored graph still has the given hash; the check and the write
// hold the graph's write lock.
func (s *Server) handlePutGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	st, err := store.Read(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "invalid graph body"))
		return
	}

	unlock := s.lockGraph(name)
	defer unlock()

	if match := r.Header.Get("If-Match"); match != "" {
		current, err := s.repo.Get(r.Context(), name)
		switch {
		case errors.Is(err, assets.ErrNotFound):
			writeErrorBody(w, http.StatusPreconditionFailed, apperr.ErrCodeNotFound, "graph does not exist")
			return
		case err != nil:
			s.writeError(w, err)
			return
		case strconv.Quote(store.Hash(current)) != match:
			writeErrorBody(w, http.StatusPreconditionFailed, apperr.ErrCodeInvalidInput, "graph was modified")
			return
		}
	}

	if err := s.repo.Put(r.Context(), name, st); err != nil {
		s.writeError(w, err)
		return
	}
	hash := store.Hash(st)
	w.Header().Set("ETag", strconv.Quote(hash))
	writeJSON(w, http.StatusOK, PutResponse{Name: name, Hash: hash})
}

func (s *Server) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	unlock := s.lockGraph(name)
	defer unlock()

	if err := s.repo.Delete(r.Context(), name); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	st, err := s.repo.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	open, _ := strconv.ParseBool(q.Get("open"))
	format := q.Get("format")
	if format == "" {
		format = render.FormatDOT
	}

	ct, ok := contentTypes[format]
	if !ok {
		s.writeError(w, apperr.New(apperr.ErrCodeInvalidInput, "unsupported format %q (want dot, svg or png)", format))
		return
	}

	out, hit, err := render.Diagram(r.Context(), s.diagrams, st, render.Options{ShowOpenPorts: open}, format)
	if err != nil {
		s.writeError(w, apperr.Wrap(apperr.ErrCodeInternal, err, "render"))
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("X-Cache", cacheStatus(hit))
	w.Write(out)
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

var contentTypes = map[string]string{
	render.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	render.FormatSVG: "image/svg+xml",
	render.FormatPNG: "image/png",
}

// =============================================================================
// Playback
// =============================================================================

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	st, err := s.repo.Get(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	walker := dialogue.NewWalker(st, dialogue.WithLogger(s.logger), dialogue.WithContext(context.WithoutCancel(r.Context())))
	if _, err := walker.Begin(); err != nil {
		s.writeError(w, err)
		return
	}
	sess := s.addSession(name, walker)
	s.logger.Debug("session started", "session", sess.id, "graph", name)
	writeJSON(w, http.StatusCreated, sess.response())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, sessionNotFound(chi.URLParam(r, "id")))
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusOK, sess.response())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.session(id)
	if !ok {
		s.writeError(w, sessionNotFound(id))
		return
	}

	var req selectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil || req.Index == nil {
		s.writeError(w, apperr.New(apperr.ErrCodeInvalidInput, `body must be {"index": <n>}`))
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, err := sess.walker.SelectOption(*req.Index); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.response())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.removeSession(id) {
		s.writeError(w, sessionNotFound(id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionNotFound(id string) error {
	return apperr.New(apperr.ErrCodeSessionNotFound, "session %q not found", id)
}

// response snapshots the session. Callers hold sess.mu.
func (sess *session) response() StateResponse {
	st := sess.walker.Current()
	resp := StateResponse{
		Session: sess.id,
		Graph:   sess.graph,
		Options: st.Options(),
		Ended:   st.Ended,
		History: sess.walker.History(),
	}
	if st.Node != nil {
		resp.Node = st.Node.ID
		resp.Text = st.Text()
	}
	if resp.Options == nil {
		resp.Options = []string{}
	}
	if resp.History == nil {
		resp.History = []string{}
	}
	return resp
}

// =============================================================================
// Encoding
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, code apperr.Code, msg string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: msg})
}

// writeError maps coded errors to HTTP statuses. Uncoded errors are
// logged and reported as internal errors without detail.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := apperr.GetCode(err)
	status, ok := statusByCode[code]
	if !ok {
		s.logger.Error("request failed", "err", err)
		writeErrorBody(w, http.StatusInternalServerError, apperr.ErrCodeInternal, "internal error")
		return
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeErrorBody(w, status, code, apperr.UserMessage(err))
}

var statusByCode = map[apperr.Code]int{
	apperr.ErrCodeNotFound:           http.StatusNotFound,
	apperr.ErrCodeSessionNotFound:    http.StatusNotFound,
	apperr.ErrCodeNodeNotFound:       http.StatusNotFound,
	apperr.ErrCodeInvalidInput:       http.StatusBadRequest,
	apperr.ErrCodeInvalidFormat:      http.StatusBadRequest,
	apperr.ErrCodeInvalidAssetName:   http.StatusBadRequest,
	apperr.ErrCodeInvalidPortIndex:   http.StatusBadRequest,
	apperr.ErrCodeDanglingReference:  http.StatusUnprocessableEntity,
	apperr.ErrCodeDuplicateStartNode: http.StatusUnprocessableEntity,
	apperr.ErrCodeMissingStartNode:   http.StatusUnprocessableEntity,
	apperr.ErrCodeDuplicateNodeID:    http.StatusUnprocessableEntity,
	apperr.ErrCodeInvalidConnection:  http.StatusUnprocessableEntity,
	apperr.ErrCodeStartNodeProtected: http.StatusUnprocessableEntity,
	apperr.ErrCodeDialogueEnded:      http.StatusConflict,
	apperr.ErrCodeUnsupported:        http.StatusNotImplemented,
	apperr.ErrCodeInternal:           http.StatusInternalServerError,
}
