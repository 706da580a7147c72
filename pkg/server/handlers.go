package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/vizgrid/pkg/buildinfo"
	"github.com/matzehuels/vizgrid/pkg/creator"
	"github.com/matzehuels/vizgrid/pkg/errors"
	"github.com/matzehuels/vizgrid/pkg/grid"
	"github.com/matzehuels/vizgrid/pkg/layout"
	"github.com/matzehuels/vizgrid/pkg/pipeline"
	"github.com/matzehuels/vizgrid/pkg/render"
	"github.com/matzehuels/vizgrid/pkg/session"
	"github.com/matzehuels/vizgrid/pkg/store"
	"github.com/matzehuels/vizgrid/pkg/widget"
)

// =============================================================================
// Health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"build":    buildinfo.Get(),
	})
}

// =============================================================================
// Sessions
// =============================================================================

type sessionResponse struct {
	session.Info
	WidgetStates []session.WidgetState `json:"widget_states"`
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sid"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	info, err := sess.Info(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	info, err := sess.Info(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	states, err := sess.Widgets(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Info: info, WidgetStates: states})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "sid")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Widgets
// =============================================================================

type layoutRequest struct {
	Matrix json.RawMessage `json:"matrix,omitempty"`
	Layout string          `json:"layout,omitempty"`
	Style  string          `json:"style,omitempty"`
}

// matrix resolves the request to a matrix and style, loading a stored
// layout when one is named.
func (s *Server) matrix(r *http.Request, req layoutRequest) (grid.Matrix, string, error) {
	switch {
	case req.Layout != "" && len(req.Matrix) > 0:
		return nil, "", errors.New(errors.ErrCodeInvalidInput, "specify either matrix or layout, not both")
	case req.Layout != "":
		if s.store == nil {
			return nil, "", errors.New(errors.ErrCodeUnsupported, "no layout store configured")
		}
		rec, err := s.store.Load(r.Context(), req.Layout)
		if err != nil {
			return nil, "", err
		}
		style := req.Style
		if style == "" {
			style = rec.Style
		}
		return rec.Grid(), style, nil
	case len(req.Matrix) > 0:
		m, err := grid.UnmarshalMatrix(req.Matrix)
		return m, req.Style, err
	}
	return nil, "", errors.New(errors.ErrCodeInvalidInput, "matrix or layout is required")
}

func (s *Server) handleCreateLayout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req layoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, style, err := s.matrix(r, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var opts []layout.Option
	if style != "" {
		if err := pipeline.ValidateStyle(style); err != nil {
			s.writeError(w, r, err)
			return
		}
		opts = append(opts, layout.WithStyle(style))
	}
	l, err := sess.NewLayout(r.Context(), m, opts...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeWidget(w, r, sess, l.Model().ID(), http.StatusCreated)
}

type creatorRequest struct {
	Rows    *int            `json:"rows,omitempty"`
	Columns *int            `json:"columns,omitempty"`
	Matrix  json.RawMessage `json:"matrix,omitempty"`
}

func (s *Server) handleCreateCreator(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req creatorRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var opts []creator.Option
	if req.Rows != nil || req.Columns != nil {
		rows, cols := creator.DefaultRows, creator.DefaultColumns
		if req.Rows != nil {
			rows = *req.Rows
		}
		if req.Columns != nil {
			cols = *req.Columns
		}
		opts = append(opts, creator.WithSize(rows, cols))
	}
	if len(req.Matrix) > 0 {
		m, err := grid.UnmarshalMatrix(req.Matrix)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		opts = append(opts, creator.WithMatrix(m))
	}
	c, err := sess.NewCreator(r.Context(), opts...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeWidget(w, r, sess, c.Model().ID(), http.StatusCreated)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req creatorRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "wid")
	if _, err := sess.Generate(r.Context(), id, req.Rows, req.Columns); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeWidget(w, r, sess, id, http.StatusOK)
}

type widgetRequest struct {
	Kind string `json:"kind"`
}

func (s *Server) handleCreateWidget(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req widgetRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := sess.NewWidget(r.Context(), req.Kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeWidget(w, r, sess, b.Model().ID(), http.StatusCreated)
}

func (s *Server) handleGetWidget(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeWidget(w, r, sess, chi.URLParam(r, "wid"), http.StatusOK)
}

type placeRequest struct {
	Widget string `json:"widget"`
	Region int    `json:"region"`
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req placeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "wid")
	if err := sess.Place(r.Context(), id, req.Widget, grid.RegionID(req.Region)); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeWidget(w, r, sess, id, http.StatusOK)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	data, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	msg, err := widget.DecodeMessage(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "wid")
	if err := sess.Deliver(r.Context(), id, msg); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeWidget(w, r, sess, id, http.StatusOK)
}

func (s *Server) writeWidget(w http.ResponseWriter, r *http.Request, sess *session.Session, id string, status int) {
	st, err := sess.Snapshot(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, st)
}

type eventsResponse struct {
	Events any    `json:"events"`
	Last   uint64 `json:"last"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var after uint64
	if v := r.URL.Query().Get("after"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "after must be a non-negative integer, got %q", v))
			return
		}
		after = n
	}
	events, err := sess.Events(r.Context(), after)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	last := after
	if n := len(events); n > 0 {
		last = events[n-1].Seq
	}
	resp := eventsResponse{Events: events, Last: last}
	if events == nil {
		resp.Events = []any{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Stored layouts
// =============================================================================

func (s *Server) requireStore(w http.ResponseWriter, r *http.Request) bool {
	if s.store == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no layout store configured"))
		return false
	}
	return true
}

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	recs, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	rec, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type putLayoutRequest struct {
	Matrix      json.RawMessage `json:"matrix"`
	Style       string          `json:"style,omitempty"`
	Description string          `json:"description,omitempty"`
}

func (s *Server) handlePutLayout(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	var req putLayoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Matrix) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "matrix is required"))
		return
	}
	m, err := grid.UnmarshalMatrix(req.Matrix)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Style != "" {
		if err := pipeline.ValidateStyle(req.Style); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	rec, err := store.NewRecord(chi.URLParam(r, "name"), m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec.Style = req.Style
	rec.Description = req.Description
	if err := s.store.Save(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Rendering
// =============================================================================

// inputFormat picks the matrix document format from the "input" query
// parameter or the request content type.
func inputFormat(r *http.Request) grid.Format {
	if v := r.URL.Query().Get("input"); v != "" {
		return grid.Format(v)
	}
	ct := r.Header.Get("Content-Type")
	switch {
	case strings.Contains(ct, "yaml"):
		return grid.FormatYAML
	case strings.Contains(ct, "toml"):
		return grid.FormatTOML
	}
	return grid.FormatJSON
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(data) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "request body must hold a matrix document"))
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.DefaultFormat
	}
	opts := pipeline.Options{
		Input:       data,
		InputFormat: inputFormat(r),
		Formats:     []string{format},
		Style:       q.Get("style"),
		Tokens:      q.Get("tokens"),
	}
	if v := q.Get("row_height"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "row_height must be a positive integer, got %q", v))
			return
		}
		opts.RowHeight = n
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", render.Format(format).ContentType())
	w.Header().Set("X-Vizgrid-Regions", strconv.Itoa(len(res.Regions)))
	if res.CacheInfo.RenderHit {
		w.Header().Set("X-Vizgrid-Cache", "hit")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}
