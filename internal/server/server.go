// Package server exposes graph analysis over HTTP.
//
// Routes:
//
//	GET  /healthz   liveness probe
//	POST /analyse   analyse an inline document
//	POST /render    analyse and render as json, dot or svg
//
// Every request is analysed in its own session; the server keeps no state
// between requests.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/depwrangler/pkg/cache"
	"github.com/matzehuels/depwrangler/pkg/document"
	"github.com/matzehuels/depwrangler/pkg/errors"
	"github.com/matzehuels/depwrangler/pkg/io"
	"github.com/matzehuels/depwrangler/pkg/pipeline"
)

// maxBodyBytes caps the size of an /analyse request body.
const maxBodyBytes = 8 << 20

// shutdownTimeout bounds graceful shutdown in ListenAndServe.
const shutdownTimeout = 5 * time.Second

// Server serves the HTTP API.
type Server struct {
	logger *log.Logger
	runner *pipeline.Runner
	router chi.Router
}

// New creates a server rendering through c. A nil cache disables artifact
// caching and a nil logger falls back to log.Default().
func New(c cache.Cache, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		logger: logger,
		runner: pipeline.NewRunner(c, logger),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Post("/analyse", s.handleAnalyse)
	r.Post("/render", s.handleRender)

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// AnalyseRequest is the body of POST /analyse.
type AnalyseRequest struct {
	Document            json.RawMessage `json:"document"`
	Root                string          `json:"root,omitempty"`
	Bypass              []string        `json:"bypass,omitempty"`
	Require             []string        `json:"require,omitempty"`
	IncludeBypassed     bool            `json:"include_bypassed,omitempty"`
	SymmetricDownstream bool            `json:"symmetric_downstream,omitempty"`

	// Render-only fields.
	Format         string `json:"format,omitempty"`
	Detailed       bool   `json:"detailed,omitempty"`
	ShowDownstream bool   `json:"show_downstream,omitempty"`
}

func (req *AnalyseRequest) options() pipeline.Options {
	return pipeline.Options{
		Root:                req.Root,
		Bypass:              req.Bypass,
		Require:             req.Require,
		IncludeBypassed:     req.IncludeBypassed,
		SymmetricDownstream: req.SymmetricDownstream,
		Format:              req.Format,
		Detailed:            req.Detailed,
		ShowDownstream:      req.ShowDownstream,
	}
}

// AnalyseResponse is the body of a successful POST /analyse.
type AnalyseResponse struct {
	Session   string          `json:"session"`
	Root      string          `json:"root"`
	Available []string        `json:"available"`
	Cycles    int             `json:"cycles"`
	Graph     json.RawMessage `json:"graph"`
}

type errorResponse struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads the request body and parses its document.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*AnalyseRequest, *document.Document, error) {
	var req AnalyseRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	if len(req.Document) == 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "document is required")
	}
	doc, err := document.Parse(req.Document, document.FormatJSON)
	if err != nil {
		return nil, nil, err
	}
	return &req, doc, nil
}

func (s *Server) handleAnalyse(w http.ResponseWriter, r *http.Request) {
	req, doc, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := req.options()
	opts.Format = ""
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Analyse(r.Context(), doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	g, err := io.MarshalJSON(res.Graph)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	available := res.Session.AvailableObjects()
	resp := AnalyseResponse{
		Session:   res.Session.ID(),
		Root:      res.Session.Root().Object().(*document.Object).ID,
		Available: make([]string, len(available)),
		Cycles:    len(res.Cycles),
		Graph:     g,
	}
	for i, id := range available {
		resp.Available[i], _ = id.(string)
	}
	writeJSON(w, http.StatusOK, resp)
}

// contentTypes maps render formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, doc, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := req.options()
	if opts.Format == "" {
		opts.Format = pipeline.FormatSVG
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Format == pipeline.FormatSummary {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "format %q has no artifact", opts.Format))
		return
	}

	res, err := s.runner.Execute(r.Context(), doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cacheStatus := "MISS"
	if res.Cached {
		cacheStatus = "HIT"
	}
	w.Header().Set("Content-Type", contentTypes[opts.Format])
	w.Header().Set("X-Cache", cacheStatus)
	w.Header().Set("X-Session", res.Session.ID())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifact)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{Code: code, Error: errors.UserMessage(err)})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.IsConfig(err),
		errors.Is(err, errors.ErrCodeInvalidInput),
		errors.Is(err, errors.ErrCodeInvalidFormat),
		errors.Is(err, errors.ErrCodeInvalidDocument),
		errors.Is(err, errors.ErrCodeInvalidIdentifier),
		errors.Is(err, errors.ErrCodeInvalidObject):
		return http.StatusBadRequest
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"elapsed", time.Since(start).Round(time.Microsecond))
	})
}
