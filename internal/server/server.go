// Package server exposes tile placement over HTTP.
//
// Routes:
//
//	POST /v1/tiles   place tiles on base64-encoded mask images
//	GET  /healthz    liveness probe
//	GET  /version    build information
package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/imtiler/pkg/buildinfo"
	"github.com/matzehuels/imtiler/pkg/errors"
	"github.com/matzehuels/imtiler/pkg/grid"
	"github.com/matzehuels/imtiler/pkg/imageio"
	tileio "github.com/matzehuels/imtiler/pkg/io"
	"github.com/matzehuels/imtiler/pkg/observability"
	"github.com/matzehuels/imtiler/pkg/pipeline"
)

// DefaultMaxBody caps the size of a request body.
const DefaultMaxBody = 64 << 20

// TileRequest is the body of POST /v1/tiles. Masks are base64-encoded
// images in any format imageio decodes.
type TileRequest struct {
	Source        string           `json:"source,omitempty"`
	Mask          string           `json:"mask,omitempty"`
	Labels        string           `json:"labels,omitempty"`
	Positive      string           `json:"positive,omitempty"`
	Negative      string           `json:"negative,omitempty"`
	FalsePositive string           `json:"false_positive,omitempty"`
	Options       pipeline.Options `json:"options"`
}

// TileResponse is the body of a successful POST /v1/tiles.
type TileResponse struct {
	Result   *tileio.Result `json:"result"`
	CacheHit bool           `json:"cache_hit"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// Server handles API requests with a shared runner.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	maxBody int64
}

// New creates a server. Results are cached by the runner's cache.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, logger: logger, maxBody: DefaultMaxBody}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/tiles", s.handleTiles)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// observe reports every request to the HTTP hooks and the debug log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		d := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), d)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", d,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleTiles(w http.ResponseWriter, r *http.Request) {
	var req TileRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	in, err := req.input()
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), in, req.Options)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TileResponse{Result: res.Document, CacheHit: res.CacheHit})
}

// input decodes the masks of req.
func (req TileRequest) input() (pipeline.Input, error) {
	in := pipeline.Input{Source: req.Source}
	masks := []struct {
		name string
		data string
		dst  **grid.Mask
	}{
		{"mask", req.Mask, &in.Mask},
		{"positive", req.Positive, &in.Positive},
		{"negative", req.Negative, &in.Negative},
		{"false_positive", req.FalsePositive, &in.FalsePositive},
	}
	for _, m := range masks {
		if m.data == "" {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(m.data)
		if err != nil {
			return in, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s is not valid base64", m.name)
		}
		mask, err := imageio.DecodeMask(bytes.NewReader(raw))
		if err != nil {
			return in, err
		}
		*m.dst = mask
	}
	if req.Labels != "" {
		raw, err := base64.StdEncoding.DecodeString(req.Labels)
		if err != nil {
			return in, errors.Wrap(errors.ErrCodeInvalidInput, err, "labels is not valid base64")
		}
		img, _, err := imageio.Decode(bytes.NewReader(raw))
		if err != nil {
			return in, err
		}
		in.Labels = imageio.LabelsFromImage(img)
	}
	return in, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
