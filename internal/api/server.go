package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"picvault/internal/config"
	"picvault/internal/ingest"
	"picvault/internal/logging"
	"picvault/internal/store"
)

// Server is the daemon's HTTP frontend.
type Server struct {
	cfg      *config.Config
	pipeline *ingest.Pipeline
	store    *store.Store
	logger   *slog.Logger

	listener net.Listener
	server   *http.Server
}

// NewServer wires the HTTP surface over the pipeline and store.
func NewServer(cfg *config.Config, pipeline *ingest.Pipeline, s *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	srv := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		store:    s,
		logger:   logger.With(slog.String(logging.FieldComponent, "api")),
	}
	srv.server = &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Handler builds the route table. Exposed separately so tests can drive the
// mux without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/images", s.handleUpload)
	mux.HandleFunc("GET /api/images", s.handleList)
	mux.HandleFunc("GET /api/images/{id}", s.handleGet)
	mux.HandleFunc("GET /api/images/{id}/thumbnails/{size}", s.handleThumbnail)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Start begins serving on the configured bind address and returns once the
// listener is up. The server shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Paths.APIBind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down outside of context cancellation.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound listen address, useful when binding to port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Validation.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeFailure(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		s.writeFailure(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeFailure(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		s.writeFailure(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	receipt, err := s.pipeline.Process(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		s.logger.Error("process upload", logging.Error(err))
		s.writeFailure(w, http.StatusInternalServerError, "upload could not be stored")
		return
	}

	image := imageFromRecord(receipt.Upload)
	image.Duplicate = receipt.Duplicate
	if !receipt.Accepted() {
		s.writeEnvelope(w, http.StatusUnprocessableEntity, Envelope{
			Status: statusFailed,
			Error:  receipt.Rejection.Error(),
		}, image)
		return
	}
	s.writeSuccess(w, http.StatusCreated, image)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeFailure(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	uploads, err := s.store.ListUploads(r.Context(), limit)
	if err != nil {
		s.logger.Error("list uploads", logging.Error(err))
		s.writeFailure(w, http.StatusInternalServerError, "listing failed")
		return
	}

	list := ImageList{Images: make([]Image, 0, len(uploads)), Count: len(uploads)}
	for _, rec := range uploads {
		list.Images = append(list.Images, imageFromRecord(rec))
	}
	s.writeSuccess(w, http.StatusOK, list)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetUpload(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error("get upload", logging.Error(err))
		s.writeFailure(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if rec == nil {
		s.writeFailure(w, http.StatusNotFound, "image not found")
		return
	}
	s.writeSuccess(w, http.StatusOK, imageFromRecord(rec))
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	size := r.PathValue("size")
	if size != "small" && size != "medium" {
		s.writeFailure(w, http.StatusBadRequest, "size must be small or medium")
		return
	}

	rec, err := s.store.GetUpload(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error("get upload", logging.Error(err))
		s.writeFailure(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if rec == nil || rec.MetadataSHA256 == "" {
		s.writeFailure(w, http.StatusNotFound, "image not found")
		return
	}

	path := s.cfg.ThumbnailPath(size, rec.MetadataSHA256)
	if _, err := os.Stat(path); err != nil {
		s.writeFailure(w, http.StatusNotFound, "thumbnail not generated yet")
		return
	}
	// Thumbnails are keyed by content hash and never change once written.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("compute stats", logging.Error(err))
		s.writeFailure(w, http.StatusInternalServerError, "stats failed")
		return
	}
	s.writeSuccess(w, http.StatusOK, snap)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeSuccess(w, http.StatusOK, map[string]string{"state": "ok"})
}

func (s *Server) writeSuccess(w http.ResponseWriter, status int, payload any) {
	s.writeEnvelope(w, status, Envelope{Status: statusSuccess}, payload)
}

func (s *Server) writeFailure(w http.ResponseWriter, status int, message string) {
	s.writeEnvelope(w, status, Envelope{Status: statusFailed, Error: message}, nil)
}

func (s *Server) writeEnvelope(w http.ResponseWriter, status int, env Envelope, payload any) {
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Error("encode payload", logging.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		env.Data = data
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		s.logger.Error("encode response", logging.Error(err))
	}
}
