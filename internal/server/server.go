// Package server exposes the ingestion API the recording extension posts
// finished demonstrations to. Accepted payloads are persisted in SQLite and
// mirrored as timestamped JSON folders so the processing pipeline can pick
// them up from disk.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/config"
	"github.com/hmwatts/tracebench/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server is the HTTP ingestion service.
type Server struct {
	cfg    config.ServerConfig
	store  *store.Store
	logger *zap.Logger
}

// ingestResponse acknowledges one accepted upload.
type ingestResponse struct {
	Success     bool   `json:"success"`
	RecordingID string `json:"recording_id"`
	Folder      string `json:"folder,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(cfg config.ServerConfig, st *store.Store, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, store: st, logger: logger.Named("server")}
}

// Handler builds the route table. Exposed separately from Run so tests can
// drive the mux through httptest without binding a real listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /api/events", s.handleIngest)
	mux.HandleFunc("GET /api/recordings", s.handleList)
	mux.HandleFunc("GET /api/recordings/{id}", s.handleGet)
	return mux
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// the configured shutdown grace.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("ingestion server listening", zap.String("address", s.cfg.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down ingestion server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var upload schemas.RecordingUpload
	if err := json.Unmarshal(body, &upload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	// Trust the actual event count over the extension's running counter.
	if upload.EventsRecorded != len(upload.Data) {
		s.logger.Warn("event count mismatch in upload",
			zap.String("task", upload.Task),
			zap.Int("reported", upload.EventsRecorded),
			zap.Int("actual", len(upload.Data)))
		upload.EventsRecorded = len(upload.Data)
	}

	if err := store.Validate(&upload); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.SaveRecording(r.Context(), &upload)
	if err != nil {
		s.logger.Error("failed to store recording", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to store recording")
		return
	}

	folder := s.mirrorUpload(id, &upload)

	s.writeJSON(w, http.StatusOK, ingestResponse{Success: true, RecordingID: id, Folder: folder})
}

// mirrorUpload writes the payload and a small metadata file under a
// timestamped folder in the mirror directory. Mirror failures are logged,
// never surfaced; the database row is the durable copy.
func (s *Server) mirrorUpload(id string, upload *schemas.RecordingUpload) string {
	if s.cfg.MirrorDir == "" {
		return ""
	}

	stamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	folder := filepath.Join(s.cfg.MirrorDir, fmt.Sprintf("%s_%s", stamp, id[:8]))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		s.logger.Warn("failed to create mirror folder", zap.Error(err))
		return ""
	}

	payloadPath := filepath.Join(folder, "payload.json")
	metadata := map[string]any{
		"saved_at":     time.Now().UTC().Format(time.RFC3339),
		"recording_id": id,
		"task":         upload.Task,
		"events":       len(upload.Data),
	}

	if err := writeJSONFile(payloadPath, upload); err != nil {
		s.logger.Warn("failed to mirror payload", zap.Error(err))
		return ""
	}
	if err := writeJSONFile(filepath.Join(folder, "metadata.json"), metadata); err != nil {
		s.logger.Warn("failed to mirror metadata", zap.Error(err))
	}
	return folder
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListRecordings(r.Context(), 50)
	if err != nil {
		s.logger.Error("failed to list recordings", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list recordings")
		return
	}
	if list == nil {
		list = []store.RecordingSummary{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"recordings": list})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	upload, err := s.store.GetRecording(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "recording not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load recording", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load recording")
		return
	}
	s.writeJSON(w, http.StatusOK, upload)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
