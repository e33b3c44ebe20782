package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"ex2code/internal/db"
	"ex2code/internal/runner"
	"ex2code/internal/specfile"
	"ex2code/pkg/binder"
	"ex2code/pkg/spec"
)

const maxBodyBytes = 1 << 20

// writeJSON is a helper to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// The response is likely already partially sent.
		log.Error().Err(err).Msg("could not encode JSON response")
	}
}

// writeError is a helper to write JSON error responses.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// apiHandler shares the store, the generation client and the binder.
type apiHandler struct {
	db          *sql.DB
	client      spec.Client
	binder      *binder.Binder
	concurrency int
}

// Options configures the API handler.
type Options struct {
	DB          *sql.DB
	Client      spec.Client
	Binder      *binder.Binder
	Concurrency int
}

// NewHandler returns the API routes.
func NewHandler(opts Options) http.Handler {
	h := &apiHandler{
		db:          opts.DB,
		client:      opts.Client,
		binder:      opts.Binder,
		concurrency: opts.Concurrency,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/prompt", h.handlePrompt)
	mux.HandleFunc("POST /api/generate", h.handleGenerate)
	mux.HandleFunc("GET /api/artifacts", h.handleListArtifacts)
	mux.HandleFunc("GET /api/artifacts/{id}", h.handleGetArtifact)
	mux.HandleFunc("DELETE /api/artifacts/{id}", h.handleDeleteArtifact)
	return logRequests(mux)
}

// StartServer serves the API on port until ctx is done.
func StartServer(ctx context.Context, port int, opts Options) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewHandler(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info().Str("addr", "http://localhost"+srv.Addr).Msg("server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		ctx := log.Logger.WithContext(r.Context())
		next.ServeHTTP(rec, r.WithContext(ctx))
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func readSpecs(r *http.Request) ([]spec.Spec, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	doc, err := specfile.Parse(data)
	if err != nil {
		return nil, err
	}
	specs, err := doc.Specs()
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, errors.New("document declares no functions, classes or modules")
	}
	return specs, nil
}

type promptResponse struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

func (h *apiHandler) handlePrompt(w http.ResponseWriter, r *http.Request) {
	specs, err := readSpecs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out := make([]promptResponse, 0, len(specs))
	for _, s := range specs {
		p, err := s.Prompt()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		out = append(out, promptResponse{Kind: string(s.Kind()), Name: s.Name(), Prompt: p})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *apiHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	specs, err := readSpecs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := runner.Run(r.Context(), specs, runner.Options{
		Client:      h.client,
		Binder:      h.binder,
		DB:          h.db,
		Concurrency: h.concurrency,
	})
	if err != nil {
		log.Error().Err(err).Msg("generation batch failed")
		writeError(w, http.StatusInternalServerError, "Failed to store generated artifacts")
		return
	}
	writeJSON(w, http.StatusCreated, recs)
}

func (h *apiHandler) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := db.ListOptions{Kind: q.Get("kind"), Name: q.Get("name")}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		opts.Limit = n
	}

	arts, err := db.ListArtifacts(r.Context(), h.db, opts)
	if err != nil {
		log.Error().Err(err).Msg("could not list artifacts")
		writeError(w, http.StatusInternalServerError, "Error fetching artifacts")
		return
	}
	if arts == nil {
		arts = []db.Artifact{}
	}
	writeJSON(w, http.StatusOK, arts)
}

func (h *apiHandler) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	a, err := db.GetArtifact(r.Context(), h.db, r.PathValue("id"))
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Artifact not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("could not get artifact")
		writeError(w, http.StatusInternalServerError, "Error fetching artifact")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *apiHandler) handleDeleteArtifact(w http.ResponseWriter, r *http.Request) {
	err := db.DeleteArtifact(r.Context(), h.db, r.PathValue("id"))
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Artifact not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("could not delete artifact")
		writeError(w, http.StatusInternalServerError, "Error deleting artifact")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
