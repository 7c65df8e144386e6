// Package server exposes the solver over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/payment-allocator/internal/allocator"
	"github.com/iwvelando/payment-allocator/internal/config"
	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/iwvelando/payment-allocator/internal/history"
	"github.com/iwvelando/payment-allocator/internal/loader"
	"github.com/iwvelando/payment-allocator/internal/metrics"
	"github.com/iwvelando/payment-allocator/pkg/constants"
	"github.com/iwvelando/payment-allocator/pkg/output"
	"github.com/iwvelando/payment-allocator/pkg/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options wires the collaborators of the HTTP handler. Zero values disable
// the optional parts.
type Options struct {
	MaxUploadSize int64
	Version       string
	Solver        config.SolverConfig
	History       *history.Store
	Registry      *prometheus.Registry
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	solver        config.SolverConfig
	history       *history.Store
	collector     *metrics.Collector
}

// NewHandler constructs the HTTP handler that serves the solve API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		solver:        opts.Solver,
		history:       opts.History,
	}
	if opts.Registry != nil {
		h.collector = metrics.NewCollector(opts.Registry)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/version", h.handleVersion)
	r.Post("/api/solve", h.handleSolve)

	if h.history != nil {
		r.Get("/api/solves", h.handleListSolves)
		r.Get("/api/solves/{id}", h.handleGetSolve)
	}

	if opts.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	return r
}

type solveRequest struct {
	Orders         json.RawMessage `json:"orders"`
	PaymentMethods json.RawMessage `json:"paymentMethods"`
	Options        struct {
		Parallel   *bool    `json:"parallel"`
		Strategies []string `json:"strategies"`
	} `json:"options"`
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSolve"
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return
	}

	var req solveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}
	if len(req.Orders) == 0 || len(req.PaymentMethods) == 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "orders and paymentMethods are required", op)
		return
	}

	orders, err := loader.DecodeOrders(bytes.NewReader(req.Orders), loader.FormatJSON)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	methods, err := loader.DecodePaymentMethods(bytes.NewReader(req.PaymentMethods), loader.FormatJSON)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	opts := allocator.Options{
		PointsMethodID:       h.solver.PointsMethodID,
		PartialPointsPercent: h.solver.PartialPointsPercent,
		Strategies:           h.solver.Strategies,
		Parallel:             h.solver.Parallel,
	}
	if h.collector != nil {
		opts.Observer = h.collector
	}
	if req.Options.Parallel != nil {
		opts.Parallel = *req.Options.Parallel
	}
	if len(req.Options.Strategies) > 0 {
		opts.Strategies = req.Options.Strategies
	}

	logger := h.logger.With(zap.String("requestId", middleware.GetReqID(r.Context())))
	solver, err := allocator.NewSolver(logger, orders, methods, opts)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	solution, err := solver.Solve()
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	pointsID := solver.Batch().PointsID()
	report := output.BuildReport(solution, validation.InputWarnings(orders, methods, pointsID))
	if h.history != nil {
		run := history.NewRun(solution, len(orders))
		if err := h.history.Save(r.Context(), run); err != nil {
			h.logger.Error("failed to record solve",
				zap.String("op", op),
				zap.Error(err),
			)
		} else {
			report.RunID = run.ID
		}
	}

	report.Duration = time.Since(start).String()
	h.writeJSON(w, http.StatusOK, report)
}

func (h *handler) handleListSolves(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListSolves"
	limit := constants.DefaultHistoryListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw), op)
			return
		}
		limit = n
	}

	runs, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *handler) handleGetSolve(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetSolve"
	run, err := h.history.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnresolvedOrder):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("solve request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

// Serve runs the HTTP server until ctx is cancelled, then drains open
// requests.
func Serve(ctx context.Context, logger *zap.Logger, address string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "server.Serve"),
			zap.String("address", address),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("server shutting down", zap.String("op", "server.Serve"))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
