package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"regenq/internal/api"
	"regenq/internal/config"
	"regenq/internal/logging"
	"regenq/internal/queue"
)

const (
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 64 << 10
	listSort        = "createdAt:desc"
)

type apiServer struct {
	bind        string
	logger      *slog.Logger
	daemon      *Daemon
	repo        queue.Repository
	handler     http.Handler
	server      *http.Server
	maxPageSize int

	mu       sync.Mutex
	listener net.Listener
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
		repo:   queue.NewLocalRepository(d.store),
		// Clamp list pages to the admin limit.
		maxPageSize: cfg.Admin.MaxPageSize,
	}

	mux := http.NewServeMux()
	srv.route(mux, "POST /api/queue-items", "create", srv.handleCreate)
	srv.route(mux, "GET /api/queue-items", "list", srv.handleList)
	srv.route(mux, "GET /api/queue-items/latest", "latest", srv.handleLatest)
	srv.route(mux, "GET /api/queue-items/{id}", "get", srv.handleGet)
	srv.route(mux, "PATCH /api/queue-items/{id}", "update", srv.handleUpdate)
	srv.route(mux, "DELETE /api/queue-items/{id}", "delete", srv.handleDelete)
	srv.route(mux, "GET /api/status", "status", srv.handleStatus)
	mux.Handle("GET /metrics", d.metrics.Handler())

	srv.handler = withRequestID(mux)
	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// route registers h behind the bearer check and request instrumentation.
func (s *apiServer) route(mux *http.ServeMux, pattern, name string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(name, authMiddleware(s.daemon.cfg.Paths.APIToken, h)))
}

func (s *apiServer) listen() error {
	if s.bind == "" {
		return errors.New("api bind address is required")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) serve() error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return errors.New("api server not listening")
	}
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api serve: %w", err)
	}
	return nil
}

func (s *apiServer) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	s.logger.Info("api server stopped")
	return nil
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body api.CreateQueueItemRequest
	if !s.decode(w, r, &body) {
		return
	}
	in, err := newItemFromRequest(body)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	item, err := s.repo.Create(r.Context(), "", in)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.requestLogger(r).Info("queue item created",
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldSlug, item.Slug),
		logging.String(logging.FieldField, item.Field.Label()),
	)
	dto := api.FromQueueItem(item)
	s.writeJSON(w, http.StatusCreated, api.QueueItemResponse{Item: &dto})
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptionsFromQuery(r, s.maxPageSize)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	page, err := s.repo.List(r.Context(), "", opts)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromPage(page))
}

func (s *apiServer) handleLatest(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.URL.Query().Get("slug"))
	item, err := s.repo.LatestBySlug(r.Context(), "", slug)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var resp api.QueueItemResponse
	if item != nil {
		dto := api.FromQueueItem(item)
		resp.Item = &dto
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	item, err := s.repo.Get(r.Context(), "", id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if item == nil {
		s.writeFailure(w, r, queue.NotFound("get", id))
		return
	}
	dto := api.FromQueueItem(item)
	s.writeJSON(w, http.StatusOK, api.QueueItemResponse{Item: &dto})
}

func (s *apiServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var body api.UpdateQueueItemRequest
	if !s.decode(w, r, &body) {
		return
	}
	patch, err := api.ToPatch(body)
	if err != nil {
		s.writeFailure(w, r, queue.ValidationErr("update", err))
		return
	}
	item, err := s.repo.Update(r.Context(), "", r.PathValue("id"), patch)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.requestLogger(r).Info("queue item updated",
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldStatus, string(item.Status)),
	)
	dto := api.FromQueueItem(item)
	s.writeJSON(w, http.StatusOK, api.QueueItemResponse{Item: &dto})
}

func (s *apiServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.repo.Delete(r.Context(), "", id); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.requestLogger(r).Info("queue item deleted", logging.String(logging.FieldItemID, id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	payload := api.StoreStatus{
		Running:      status.Running,
		PID:          status.PID,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		Counts:       api.MergeQueueStats(status.Counts),
		InFlight:     status.Health.InFlight,
		Schema:       status.Health.SchemaVersion,
		JournalMode:  status.Health.JournalMode,
		Healthy:      status.Health.Healthy(),
		HealthError:  status.Health.Error,
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func newItemFromRequest(body api.CreateQueueItemRequest) (queue.NewItem, error) {
	field, ok := queue.ParseField(body.Field)
	if !ok {
		return queue.NewItem{}, queue.Validation("create", fmt.Sprintf("unknown field %q", body.Field))
	}
	var status queue.Status
	if strings.TrimSpace(body.Status) != "" {
		if status, ok = queue.ParseStatus(body.Status); !ok {
			return queue.NewItem{}, queue.Validation("create", fmt.Sprintf("unknown status %q", body.Status))
		}
	}
	return queue.NewItem{Slug: body.Slug, Field: field, Status: status}, nil
}

// listOptionsFromQuery parses list parameters. pageSize above maxPageSize is
// clamped; maxPageSize <= 0 disables the cap.
func listOptionsFromQuery(r *http.Request, maxPageSize int) (queue.ListOptions, error) {
	query := r.URL.Query()
	var opts queue.ListOptions
	var err error
	if opts.Page, err = intParam(query.Get("page")); err != nil {
		return opts, queue.Validation("list", "page must be a positive integer")
	}
	if opts.PageSize, err = intParam(query.Get("pageSize")); err != nil {
		return opts, queue.Validation("list", "pageSize must be a positive integer")
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, ok := queue.ParseStatus(raw)
		if !ok {
			return opts, queue.Validation("list", fmt.Sprintf("unknown status %q", raw))
		}
		opts.Status = status
	}
	if sort := strings.TrimSpace(query.Get("sort")); sort != "" && sort != listSort {
		return opts, queue.Validation("list", fmt.Sprintf("unsupported sort %q", sort))
	}
	opts.Slug = strings.TrimSpace(query.Get("slug"))
	opts = opts.Normalized()
	if maxPageSize > 0 && opts.PageSize > maxPageSize {
		opts.PageSize = maxPageSize
	}
	return opts, nil
}

func intParam(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("invalid")
	}
	return n, nil
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		s.writeFailure(w, r, queue.ValidationErr("decode body", err))
		return false
	}
	return true
}

// statusFor maps the error taxonomy onto the HTTP contract.
func statusFor(err error) int {
	switch queue.KindOf(err) {
	case queue.KindValidation:
		return http.StatusBadRequest
	case queue.KindNotFound:
		return http.StatusNotFound
	case queue.KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusServiceUnavailable
	}
}

func (s *apiServer) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	kind := queue.KindOf(err)
	if code >= http.StatusInternalServerError {
		logging.ErrorWithContext(s.requestLogger(r), "request failed", "api_request_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, kind),
			logging.String(logging.FieldErrorHint, "run regenq status to check store health"),
		)
	}
	s.writeJSON(w, code, api.ErrorResponse{Error: err.Error(), Kind: kind})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) requestLogger(r *http.Request) *slog.Logger {
	return logging.WithContext(r.Context(), s.logger)
}
