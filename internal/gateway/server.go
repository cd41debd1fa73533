package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/dohr-michael/tasker/internal/tasks"
)

const maxTaskBody = 1 << 20

// Dispatcher runs one task request to completion.
type Dispatcher interface {
	Dispatch(ctx context.Context, task string) *tasks.Outcome
}

// FileReader reads files behind the external data prefix.
type FileReader interface {
	ReadExternal(path string) ([]byte, error)
}

// Options configures the listener and rate limiting.
type Options struct {
	Host      string
	Port      int
	RateLimit int // requests per minute per IP on /run, 0 disables
}

// Server is the tasker gateway HTTP server.
type Server struct {
	httpServer *http.Server
	dispatcher Dispatcher
	files      FileReader
}

// NewServer creates a new gateway server.
func NewServer(d Dispatcher, files FileReader, opts Options) *Server {
	s := &Server{dispatcher: d, files: files}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
		}
		r.Post("/run", s.handleRun)
	})
	r.Get("/read", s.handleRead)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/operations", s.handleOperations)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("tasker gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	State string `json:"state,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal encoding error","kind":"execution"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, err error, state tasks.State) {
	te := tasks.AsError(err)
	writeJSON(w, statusFor(te), errorResponse{
		Error: te.Message(),
		Kind:  tasks.KindName(te),
		State: string(state),
	})
}

// statusFor maps a failure kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tasks.ErrEmptyTask),
		errors.Is(err, tasks.ErrUnrecognized),
		errors.Is(err, tasks.ErrPathInvalid):
		return http.StatusBadRequest
	case errors.Is(err, tasks.ErrPathNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// taskFromRequest reads ?task=, falling back to a {"task": "..."} body.
func taskFromRequest(r *http.Request) (string, error) {
	if q := r.URL.Query(); q.Has("task") {
		return q.Get("task"), nil
	}
	if r.Body == nil || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return "", nil
	}
	var body struct {
		Task string `json:"task"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxTaskBody)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return "", &tasks.Error{Kind: tasks.ErrEmptyTask, Msg: "invalid JSON body", Err: err}
	}
	return body.Task, nil
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	task, err := taskFromRequest(r)
	if err != nil {
		writeError(w, err, tasks.StateReceived)
		return
	}

	out := s.dispatcher.Dispatch(r.Context(), task)
	w.Header().Set("X-Run-ID", out.RunID)
	if out.Failed() {
		writeError(w, out.Err, out.State)
		return
	}
	writeJSON(w, http.StatusOK, out.Result)
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	data, err := s.files.ReadExternal(path)
	if err != nil {
		slog.Debug("read rejected", "path", path, "error", err)
		writeError(w, err, "")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	ops := tasks.Operations()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.String()
	}
	writeJSON(w, http.StatusOK, map[string][]string{"operations": names})
}
