package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/taskbot/internal/app/agenda"
	"github.com/PabloGalante/taskbot/internal/domain"
	"github.com/PabloGalante/taskbot/internal/observability"
)

// maxPageSize caps the size query parameter.
const maxPageSize = 100

type Server struct {
	store domain.Store
	loc   *time.Location
}

// NewServer returns the read-only status API.
func NewServer(svc *agenda.Service, store domain.Store, loc *time.Location) http.Handler {
	s := &Server{store: store, loc: loc}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /tasks", s.handleTasks(svc.Upcoming))
	mux.HandleFunc("GET /tasks/archived", s.handleTasks(svc.Archived))
	mux.HandleFunc("GET /subjects", s.handleSubjects)

	return chainMiddlewares(mux, withCORS, withLogging)
}

// Serve runs handler on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.LoggerFromContext(ctx).Info("status API listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────
// DTOs
// ─────────────────────────────────────────────

type taskResponse struct {
	Category string    `json:"category"`
	Subject  string    `json:"subject,omitempty"`
	Details  string    `json:"details"`
	At       time.Time `json:"datetime"`
	Display  string    `json:"display"`
}

type tasksResponse struct {
	Tasks   []taskResponse `json:"tasks"`
	Page    int            `json:"page"`
	HasPrev bool           `json:"has_prev"`
	HasNext bool           `json:"has_next"`
}

type subjectsResponse struct {
	Subjects []string `json:"subjects"`
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTasks(list func() []domain.Task) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := intParam(r, "page", 0)
		if err != nil || page < 0 {
			badRequest(w, "invalid page")
			return
		}
		size, err := intParam(r, "size", agenda.DefaultPageSize)
		if err != nil || size <= 0 || size > maxPageSize {
			badRequest(w, "invalid size")
			return
		}

		p := agenda.Paginate(list(), page, size)
		resp := tasksResponse{
			Tasks:   make([]taskResponse, 0, len(p.Tasks)),
			Page:    p.Number,
			HasPrev: p.HasPrev,
			HasNext: p.HasNext,
		}
		for _, t := range p.Tasks {
			resp.Tasks = append(resp.Tasks, s.toTaskResponse(t))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleSubjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, subjectsResponse{Subjects: s.store.Subjects()})
}

// ─────────────────────────────────────────────
// Mappers & helpers
// ─────────────────────────────────────────────

func (s *Server) toTaskResponse(t domain.Task) taskResponse {
	at := t.At.In(s.loc)
	return taskResponse{
		Category: t.Category.Key(),
		Subject:  t.Subject.Name,
		Details:  t.Details,
		At:       at,
		Display:  t.Title() + " " + domain.FormatDateTime(at),
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}
