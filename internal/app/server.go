package app

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"github.com/alchemmist/canvas-snap/internal/logging"
	"github.com/alchemmist/canvas-snap/internal/scene"
	"github.com/alchemmist/canvas-snap/internal/snapshot"
	"github.com/alchemmist/canvas-snap/internal/store"
)

type captureRequest struct {
	Name string `json:"name"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type listResponse struct {
	Snapshots []snapshot.Summary `json:"snapshots"`
}

// Router exposes the snapshot operations over HTTP.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	r.Get("/document", a.handleDocument)

	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", a.handleList)
		r.Post("/", a.handleCapture)
		r.Post("/{index}/restore", a.handleRestoreAt)
		r.Delete("/{index}", a.handleDeleteAt)
		r.Post("/id/{id}/restore", a.handleRestoreID)
		r.Delete("/id/{id}", a.handleDeleteID)
		r.Get("/id/{id}/export", a.handleExport)
	})
	return r
}

func (a *App) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, listResponse{Snapshots: a.List()})
}

func (a *App) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	sum, err := a.Capture(r.Context(), req.Name)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, sum)
}

func (a *App) handleRestoreAt(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	a.respond(w, func() (string, error) { return a.Restore(r.Context(), index) })
}

func (a *App) handleDeleteAt(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	a.respond(w, func() (string, error) { return a.Delete(index) })
}

func (a *App) handleRestoreID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.respond(w, func() (string, error) { return a.RestoreID(r.Context(), id) })
}

func (a *App) handleDeleteID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.respond(w, func() (string, error) { return a.DeleteID(id) })
}

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := a.store.Get(id)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	b, err := a.store.Export(id)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+snapshot.ExportFileName(snap.Name, a.now(), false)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (a *App) handleDocument(w http.ResponseWriter, r *http.Request) {
	if a.doc == nil {
		writeError(w, http.StatusServiceUnavailable, store.ErrNoDocument)
		return
	}
	f, err := scene.Dump(r.Context(), a.doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (a *App) respond(w http.ResponseWriter, op func() (string, error)) {
	msg, err := op()
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (a *App) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		a.log.Debugf(logging.CategoryHTTP, "%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(started))
	})
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, store.ErrInvalidIndex)
		return 0, false
	}
	return index, true
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalidIndex), errors.Is(err, ErrBlankName):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNoDocument):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// Serve runs the HTTP API on addr until ctx is done, then shuts down
// gracefully.
func (a *App) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Infof(logging.CategoryHTTP, "listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
