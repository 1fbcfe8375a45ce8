package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"gregoryjjb/cyclist/cyclic"
)

/////////////////////
// Response helpers

func RespondText(w http.ResponseWriter, body string) {
	w.Write([]byte(body))
}

func RespondJSON(w http.ResponseWriter, body any) {
	RespondJSONStatus(w, http.StatusOK, body)
}

func RespondJSONStatus(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("Encoding response failed")
	}
}

// statusFor maps an error onto the HTTP status that best describes it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, ErrExists):
		return http.StatusConflict
	case errors.Is(err, ErrLimit):
		return http.StatusInsufficientStorage
	case errors.Is(err, cyclic.ErrOutOfRange):
		return http.StatusRequestedRangeNotSatisfiable
	case errors.Is(err, cyclic.ErrCapacity):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, cyclic.ErrUsage):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func RespondError(w http.ResponseWriter, err error) {
	RespondJSONStatus(w, statusFor(err), errorResponse{
		Error: err.Error(),
		Kind:  faultKind(err),
	})
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, fmt.Errorf("%w: %s", ErrValidation, message))
}

func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %s", ErrValidation, err)
	}
	return nil
}

func intParam(r *http.Request, key string) (int, error) {
	raw := chi.URLParam(r, key)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", ErrValidation, key, raw)
	}
	return n, nil
}

//////////////////
// Request bodies

type appendRequest struct {
	Values []string `json:"values"`
	Front  bool     `json:"front"`
}

type setRequest struct {
	Value string `json:"value"`
}

type capacityRequest struct {
	Min int `json:"min"`
}

type cloneRequest struct {
	To string `json:"to"`
}

type splitRequest struct {
	At int    `json:"at"`
	To string `json:"to"`
}

type bufferResponse struct {
	BufferStats
	Values []string `json:"values"`
}

type itemResponse struct {
	Index int    `json:"index"`
	Value string `json:"value"`
}

// BuildInfo is reported by /api/version.
type BuildInfo struct {
	Version string    `json:"version"`
	Commit  string    `json:"commit"`
	BuiltAt time.Time `json:"built_at"`
}

// NewRouter wires every endpoint onto a chi router.
func NewRouter(registry *Registry, metrics *Metrics, buildInfo BuildInfo) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware(&log.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		RespondText(w, "ok")
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			RespondJSON(w, buildInfo)
		})

		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			RespondJSON(w, registry.History())
		})

		r.Get("/buffers", func(w http.ResponseWriter, r *http.Request) {
			RespondJSON(w, registry.Names())
		})

		r.Route("/buffers/{name}", func(r chi.Router) {
			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				capacity := 0
				if raw := r.URL.Query().Get("capacity"); raw != "" {
					n, err := strconv.Atoi(raw)
					if err != nil || n < 0 {
						RespondBadRequest(w, fmt.Sprintf("capacity %q must be a non-negative integer", raw))
						return
					}
					capacity = n
				}

				b, err := registry.Create(chi.URLParam(r, "name"), capacity)
				if err != nil {
					RespondError(w, err)
					return
				}
				RespondJSONStatus(w, http.StatusCreated, b.Stats())
			})

			r.Get("/", withBuffer(registry, func(w http.ResponseWriter, r *http.Request, b *Buffer) {
				values, err := b.Snapshot()
				if err != nil {
					RespondError(w, err)
					return
				}
				RespondJSON(w, bufferResponse{BufferStats: b.Stats(), Values: values})
			}))

			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				if err := registry.Delete(chi.URLParam(r, "name")); err != nil {
					RespondError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Post("/items", withBuffer(registry, func(w http.ResponseWriter, r *http.Request, b *Buffer) {
				var req appendRequest
				if err := decodeBody(r, &req); err != nil {
					RespondError(w, err)
					return
				}
				add := b.Append
				if req.Front {
					add = b.Prepend
				}
				if err := add(req.Values...); err != nil {
					RespondError(w, err)
					return
				}
				RespondJSON(w, b.Stats())
			}))

			r.Get("/items/{index}", withBuffer(registry, func(w http.ResponseWriter, r *http.Request, b *Buffer) {
				i, err := intParam(r, "index")
				if err != nil {
					RespondError(w, err)
					return
				}
				v, err := b.At(i)
				if err != nil {
					RespondError(w, err)
					return
				}
				RespondJSON(w, itemResponse{Index: i, Value: v})
			}))

			r.Put("/items/{index}", withBuffer(registry, func(w http.ResponseWriter, r *http.Request, b *Buffer) {
				i, err := intParam(r, "index")
				if err != nil {
					RespondError(w, err)
					return
				}
				var req setRequest
				if err := decodeBody(r, &req); err != nil {
					RespondError(w, err)
					return
				}
				if err := b.Set(i, req.Value); err != nil {
					RespondError(w, err)
					return
				}
				RespondJSON(w, itemResponse{Index: i, Value: req.Value})
			}))

			r.Delete("/items/{index}", withBuffer(registry, func(w http.ResponseWriter, r *http.Request, b *Buffer) {
				var (
					v   string
					err error
				)
				switch end := chi.URLParam(r, "index"); end {
				case "first":
					v, err = b.PopFirst()
				case "last":
					v, err = b.PopLast()
				default:
					RespondBadRequest(w, fmt.Sprintf("can only remove first or last, not %q", end))
					return
				}
				if err != nil {
					RespondError(w, err)
					return
				}
				RespondJSON(w, itemResponse{Value: v})
			}))

			r.Post("/capacity", withBuffer(registry, func(w http.ResponseWriter, r *http.Request, b *Buffer) {
				var req capacityRequest
				if err := decodeBody(r, &req); err != nil {
					RespondError(w, err)
					return
				}
				if err := b.EnsureCapacity(req.Min); err != nil {
					RespondError(w, err)
					return
				}
				RespondJSON(w, b.Stats())
			}))

			r.Post("/trim", withBuffer(registry, func(w http.ResponseWriter, r *http.Request, b *Buffer) {
				if err := b.Trim(); err != nil {
					RespondError(w, err)
					return
				}
				RespondJSON(w, b.Stats())
			}))

			r.Post("/clear", withBuffer(registry, func(w http.ResponseWriter, r *http.Request, b *Buffer) {
				if err := b.Clear(); err != nil {
					RespondError(w, err)
					return
				}
				RespondJSON(w, b.Stats())
			}))

			r.Post("/clone", func(w http.ResponseWriter, r *http.Request) {
				var req cloneRequest
				if err := decodeBody(r, &req); err != nil {
					RespondError(w, err)
					return
				}
				b, err := registry.Clone(chi.URLParam(r, "name"), req.To)
				if err != nil {
					RespondError(w, err)
					return
				}
				RespondJSONStatus(w, http.StatusCreated, b.Stats())
			})

			r.Post("/split", func(w http.ResponseWriter, r *http.Request) {
				var req splitRequest
				if err := decodeBody(r, &req); err != nil {
					RespondError(w, err)
					return
				}
				b, err := registry.Split(chi.URLParam(r, "name"), req.At, req.To)
				if err != nil {
					RespondError(w, err)
					return
				}
				RespondJSONStatus(w, http.StatusCreated, b.Stats())
			})

			r.Get("/next", withBuffer(registry, func(w http.ResponseWriter, r *http.Request, b *Buffer) {
				v, err := b.Next()
				if err != nil {
					RespondError(w, err)
					return
				}
				RespondJSON(w, itemResponse{Value: v})
			}))

			r.Get("/ws", createWebsocketHandler(registry))
		})
	})

	return r
}

func withBuffer(registry *Registry, fn func(http.ResponseWriter, *http.Request, *Buffer)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := registry.Get(chi.URLParam(r, "name"))
		if err != nil {
			RespondError(w, err)
			return
		}
		fn(w, r, b)
	}
}

// StartServer serves handler until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, config *Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:              config.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("listen", srv.Addr).Msg("Launching server")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
