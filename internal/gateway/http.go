// ABOUTME: HTTP surface of the relay: health check and Telegram webhook intake
// ABOUTME: Routes /webhook/{endpoint} to the matching bot's update handler

package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/2389/event-relay/internal/store"
)

// healthTimeout bounds the database check behind /healthz.
const healthTimeout = 2 * time.Second

// newRouter builds the HTTP handler. webhooks maps endpoint names to their
// update handlers and is empty in polling mode.
func newRouter(items store.Directory, webhooks map[string]http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealth(items))

	r.Post("/webhook/{endpoint}", func(w http.ResponseWriter, req *http.Request) {
		h, ok := webhooks[chi.URLParam(req, "endpoint")]
		if !ok {
			http.NotFound(w, req)
			return
		}
		h.ServeHTTP(w, req)
	})

	return r
}

// handleHealth returns 200 OK while the item database answers.
func handleHealth(items store.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if _, err := items.Count(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
