package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sakif/essay-site/internal/apperror"
)

// Pinger is implemented by the engagement repositories.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// HandleHealth reports whether the engagement database answers.
//
// HTTP: GET /healthz → 200 {"status": "ok"} or 503
func HandleHealth(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			writeError(w, apperror.Unavailable("database is not reachable"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
