package controllers

import (
	"context"
	"net/http"

	"go.uber.org/multierr"

	"github.com/ahtisham774/spectech-backend/api/responses"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness.
func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency and reports ready only when all
// of them answer.
func HealthReady(logg *logger.Logger, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var errs error
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
			}
		}
		if errs != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "dependencies unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

// ReadinessDeps builds the dependency map for HealthReady. Nil entries are
// skipped so optional dependencies do not fail the probe.
func ReadinessDeps(db, cache, broker pinger) map[string]pinger {
	return map[string]pinger{
		"database": db,
		"redis":    cache,
		"pubsub":   broker,
	}
}
