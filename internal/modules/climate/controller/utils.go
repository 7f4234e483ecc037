package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/types"
	"climate-server/internal/utils"
)

// parseDate accepts exactly YYYY-MM-DD with a real calendar date.
func parseDate(param, s string) (time.Time, error) {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid '%s' %q (expected YYYY-MM-DD)", param, s)
	}
	return t, nil
}

// writeServiceError maps a query failure to a response. Store failures and
// cancelled requests are 503, anything else 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, what string, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		slog.Warn(what+": request cancelled", "path", r.URL.Path, "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "request cancelled")
	case errors.Is(err, repository.ErrStoreUnavailable):
		slog.Error(what+": data store unavailable", "path", r.URL.Path, "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "data store unavailable")
	default:
		slog.Error(what+" failed", "path", r.URL.Path, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load "+what)
	}
}
