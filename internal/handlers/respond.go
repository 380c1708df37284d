package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vibelab/backend/internal/apperror"
	"github.com/vibelab/backend/internal/auth"
	"github.com/vibelab/backend/internal/logging"
	"github.com/vibelab/backend/internal/sharing"
)

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondError renders err through the apperror taxonomy. Internal causes are
// logged but never sent to the client.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		logging.FromContext(ctx).Error("internal error", "error", err)
	}
	respondJSON(ctx, w, apperror.HTTPStatus(kind), errorResponse{Error: apperror.DetailOf(err), Kind: string(kind)})
}

func respondDetail(ctx context.Context, w http.ResponseWriter, status int, kind apperror.Kind, detail string) {
	respondJSON(ctx, w, status, errorResponse{Error: detail, Kind: string(kind)})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperror.Validation("invalid request body")
	}
	return nil
}

func requester(r *http.Request) sharing.Requester {
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		return sharing.User(userID)
	}
	return sharing.Anonymous()
}
