package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gwi.com/linkedin-agent/internal/core"
	"gwi.com/linkedin-agent/internal/store"
)

const (
	msgCredentialsRequired = "Cookie and user agent are required"
	msgUpstreamFailed      = "Failed to fetch profile data from LinkedIn"
	msgInternalError       = "Internal server error"
	msgTooManyRequests     = "Too many requests"

	maxRequestBodyBytes = 1 << 20
)

// ProfileFetcher is satisfied by core.LinkedInService.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, cookie, userAgent string) (*store.Profile, error)
}

type APIHandler struct {
	fetcher ProfileFetcher
	logger  *zap.Logger
}

func NewAPIHandler(fetcher ProfileFetcher, logger *zap.Logger) *APIHandler {
	return &APIHandler{fetcher: fetcher, logger: logger}
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Error writes a {"error": message} body.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

type ProfileRequest struct {
	Cookie    string `json:"cookie"`
	UserAgent string `json:"userAgent"`
}

// ProfileHandler proxies one profile lookup to LinkedIn. Credentials are used
// for this request only and never stored.
func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req ProfileRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.Debug("Undecodable profile request", zap.String("request_id", reqID), zap.Error(err))
		Error(w, http.StatusBadRequest, msgCredentialsRequired)
		return
	}
	if req.Cookie == "" || req.UserAgent == "" {
		Error(w, http.StatusBadRequest, msgCredentialsRequired)
		return
	}

	profile, err := h.fetcher.FetchProfile(r.Context(), req.Cookie, req.UserAgent)
	if err != nil {
		var upstreamErr *core.UpstreamError
		switch {
		case errors.As(err, &upstreamErr):
			Error(w, clientStatus(upstreamErr.StatusCode), msgUpstreamFailed)
		case errors.Is(err, core.ErrMissingCredentials):
			Error(w, http.StatusBadRequest, msgCredentialsRequired)
		default:
			h.logger.Error("Error in profile API", zap.String("request_id", reqID), zap.Error(err))
			Error(w, http.StatusInternalServerError, msgInternalError)
		}
		return
	}

	JSON(w, http.StatusOK, profile)
}

// decodeBody reads exactly one JSON value from the request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// clientStatus mirrors the upstream status unless it is one that cannot carry
// the JSON error body, in which case the proxy reports a bad gateway.
func clientStatus(upstream int) int {
	if upstream < http.StatusOK || upstream == http.StatusNoContent || upstream == http.StatusNotModified {
		return http.StatusBadGateway
	}
	return upstream
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
