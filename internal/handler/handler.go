// Package handler holds the gin handlers for the HTTP API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"classattend/internal/notify"
	"classattend/internal/session"
	"classattend/internal/store"
)

// Handler carries the dependencies the routes need.
type Handler struct {
	store   *store.Store
	svc     *session.Service
	hub     *notify.Hub
	baseURL string // http://<hotspot ip>:<port>, for QR links and /api/info
}

// New creates a handler.
func New(s *store.Store, svc *session.Service, hub *notify.Hub, baseURL string) *Handler {
	return &Handler{store: s, svc: svc, hub: hub, baseURL: baseURL}
}

// Healthz reports liveness and the number of connected push clients.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ws_clients": h.hub.Count()})
}

// fail writes the JSON error body with a status matching the error class.
func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNoActiveLesson),
		errors.Is(err, session.ErrUnitNotFound),
		errors.Is(err, session.ErrUnknownStudent):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidCode):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrOTPDisabled):
		return http.StatusForbidden
	case errors.Is(err, session.ErrExpired):
		return http.StatusGone
	case errors.Is(err, session.ErrAlreadyMarked),
		errors.Is(err, session.ErrAlreadyVerified),
		errors.Is(err, store.ErrDuplicateAdmission):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
