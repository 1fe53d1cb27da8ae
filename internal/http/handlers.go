// Package http wires the gin router: route table, middleware and the
// translation between service errors and status codes.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ipanov/UrbanAI-sub002/internal/config"
	"github.com/ipanov/UrbanAI-sub002/internal/log"
	"github.com/ipanov/UrbanAI-sub002/internal/oauth"
	"github.com/ipanov/UrbanAI-sub002/internal/service"
)

type Handler struct {
	Auth        *service.AuthService
	Issues      *service.IssueService
	Regulations *service.RegulationService
	Cfg         config.Config

	// Ready reports backing-store health for /healthz; nil means always ok.
	Ready func(ctx context.Context) error
}

func NewHandler(auth *service.AuthService, issues *service.IssueService,
	regs *service.RegulationService, cfg config.Config, ready func(context.Context) error) *Handler {
	return &Handler{Auth: auth, Issues: issues, Regulations: regs, Cfg: cfg, Ready: ready}
}

// fail maps service sentinels onto status codes. Unknown errors are logged
// and hidden behind a generic 500.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, oauth.ErrUnsupportedProvider):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, oauth.ErrUpstreamProvider):
		c.JSON(http.StatusBadGateway, gin.H{"error": "identity provider unavailable"})
	default:
		log.From(c.Request.Context()).Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.Ready != nil {
		if err := h.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
