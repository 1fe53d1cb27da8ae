package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog())
	r.Use(Metrics())
	r.Use(CORS(h.Cfg.CORSOrigins))

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := NewRateLimiter(h.Cfg.RateLimitPerMin, time.Minute)
	secret := []byte(h.Cfg.JWTSecret)
	authed := AuthJWT(secret, h.Cfg.JWTIssuer, h.Cfg.JWTAudience)

	auth := r.Group("/api/auth")
	{
		auth.POST("/exchange-token", RateLimit(rl), h.ExchangeToken)
		auth.POST("/register-external", RateLimit(rl), h.RegisterExternal)
		auth.GET("/authorize/:provider", RateLimit(rl), h.Authorize)
		auth.GET("/callback", RateLimit(rl), h.Callback)
	}

	r.GET("/api/terms", h.Terms)

	issues := r.Group("/api/issues", authed)
	{
		issues.POST("", h.CreateIssue)
		issues.GET("", h.ListIssues)
		issues.GET("/:id", h.GetIssue)
		issues.PUT("/:id", h.UpdateIssue)
		issues.DELETE("/:id", h.DeleteIssue)
	}

	regs := r.Group("/api/regulations", authed)
	{
		regs.POST("", h.CreateRegulation)
		regs.GET("", h.ListRegulations)
		regs.GET("/:id", h.GetRegulation)
		regs.PUT("/:id", h.UpdateRegulation)
		regs.DELETE("/:id", h.DeleteRegulation)
	}

	return r
}
