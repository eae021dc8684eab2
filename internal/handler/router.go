package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"faceattend/internal/auth"
	"faceattend/internal/httpmiddleware"
)

// RouterOptions carries the cross-cutting knobs the router needs.
type RouterOptions struct {
	JWTSigningKey   string
	JWTIssuer       string
	RateLimitPerMin int
	WebDir          string
}

// NewRouter builds the gin engine: middleware stack, public routes, and the
// bearer-guarded admin/verification surface.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
	}))
	if opts.RateLimitPerMin > 0 {
		r.Use(httpmiddleware.NewTokenBucket(opts.RateLimitPerMin, opts.RateLimitPerMin).GinMiddleware())
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/admin/login", h.Login)
	api.GET("/team", h.Team)

	// Everything else exposes or mutates personal data and requires a token.
	admin := api.Group("", auth.AdminAuth(opts.JWTSigningKey, opts.JWTIssuer))
	admin.GET("/students", h.ListStudents)
	admin.POST("/students", h.AddStudent)
	admin.DELETE("/students/:id", h.RemoveStudent)
	admin.POST("/verify/gate", h.VerifyGate)
	admin.POST("/verify/classroom", h.VerifyClassroom)
	admin.GET("/attendance", h.ListAttendance)
	admin.GET("/attendance/export", h.ExportAttendance)

	if opts.WebDir != "" {
		r.StaticFile("/", opts.WebDir+"/index.html")
	}

	return r
}
