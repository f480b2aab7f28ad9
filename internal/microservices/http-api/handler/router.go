package handler

import (
	"context"
	"net/http"
	"time"

	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Deps holds everything the HTTP API is built from.
type Deps struct {
	AuthService     service.AuthService
	UserService     service.UserService
	CategoryService service.CategoryService
	GenreService    service.GenreService
	TitleService    service.TitleService
	ReviewService   service.ReviewService
	CommentService  service.CommentService

	UserRepo repository.UserRepository

	// AuthLimiter throttles /auth per client IP; nil disables it.
	AuthLimiter       *middleware.RateLimiter
	PrometheusEnabled bool
	// DB backs /healthz; nil skips the ping.
	DB *gorm.DB
}

// NewRouter wires every route under /api/v1.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	r.GET("/healthz", healthz(d.DB))
	if d.PrometheusEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/api/v1", middleware.AuthMiddleware(d.AuthService, d.UserRepo))

	var authExtra []gin.HandlerFunc
	if d.AuthLimiter != nil {
		authExtra = append(authExtra, d.AuthLimiter.Middleware())
	}
	NewAuthHandler(d.AuthService).RegisterRoutes(v1, authExtra...)
	NewUserHandler(d.UserService).RegisterRoutes(v1)
	NewCategoryHandler(d.CategoryService).RegisterRoutes(v1)
	NewGenreHandler(d.GenreService).RegisterRoutes(v1)

	titles := v1.Group("/titles")
	NewTitleHandler(d.TitleService).RegisterRoutes(titles)
	NewReviewHandler(d.ReviewService).RegisterRoutes(titles)
	NewCommentHandler(d.CommentService).RegisterRoutes(titles)

	return r
}

func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
				err = sqlDB.PingContext(ctx)
				cancel()
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
