package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yamdb/database"
	"yamdb/internal/config"
	"yamdb/internal/logging"
	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("api server stopped")
	}
}

func run() error {
	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. Connect to the database
	db, err := database.ConnectDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	// 3. Optional Redis cooldown for confirmation e-mails
	cooldown, err := repository.NewSignupCooldownRedis(cfg.RedisURL, cfg.SignupCooldown)
	if err != nil {
		return err
	}
	defer cooldown.Close()
	if cfg.RedisURL == "" {
		logging.Warn().Msg("REDIS_URL not set, signup e-mails are not throttled")
	}

	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, cfg.MailTimeout)
	if !cfg.MailEnabled() {
		logging.Warn().Msg("SMTP_HOST not set, confirmation codes go to the log")
	}

	if err := middleware.RegisterValidators(); err != nil {
		return err
	}

	// 4. Wire repositories and services
	userRepo := repository.NewUserRepository(db)
	titleRepo := repository.NewTitleRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	genreRepo := repository.NewGenreRepository(db)
	codes := service.NewConfirmationCodes(cfg.JWTSecret, cfg.ConfirmationCodeTTL)

	router := handler.NewRouter(handler.Deps{
		AuthService:       service.NewAuthService(userRepo, codes, mail, cooldown, cfg),
		UserService:       service.NewUserService(userRepo),
		CategoryService:   service.NewCategoryService(categoryRepo),
		GenreService:      service.NewGenreService(genreRepo),
		TitleService:      service.NewTitleService(titleRepo, categoryRepo, genreRepo),
		ReviewService:     service.NewReviewService(reviewRepo, titleRepo),
		CommentService:    service.NewCommentService(repository.NewCommentRepository(db), reviewRepo),
		UserRepo:          userRepo,
		AuthLimiter:       middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst),
		PrometheusEnabled: cfg.PrometheusEnabled,
		DB:                db,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Serve until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("api server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
