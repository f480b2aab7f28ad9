package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yamdb/internal/config"
	"yamdb/internal/logging"
	"yamdb/internal/mailer"
	"yamdb/internal/metrics"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"

	"github.com/golang-jwt/jwt/v5"
)

const confirmationSubject = "YaMDb confirmation code"

// Claims carried by an access token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, username, email string) (*models.User, error)
	ObtainToken(ctx context.Context, username, confirmationCode string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
	// IssueConfirmationCode returns a fresh code for an existing user
	// without sending it, for the admin CLI.
	IssueConfirmationCode(user *models.User) string
}

type authService struct {
	userRepo       repository.UserRepository
	codes          *ConfirmationCodes
	mail           mailer.Dispatcher
	cooldown       repository.SignupCooldown
	jwtSecret      string
	accessTokenTTL time.Duration
	now            func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	codes *ConfirmationCodes,
	mail mailer.Dispatcher,
	cooldown repository.SignupCooldown,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		codes:          codes,
		mail:           mail,
		cooldown:       cooldown,
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
		now:            time.Now,
	}
}

// Register creates the user on first sight and mails a confirmation code.
// Repeating the call with the same pair only issues a new code.
func (s *authService) Register(ctx context.Context, username, email string) (*models.User, error) {
	if models.IsReservedUsername(username) {
		return nil, fmt.Errorf("%w: %v", ErrValidation, models.ErrReservedUsername)
	}

	byName, err := s.findOptional(ctx, s.userRepo.FindByUsername, username)
	if err != nil {
		return nil, err
	}
	byEmail, err := s.findOptional(ctx, s.userRepo.FindByEmail, email)
	if err != nil {
		return nil, err
	}

	var user *models.User
	switch {
	case byName != nil && byEmail != nil && byName.ID == byEmail.ID:
		user = byName
	case byName != nil:
		return nil, validationf("username %q is registered with a different email", username)
	case byEmail != nil:
		return nil, validationf("email %q is registered with a different username", email)
	default:
		user = &models.User{
			Username: username,
			Email:    email,
			Role:     models.RoleUser,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, storageError(err, "user")
		}
		logging.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	}

	s.sendConfirmation(ctx, user, s.codes.Issue(user))
	return user, nil
}

func (s *authService) findOptional(
	ctx context.Context,
	find func(context.Context, string) (*models.User, error),
	key string,
) (*models.User, error) {
	user, err := find(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// sendConfirmation never fails the caller; delivery problems are logged.
func (s *authService) sendConfirmation(ctx context.Context, user *models.User, code string) {
	if s.cooldown != nil {
		ok, err := s.cooldown.Acquire(ctx, user.Email)
		if err != nil {
			logging.Warn().Err(err).Msg("signup cooldown unavailable, sending anyway")
		} else if !ok {
			metrics.MailDispatches.WithLabelValues("suppressed").Inc()
			logging.Info().Str("user_id", user.ID).Msg("confirmation e-mail suppressed by cooldown")
			return
		}
	}

	msg := mailer.Message{
		To:      user.Email,
		Subject: confirmationSubject,
		Body:    fmt.Sprintf("Hello, %s!\n\nYour confirmation code: %s\n", user.Username, code),
	}
	if err := s.mail.Dispatch(ctx, msg); err != nil {
		logging.Error().Err(err).Str("user_id", user.ID).Msg("failed to dispatch confirmation e-mail")
	}
}

func (s *authService) IssueConfirmationCode(user *models.User) string {
	return s.codes.Issue(user)
}

// ObtainToken exchanges a confirmation code for an access token. A
// successful exchange moves last_login, which retires the code.
func (s *authService) ObtainToken(ctx context.Context, username, confirmationCode string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", storageError(err, "user")
	}

	if !s.codes.Verify(user, confirmationCode) {
		return "", fmt.Errorf("%w: invalid or expired confirmation code", ErrUnauthorized)
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return "", err
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		return "", storageError(err, "user")
	}
	return token, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	return claims, nil
}
