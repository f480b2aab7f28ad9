package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"yamdb/database/dbtest"
	"yamdb/internal/config"
	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-that-is-at-least-32-bytes-long"

// outbox is a synchronous mailer.Dispatcher for tests.
type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Dispatch(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

// denyAfterFirst grants the first Acquire per address only.
type denyAfterFirst struct {
	seen map[string]bool
}

func (d *denyAfterFirst) Acquire(_ context.Context, email string) (bool, error) {
	if d.seen[email] {
		return false, nil
	}
	d.seen[email] = true
	return true, nil
}

func (d *denyAfterFirst) Close() error { return nil }

type testEnv struct {
	db       *gorm.DB
	users    repository.UserRepository
	titles   repository.TitleRepository
	reviews  repository.ReviewRepository
	comments repository.CommentRepository
	cats     repository.CategoryRepository
	genres   repository.GenreRepository
	codes    *ConfirmationCodes
	outbox   *outbox
	cfg      *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	cfg := &config.Config{
		JWTSecret:           testSecret,
		AccessTokenTTL:      time.Hour,
		ConfirmationCodeTTL: 72 * time.Hour,
	}
	return &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		titles:   repository.NewTitleRepository(db),
		reviews:  repository.NewReviewRepository(db),
		comments: repository.NewCommentRepository(db),
		cats:     repository.NewCategoryRepository(db),
		genres:   repository.NewGenreRepository(db),
		codes:    NewConfirmationCodes(cfg.JWTSecret, cfg.ConfirmationCodeTTL),
		outbox:   &outbox{},
		cfg:      cfg,
	}
}

func (e *testEnv) authService(cooldown repository.SignupCooldown) *authService {
	return NewAuthService(e.users, e.codes, e.outbox, cooldown, e.cfg).(*authService)
}

func (e *testEnv) user(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Role: role}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) title(t *testing.T, name string) *models.Title {
	t.Helper()
	title := &models.Title{Name: name, Year: 2001}
	require.NoError(t, e.titles.Create(context.Background(), title))
	return title
}

func (e *testEnv) rating(t *testing.T, titleID int64) *int {
	t.Helper()
	title, err := e.titles.FindByID(context.Background(), titleID)
	require.NoError(t, err)
	return title.Rating
}
