package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"yamdb/database/dbtest"
	"yamdb/internal/config"
	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

// lastCode pulls the confirmation code out of the newest message.
func (o *outbox) lastCode(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.sent)
	_, code, ok := strings.Cut(o.sent[len(o.sent)-1].Body, "Your confirmation code: ")
	require.True(t, ok)
	return strings.TrimSpace(code)
}

type apiEnv struct {
	router http.Handler
	auth   service.AuthService
	users  repository.UserRepository
	titles repository.TitleRepository
	mail   *outbox
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())

	db := dbtest.New(t)
	cfg := &config.Config{
		JWTSecret:           "integration-secret-at-least-32-bytes!!",
		AccessTokenTTL:      time.Hour,
		ConfirmationCodeTTL: time.Hour,
	}

	users := repository.NewUserRepository(db)
	titles := repository.NewTitleRepository(db)
	reviews := repository.NewReviewRepository(db)
	categories := repository.NewCategoryRepository(db)
	genres := repository.NewGenreRepository(db)
	mail := &outbox{}
	auth := service.NewAuthService(users, service.NewConfirmationCodes(cfg.JWTSecret, cfg.ConfirmationCodeTTL), mail, nil, cfg)

	router := handler.NewRouter(handler.Deps{
		AuthService:     auth,
		UserService:     service.NewUserService(users),
		CategoryService: service.NewCategoryService(categories),
		GenreService:    service.NewGenreService(genres),
		TitleService:    service.NewTitleService(titles, categories, genres),
		ReviewService:   service.NewReviewService(reviews, titles),
		CommentService:  service.NewCommentService(repository.NewCommentRepository(db), reviews),
		UserRepo:        users,
		DB:              db,
	})
	return &apiEnv{router: router, auth: auth, users: users, titles: titles, mail: mail}
}

func (e *apiEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login creates a user with the given role and returns an access token.
func (e *apiEnv) login(t *testing.T, username string, role models.Role) string {
	t.Helper()
	ctx := context.Background()
	user := &models.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, e.users.Create(ctx, user))
	token, err := e.auth.ObtainToken(ctx, username, e.auth.IssueConfirmationCode(user))
	require.NoError(t, err)
	return token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestSignupTokenAndProfile(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodPost, "/api/v1/auth/signup/", "", map[string]string{
		"username": "alice", "email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/auth/token/", "", map[string]string{
		"username": "alice", "confirmation_code": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	code := api.mail.lastCode(t)
	w = api.do(http.MethodPost, "/api/v1/auth/token/", "", map[string]string{
		"username": "alice", "confirmation_code": code,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode[dto.TokenResponse](t, w).Token
	require.NotEmpty(t, token)

	// the code is spent once a token was issued
	w = api.do(http.MethodPost, "/api/v1/auth/token/", "", map[string]string{
		"username": "alice", "confirmation_code": code,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/api/v1/users/me/", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[dto.UserResponse](t, w)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, models.RoleUser, me.Role)

	w = api.do(http.MethodPatch, "/api/v1/users/me/", token, map[string]string{
		"role": "admin", "bio": "reads a lot",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me = decode[dto.UserResponse](t, w)
	assert.Equal(t, models.RoleUser, me.Role)
	require.NotNil(t, me.Bio)
	assert.Equal(t, "reads a lot", *me.Bio)

	w = api.do(http.MethodGet, "/api/v1/users/", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSignup_RejectsReservedName(t *testing.T) {
	api := newAPI(t)

	for _, name := range []string{"me", "ME", "Me"} {
		w := api.do(http.MethodPost, "/api/v1/auth/signup/", "", map[string]string{
			"username": name, "email": "someone@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
	assert.Empty(t, api.mail.sent)
}

func TestAuthHeader(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodGet, "/api/v1/users/me/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/api/v1/titles/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCatalogPermissions(t *testing.T) {
	api := newAPI(t)
	admin := api.login(t, "boss", models.RoleAdmin)
	user := api.login(t, "plain", models.RoleUser)

	category := map[string]string{"name": "Films", "slug": "films"}
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/v1/categories/", "", category).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/v1/categories/", user, category).Code)
	assert.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/categories/", admin, category).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/api/v1/categories/", admin, category).Code)
	assert.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/genres/", admin,
		map[string]string{"name": "Drama", "slug": "drama"}).Code)

	w := api.do(http.MethodPost, "/api/v1/titles/", admin, map[string]any{
		"name": "Solaris", "year": 1972, "category": "films", "genre": []string{"drama"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.TitleResponse](t, w)
	assert.Nil(t, created.Rating)
	require.NotNil(t, created.Category)
	assert.Equal(t, "films", created.Category.Slug)

	w = api.do(http.MethodGet, "/api/v1/titles/?genre=drama", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[dto.Paginated[dto.TitleResponse]](t, w)
	assert.Equal(t, int64(1), page.Total)

	w = api.do(http.MethodPost, "/api/v1/titles/", admin, map[string]any{"name": "Later", "year": 3000})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/v1/titles/", admin, map[string]any{"name": "Stalker", "year": 1979, "category": "films"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	stalker := decode[dto.TitleResponse](t, w)
	path := fmt.Sprintf("/api/v1/titles/%d/", stalker.ID)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPatch, path, admin, map[string]any{"category": "no such"}).Code)
	w = api.do(http.MethodPatch, path, admin, map[string]any{"category": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, decode[dto.TitleResponse](t, w).Category)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/api/v1/categories/films/", user, nil).Code)
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/v1/categories/films/", admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/v1/categories/films/", admin, nil).Code)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/titles/%d/", created.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[dto.TitleResponse](t, w).Category)
}

func TestReviewLifecycle(t *testing.T) {
	api := newAPI(t)
	author := api.login(t, "author", models.RoleUser)
	other := api.login(t, "other", models.RoleUser)
	moderator := api.login(t, "mod", models.RoleModerator)

	title := &models.Title{Name: "Stalker", Year: 1979}
	require.NoError(t, api.titles.Create(context.Background(), title))
	reviews := fmt.Sprintf("/api/v1/titles/%d/reviews/", title.ID)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, reviews, "", map[string]any{"text": "x", "score": 5}).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, reviews, author, map[string]any{"text": "x", "score": 11}).Code)

	w := api.do(http.MethodPost, reviews, author, map[string]any{"text": "slow and great", "score": 9})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	review := decode[dto.ReviewResponse](t, w)
	assert.Equal(t, "author", review.Author)

	w = api.do(http.MethodPost, reviews, author, map[string]any{"text": "again", "score": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusCreated, api.do(http.MethodPost, reviews, other, map[string]any{"text": "meh", "score": 4}).Code)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/titles/%d/", title.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rating := decode[dto.TitleResponse](t, w).Rating
	require.NotNil(t, rating)
	assert.Equal(t, 6, *rating)

	item := fmt.Sprintf("%s%d/", reviews, review.ID)
	comments := item + "comments/"
	w = api.do(http.MethodPost, comments, other, map[string]string{"text": "disagree"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decode[dto.CommentResponse](t, w)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPatch, fmt.Sprintf("%s%d/", comments, comment.ID), author,
		map[string]string{"text": "edited"}).Code)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPatch, item, other, map[string]any{"score": 1}).Code)
	w = api.do(http.MethodPatch, item, author, map[string]any{"score": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "slow and great", decode[dto.ReviewResponse](t, w).Text)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodDelete, item, "", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, item, other, nil).Code)
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, item, moderator, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, item, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, comments, "", nil).Code)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/titles/%d/", title.ID), "", nil)
	rating = decode[dto.TitleResponse](t, w).Rating
	require.NotNil(t, rating)
	assert.Equal(t, 4, *rating)
}

func TestInvalidIDsAreNotFound(t *testing.T) {
	api := newAPI(t)

	for _, path := range []string{
		"/api/v1/titles/abc/",
		"/api/v1/titles/0/",
		"/api/v1/titles/999/reviews/",
		"/api/v1/titles/1/reviews/x/comments/",
	} {
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, "", nil).Code, path)
	}
}

func TestHealthz(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
