package permission

import (
	"net/http"
	"testing"

	"yamdb/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
)

var (
	plain     = &models.User{ID: "u1", Role: models.RoleUser}
	moderator = &models.User{ID: "m1", Role: models.RoleModerator}
	admin     = &models.User{ID: "a1", Role: models.RoleAdmin}
	superuser = &models.User{ID: "s1", Role: models.RoleUser, IsSuperuser: true}
)

func TestAdminOnly(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		want error
	}{
		{"anonymous", nil, ErrUnauthenticated},
		{"user", plain, ErrDenied},
		{"moderator", moderator, ErrDenied},
		{"admin", admin, nil},
		{"superuser", superuser, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdminOnly(tt.user))
		})
	}
}

func TestAdminOrReadOnly(t *testing.T) {
	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		assert.NoError(t, AdminOrReadOnly(m, nil), m)
	}
	assert.Equal(t, ErrUnauthenticated, AdminOrReadOnly(http.MethodPost, nil))
	assert.Equal(t, ErrDenied, AdminOrReadOnly(http.MethodDelete, moderator))
	assert.NoError(t, AdminOrReadOnly(http.MethodPatch, admin))
	assert.NoError(t, AdminOrReadOnly(http.MethodPost, superuser))
}

func TestAuthorOrModerationRequest(t *testing.T) {
	assert.NoError(t, AuthorOrModerationRequest(http.MethodGet, nil))
	assert.Equal(t, ErrUnauthenticated, AuthorOrModerationRequest(http.MethodPost, nil))
	assert.NoError(t, AuthorOrModerationRequest(http.MethodPost, plain))
}

func TestAuthorOrModerationObject(t *testing.T) {
	const author = "u1"
	tests := []struct {
		name   string
		method string
		user   *models.User
		want   error
	}{
		{"anonymous read", http.MethodGet, nil, nil},
		{"anonymous delete", http.MethodDelete, nil, ErrUnauthenticated},
		{"author delete", http.MethodDelete, plain, nil},
		{"other user delete", http.MethodDelete, &models.User{ID: "u2", Role: models.RoleUser}, ErrDenied},
		{"other user patch", http.MethodPatch, &models.User{ID: "u2", Role: models.RoleUser}, ErrDenied},
		{"moderator delete", http.MethodDelete, moderator, nil},
		{"admin patch", http.MethodPatch, admin, nil},
		{"superuser delete", http.MethodDelete, superuser, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AuthorOrModerationObject(tt.method, tt.user, author))
		})
	}
}
