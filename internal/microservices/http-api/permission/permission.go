// Package permission holds the access rules of the API as plain predicates.
// A nil user is an anonymous caller.
package permission

import (
	"errors"
	"net/http"

	"yamdb/internal/microservices/http-api/models"
)

var (
	// ErrUnauthenticated means the rule needs a logged-in caller.
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	// ErrDenied means the caller is known but lacks the rights.
	ErrDenied = errors.New("you do not have permission to perform this action")
)

// IsSafeMethod reports whether method only reads.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// IsAdministrator is true for superusers and the admin role.
func IsAdministrator(user *models.User) bool {
	return user != nil && (user.IsSuperuser || user.IsAdmin())
}

// AdminOnly guards user management.
func AdminOnly(user *models.User) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if !IsAdministrator(user) {
		return ErrDenied
	}
	return nil
}

// AdminOrReadOnly lets everyone read and only administrators write.
func AdminOrReadOnly(method string, user *models.User) error {
	if IsSafeMethod(method) {
		return nil
	}
	return AdminOnly(user)
}

// Authenticated requires any logged-in caller.
func Authenticated(user *models.User) error {
	if user == nil {
		return ErrUnauthenticated
	}
	return nil
}

// AuthorOrModerationRequest is the collection-level rule for reviews and
// comments: reads are public, writes need a caller.
func AuthorOrModerationRequest(method string, user *models.User) error {
	if IsSafeMethod(method) {
		return nil
	}
	return Authenticated(user)
}

// AuthorOrModerationObject is the object-level rule: reads are public,
// changes are for the author, moderators and administrators.
func AuthorOrModerationObject(method string, user *models.User, authorID string) error {
	if IsSafeMethod(method) {
		return nil
	}
	if user == nil {
		return ErrUnauthenticated
	}
	if user.ID == authorID || user.IsModerator() || IsAdministrator(user) {
		return nil
	}
	return ErrDenied
}
