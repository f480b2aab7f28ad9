package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the authorization tier of a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ReservedUsername is taken by the /users/me endpoint and can never be registered.
const ReservedUsername = "me"

var (
	ErrReservedUsername = errors.New(`username "me" is reserved`)
	ErrInvalidRole      = errors.New("role must be one of: user, moderator, admin")
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	Username    string     `gorm:"uniqueIndex;size:150;not null;check:username_is_not_me,lower(username) <> 'me'" json:"username"`
	Email       string     `gorm:"uniqueIndex;size:254;not null" json:"email"`
	FirstName   string     `gorm:"size:150" json:"first_name"`
	LastName    string     `gorm:"size:150" json:"last_name"`
	Bio         *string    `gorm:"type:text" json:"bio"`
	Role        Role       `gorm:"type:varchar(16);default:'user';not null" json:"role"`
	IsSuperuser bool       `gorm:"default:false;not null" json:"-"`
	LastLogin   *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	return nil
}

// BeforeSave mirrors the table CHECK so every writer gets the same error.
func (user *User) BeforeSave(tx *gorm.DB) (err error) {
	if IsReservedUsername(user.Username) {
		return ErrReservedUsername
	}
	if user.Role != "" && !user.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

func (user *User) IsAdmin() bool {
	return user.Role == RoleAdmin
}

func (user *User) IsModerator() bool {
	return user.Role == RoleModerator
}

// IsReservedUsername compares case-insensitively, like the table constraint.
func IsReservedUsername(username string) bool {
	return strings.EqualFold(username, ReservedUsername)
}

func (User) TableName() string {
	return "users"
}
