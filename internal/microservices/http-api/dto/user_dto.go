package dto

import "yamdb/internal/microservices/http-api/models"

type UserResponse struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Bio       *string     `json:"bio"`
	Role      models.Role `json:"role"`
}

// CreateUserRequest used by administrators on POST /users/
type CreateUserRequest struct {
	Username  string      `json:"username" binding:"required,max=150,username,notme"`
	Email     string      `json:"email" binding:"required,email,max=254"`
	FirstName string      `json:"first_name" binding:"max=150"`
	LastName  string      `json:"last_name" binding:"max=150"`
	Bio       *string     `json:"bio"`
	Role      models.Role `json:"role" binding:"omitempty,oneof=user moderator admin"`
}

// UpdateUserRequest used for PATCH (partial updates)
type UpdateUserRequest struct {
	Username  *string      `json:"username" binding:"omitempty,max=150,username,notme"`
	Email     *string      `json:"email" binding:"omitempty,email,max=254"`
	FirstName *string      `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string      `json:"last_name" binding:"omitempty,max=150"`
	Bio       *string      `json:"bio"`
	Role      *models.Role `json:"role" binding:"omitempty,oneof=user moderator admin"`
}

func (d CreateUserRequest) ToModel() models.User {
	role := d.Role
	if role == "" {
		role = models.RoleUser
	}
	return models.User{
		Username:  d.Username,
		Email:     d.Email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Bio:       d.Bio,
		Role:      role,
	}
}

// ApplyTo copies the set fields onto u. Role is copied only when allowRole
// is true; self-service updates pass false.
func (d UpdateUserRequest) ApplyTo(u *models.User, allowRole bool) {
	if d.Username != nil {
		u.Username = *d.Username
	}
	if d.Email != nil {
		u.Email = *d.Email
	}
	if d.FirstName != nil {
		u.FirstName = *d.FirstName
	}
	if d.LastName != nil {
		u.LastName = *d.LastName
	}
	if d.Bio != nil {
		u.Bio = d.Bio
	}
	if allowRole && d.Role != nil {
		u.Role = *d.Role
	}
}

func FromModelToUserResponse(u *models.User) UserResponse {
	return UserResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	}
}
