package service

import (
	"context"
	"errors"

	"yamdb/internal/logging"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/repository"
)

// UserService covers administrator user management and the caller's own
// profile.
type UserService interface {
	List(ctx context.Context, actor *models.User, search string, page repository.Page) (*dto.Paginated[dto.UserResponse], error)
	Create(ctx context.Context, actor *models.User, req dto.CreateUserRequest) (*dto.UserResponse, error)
	Get(ctx context.Context, actor *models.User, username string) (*dto.UserResponse, error)
	Update(ctx context.Context, actor *models.User, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, actor *models.User, username string) error

	GetMe(ctx context.Context, actor *models.User) (*dto.UserResponse, error)
	UpdateMe(ctx context.Context, actor *models.User, req dto.UpdateUserRequest) (*dto.UserResponse, error)

	CreateSuperuser(ctx context.Context, username, email string) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) List(ctx context.Context, actor *models.User, search string, page repository.Page) (*dto.Paginated[dto.UserResponse], error) {
	if err := permissionError(permission.AdminOnly(actor)); err != nil {
		return nil, err
	}
	page = page.Normalize()
	users, total, err := s.userRepo.List(ctx, search, page)
	if err != nil {
		return nil, err
	}
	data := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		data = append(data, dto.FromModelToUserResponse(&users[i]))
	}
	return dto.NewPaginated(data, total, page.Page, page.PageSize), nil
}

func (s *userService) Create(ctx context.Context, actor *models.User, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := permissionError(permission.AdminOnly(actor)); err != nil {
		return nil, err
	}
	user := req.ToModel()
	if err := s.checkIdentity(ctx, &user); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		return nil, storageError(err, "user")
	}
	logging.Info().Str("by", actor.Username).Str("username", user.Username).Str("role", string(user.Role)).Msg("user created")
	resp := dto.FromModelToUserResponse(&user)
	return &resp, nil
}

func (s *userService) Get(ctx context.Context, actor *models.User, username string) (*dto.UserResponse, error) {
	if err := permissionError(permission.AdminOnly(actor)); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, storageError(err, "user")
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, actor *models.User, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := permissionError(permission.AdminOnly(actor)); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, storageError(err, "user")
	}
	return s.save(ctx, user, req, true)
}

func (s *userService) Delete(ctx context.Context, actor *models.User, username string) error {
	if err := permissionError(permission.AdminOnly(actor)); err != nil {
		return err
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return storageError(err, "user")
	}
	if err := s.userRepo.Delete(ctx, user); err != nil {
		return storageError(err, "user")
	}
	logging.Info().Str("by", actor.Username).Str("username", user.Username).Msg("user deleted")
	return nil
}

func (s *userService) GetMe(ctx context.Context, actor *models.User) (*dto.UserResponse, error) {
	if err := permissionError(permission.Authenticated(actor)); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, storageError(err, "user")
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

// UpdateMe applies a partial update to the caller's own profile. The role
// field is ignored.
func (s *userService) UpdateMe(ctx context.Context, actor *models.User, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := permissionError(permission.Authenticated(actor)); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, storageError(err, "user")
	}
	return s.save(ctx, user, req, false)
}

func (s *userService) save(ctx context.Context, user *models.User, req dto.UpdateUserRequest, allowRole bool) (*dto.UserResponse, error) {
	req.ApplyTo(user, allowRole)
	if err := s.checkIdentity(ctx, user); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, storageError(err, "user")
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

// CreateSuperuser makes an administrator outside the API, for bootstrap.
func (s *userService) CreateSuperuser(ctx context.Context, username, email string) (*models.User, error) {
	user := models.User{
		Username:    username,
		Email:       email,
		Role:        models.RoleAdmin,
		IsSuperuser: true,
	}
	if err := s.checkIdentity(ctx, &user); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		return nil, storageError(err, "user")
	}
	return &user, nil
}

// checkIdentity enforces the reserved name and that username and email are
// not held by another user. The unique indexes back this up under races.
func (s *userService) checkIdentity(ctx context.Context, user *models.User) error {
	if models.IsReservedUsername(user.Username) {
		return validationf("%v", models.ErrReservedUsername)
	}
	if !user.Role.Valid() {
		return validationf("%v", models.ErrInvalidRole)
	}
	if other, err := s.userRepo.FindByUsername(ctx, user.Username); err == nil {
		if other.ID != user.ID {
			return validationf("username %q is already taken", user.Username)
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if other, err := s.userRepo.FindByEmail(ctx, user.Email); err == nil {
		if other.ID != user.ID {
			return validationf("email %q is already taken", user.Email)
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}
