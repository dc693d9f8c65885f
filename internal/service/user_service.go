package service

import (
	"errors"
	"strings"

	"hlg-fitness/internal/model"
	"hlg-fitness/internal/repository"
	"hlg-fitness/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrRoleNotFound = errors.New("role not found")

type UserService interface {
	CreateUser(req *CreateUserRequest, actor string) (*model.UserResponse, error)
	UpdateUser(userID uint, req *UpdateUserRequest, actor string) (*model.UserResponse, error)
	DeleteUser(userID, actorID uint) error
	UpdateUserPrivileges(userID uint, privilegeCodes []string) (*model.UserResponse, error)
	GetAllUsers() ([]model.UserResponse, error)
	GetUserByID(id uint) (*model.UserResponse, error)
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	RoleID   uint   `json:"roleId" validate:"required"`
}

type UpdateUserRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Email    string  `json:"email" validate:"required,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"`
	Name     string  `json:"name" validate:"required"`
	RoleID   uint    `json:"roleId" validate:"required"`
	IsActive *bool   `json:"isActive"`
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	roleRepo      repository.RoleRepository
}

func NewUserService(userRepo repository.UserRepository, privilegeRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository) UserService {
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		roleRepo:      roleRepo,
	}
}

func (s *userService) CreateUser(req *CreateUserRequest, actor string) (*model.UserResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validator.FirstError(req); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	taken, err := s.userRepo.ExistsByUsernameOrEmail(req.Username, req.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUserExists
	}

	role, err := s.roleRepo.FindByID(req.RoleID)
	if err != nil {
		return nil, ErrRoleNotFound
	}

	user := &model.User{
		Username:   req.Username,
		Email:      req.Email,
		Name:       req.Name,
		RoleID:     &role.ID,
		IsActive:   true,
		Privileges: role.Privileges,
	}
	user.CreatedBy = actor
	user.UpdatedBy = actor
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return s.GetUserByID(user.ID)
}

// UpdateUser resets privileges to the role defaults whenever the role changes.
func (s *userService) UpdateUser(userID uint, req *UpdateUserRequest, actor string) (*model.UserResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validator.FirstError(req); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	taken, err := s.userRepo.ExistsByUsernameOrEmail(req.Username, req.Email, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUserExists
	}
	role, err := s.roleRepo.FindByID(req.RoleID)
	if err != nil {
		return nil, ErrRoleNotFound
	}

	roleChanged := user.RoleID == nil || *user.RoleID != role.ID
	user.Username = req.Username
	user.Email = req.Email
	user.Name = req.Name
	user.RoleID = &role.ID
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = actor

	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, errors.New("failed to hash password")
		}
		// a new password ends the current session
		user.TokenVersion = uuid.New().String()
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	if roleChanged {
		if err := s.userRepo.UpdatePrivileges(userID, role.Privileges); err != nil {
			return nil, err
		}
	}
	return s.GetUserByID(userID)
}

func (s *userService) DeleteUser(userID, actorID uint) error {
	if userID == actorID {
		return validationf("you cannot delete your own account")
	}
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return ErrUserNotFound
	}
	return s.userRepo.Delete(userID)
}

func (s *userService) UpdateUserPrivileges(userID uint, privilegeCodes []string) (*model.UserResponse, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return nil, ErrUserNotFound
	}
	seen := make(map[string]bool, len(privilegeCodes))
	codes := make([]string, 0, len(privilegeCodes))
	for _, c := range privilegeCodes {
		if !seen[c] {
			seen[c] = true
			codes = append(codes, c)
		}
	}
	privileges, err := s.privilegeRepo.FindByCodes(codes)
	if err != nil {
		return nil, errors.New("failed to find privileges")
	}
	if len(privileges) != len(codes) {
		return nil, validationf("unknown privilege code in %v", codes)
	}
	if err := s.userRepo.UpdatePrivileges(userID, privileges); err != nil {
		return nil, err
	}
	return s.GetUserByID(userID)
}

func (s *userService) GetAllUsers() ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, err
	}
	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(id uint) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	response := user.ToResponse()
	return &response, nil
}
