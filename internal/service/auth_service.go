package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hlg-fitness/internal/model"
	"hlg-fitness/internal/repository"
	"hlg-fitness/pkg/jwt"
	"hlg-fitness/pkg/storage"
	"hlg-fitness/pkg/validator"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrUserExists         = errors.New("username or email already in use")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

type AuthService interface {
	Register(req *RegisterRequest) (*LoginResponse, error)
	Login(login, password string) (*LoginResponse, error)
	Logout(userID uint) error
	Me(userID uint) (*model.UserResponse, error)
	UpdateMe(ctx context.Context, userID uint, req *UpdateProfileRequest, avatar *multipart.FileHeader) (*model.UserResponse, error)
	Authenticate(token string) (*jwt.Claims, error)
	ResetPassword(login, newPassword string) error
}

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Name            string `json:"name" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type UpdateProfileRequest struct {
	Name            string  `json:"name" form:"name" validate:"omitempty,max=255"`
	Email           string  `json:"email" form:"email" validate:"omitempty,email"`
	CurrentPassword string  `json:"currentPassword" form:"currentPassword"`
	NewPassword     *string `json:"newPassword" form:"newPassword" validate:"omitempty,min=6"`
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	tokens   *jwt.Manager
	store    storage.Storage
	log      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, tokens *jwt.Manager, store storage.Storage) AuthService {
	return &authService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		tokens:   tokens,
		store:    store,
		log:      zap.L().Named("auth"),
	}
}

// Register creates a staff account and signs it in. The very first account becomes ADMIN.
func (s *authService) Register(req *RegisterRequest) (*LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
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

	roleCode := model.RoleStaff
	if count, err := s.userRepo.Count(); err == nil && count == 0 {
		roleCode = model.RoleAdmin
	}
	role, err := s.roleRepo.FindByCode(roleCode)
	if err != nil {
		return nil, errors.New("default role is not configured")
	}

	user := &model.User{
		Username:   req.Username,
		Email:      req.Email,
		Name:       strings.TrimSpace(req.Name),
		RoleID:     &role.ID,
		IsActive:   true,
		Privileges: role.Privileges,
	}
	user.CreatedBy = req.Username
	user.UpdatedBy = req.Username
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	user.Role = role

	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username), zap.String("role", role.Code))
	return s.issue(user)
}

func (s *authService) Login(login, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByLogin(strings.TrimSpace(login))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// issue rotates the token version, which ends any other session of the user.
func (s *authService) issue(user *model.User) (*LoginResponse, error) {
	version := uuid.New().String()
	if err := s.userRepo.UpdateTokenVersion(user.ID, version); err != nil {
		return nil, errors.New("failed to update session")
	}
	user.TokenVersion = version

	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.Name, user.RoleCode(), user.GetPrivilegeCodes(), version)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func (s *authService) Logout(userID uint) error {
	return s.userRepo.UpdateTokenVersion(userID, uuid.New().String())
}

// Authenticate validates the token and checks it is still the user's current session.
func (s *authService) Authenticate(token string) (*jwt.Claims, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	// privileges may have changed since the token was issued
	claims.Privileges = user.GetPrivilegeCodes()
	claims.RoleCode = user.RoleCode()
	return claims, nil
}

func (s *authService) Me(userID uint) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) UpdateMe(ctx context.Context, userID uint, req *UpdateProfileRequest, avatar *multipart.FileHeader) (*model.UserResponse, error) {
	if err := validator.FirstError(req); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" && email != user.Email {
		taken, err := s.userRepo.ExistsByUsernameOrEmail("", email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUserExists
		}
		user.Email = email
	}
	if req.NewPassword != nil && *req.NewPassword != "" {
		if !user.CheckPassword(req.CurrentPassword) {
			return nil, ErrWrongPassword
		}
		if err := user.SetPassword(*req.NewPassword); err != nil {
			return nil, errors.New("failed to hash password")
		}
	}

	var oldAvatar *string
	if avatar != nil {
		ref, err := storage.Upload(ctx, s.store, avatar, storage.Avatars)
		if err != nil {
			if errors.Is(err, storage.ErrFileTooLarge) || errors.Is(err, storage.ErrFileType) {
				return nil, &ValidationError{Message: err.Error()}
			}
			return nil, err
		}
		oldAvatar = user.Avatar
		user.Avatar = &ref
	}

	user.UpdatedBy = user.Username
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	storage.Replace(ctx, s.store, oldAvatar)

	resp := user.ToResponse()
	return &resp, nil
}

// ResetPassword sets a new password without the old one and ends every session. Maintenance use only.
func (s *authService) ResetPassword(login, newPassword string) error {
	if len(newPassword) < 6 {
		return validationf("password must be at least 6 characters")
	}
	user, err := s.userRepo.FindByLogin(login)
	if err != nil {
		return ErrUserNotFound
	}
	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	if err := s.userRepo.UpdatePassword(user.ID, user.Password); err != nil {
		return err
	}
	return s.userRepo.UpdateTokenVersion(user.ID, uuid.New().String())
}
