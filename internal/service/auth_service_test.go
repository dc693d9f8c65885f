package service

import (
	"testing"
	"time"

	"hlg-fitness/internal/model"
	"hlg-fitness/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func staffUser(t *testing.T) *model.User {
	t.Helper()
	u := &model.User{
		Username:   "ana",
		Email:      "ana@hlg.com",
		Name:       "Ana",
		IsActive:   true,
		Role:       &model.Role{ID: 2, Code: model.RoleStaff},
		Privileges: []model.Privilege{{Code: model.PrivSaleCreate}},
	}
	u.ID = 5
	require.NoError(t, u.SetPassword("secret1"))
	return u
}

func TestLoginIssuesTokenAndRotatesVersion(t *testing.T) {
	users := &mockUserRepo{}
	user := staffUser(t)
	users.On("FindByLogin", "ana@hlg.com").Return(user, nil)
	users.On("UpdateTokenVersion", uint(5), mock.AnythingOfType("string")).Return(nil)

	tokens := jwt.NewManager("k", time.Hour)
	svc := NewAuthService(users, &mockRoleRepo{}, tokens, nil)

	resp, err := svc.Login(" ana@hlg.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, []string{model.PrivSaleCreate}, resp.Privileges)

	claims, err := tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(5), claims.UserID)
	assert.Equal(t, model.RoleStaff, claims.RoleCode)
	assert.Equal(t, user.TokenVersion, claims.TokenVersion)
	users.AssertExpectations(t)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := &mockUserRepo{}
	users.On("FindByLogin", "ana").Return(staffUser(t), nil)
	users.On("FindByLogin", "ghost").Return(nil, gorm.ErrRecordNotFound)
	svc := NewAuthService(users, &mockRoleRepo{}, jwt.NewManager("k", time.Hour), nil)

	_, err := svc.Login("ana", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("ghost", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsReplacedSession(t *testing.T) {
	users := &mockUserRepo{}
	user := staffUser(t)
	user.TokenVersion = "current"
	users.On("FindByID", uint(5)).Return(user, nil)

	tokens := jwt.NewManager("k", time.Hour)
	svc := NewAuthService(users, &mockRoleRepo{}, tokens, nil)

	stale, err := tokens.GenerateToken(5, "ana", "Ana", model.RoleStaff, nil, "old")
	require.NoError(t, err)
	_, err = svc.Authenticate(stale)
	assert.ErrorIs(t, err, ErrSessionReplaced)

	fresh, err := tokens.GenerateToken(5, "ana", "Ana", model.RoleStaff, nil, "current")
	require.NoError(t, err)
	claims, err := svc.Authenticate(fresh)
	require.NoError(t, err)
	assert.Equal(t, []string{model.PrivSaleCreate}, claims.Privileges)
}

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	users := &mockUserRepo{}
	roles := &mockRoleRepo{}
	adminRole := &model.Role{ID: 1, Code: model.RoleAdmin, Privileges: []model.Privilege{{Code: model.PrivUserCreate}}}

	users.On("ExistsByUsernameOrEmail", "maria", "maria@hlg.com", uint(0)).Return(false, nil)
	users.On("Count").Return(int64(0), nil)
	roles.On("FindByCode", model.RoleAdmin).Return(adminRole, nil)
	users.On("Create", mock.AnythingOfType("*model.User")).Return(nil)
	users.On("UpdateTokenVersion", mock.Anything, mock.Anything).Return(nil)

	svc := NewAuthService(users, roles, jwt.NewManager("k", time.Hour), nil)
	resp, err := svc.Register(&RegisterRequest{
		Username:        "maria",
		Email:           "Maria@HLG.com",
		Name:            "Maria",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, resp.Role.Code)
	assert.Equal(t, "maria@hlg.com", resp.User.Email)
	assert.NotEmpty(t, resp.Token)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockRoleRepo{}, jwt.NewManager("k", time.Hour), nil)

	_, err := svc.Register(&RegisterRequest{Username: "maria", Email: "m@hlg.com", Name: "M", Password: "secret1", ConfirmPassword: "other"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "ConfirmPassword must match Password")

	_, err = svc.Register(&RegisterRequest{Username: "maria", Email: "m@hlg.com", Name: "M", Password: "123", ConfirmPassword: "123"})
	require.ErrorAs(t, err, &vErr)
}

func TestRegisterDuplicate(t *testing.T) {
	users := &mockUserRepo{}
	users.On("ExistsByUsernameOrEmail", "maria", "m@hlg.com", uint(0)).Return(true, nil)
	svc := NewAuthService(users, &mockRoleRepo{}, jwt.NewManager("k", time.Hour), nil)

	_, err := svc.Register(&RegisterRequest{Username: "maria", Email: "m@hlg.com", Name: "M", Password: "secret1", ConfirmPassword: "secret1"})
	assert.ErrorIs(t, err, ErrUserExists)
}
