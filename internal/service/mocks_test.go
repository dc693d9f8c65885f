package service

import (
	"time"

	"hlg-fitness/internal/model"
	"hlg-fitness/internal/repository"

	"github.com/stretchr/testify/mock"
)

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Create(product *model.Product) error {
	return m.Called(product).Error(0)
}

func (m *mockProductRepo) FindAll(filter repository.ProductFilter) ([]model.Product, error) {
	args := m.Called(filter)
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *mockProductRepo) FindByID(id uint) (*model.Product, error) {
	args := m.Called(id)
	if p := args.Get(0); p != nil {
		return p.(*model.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductRepo) FindLowStock() ([]model.Product, error) {
	args := m.Called()
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *mockProductRepo) CountLowStock() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProductRepo) Count() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProductRepo) Update(product *model.Product) error {
	return m.Called(product).Error(0)
}

func (m *mockProductRepo) Delete(id uint, deletedBy string) error {
	return m.Called(id, deletedBy).Error(0)
}

type mockCustomerRepo struct {
	mock.Mock
}

func (m *mockCustomerRepo) Create(customer *model.Customer) error {
	return m.Called(customer).Error(0)
}

func (m *mockCustomerRepo) FindAll(query string) ([]model.Customer, error) {
	args := m.Called(query)
	return args.Get(0).([]model.Customer), args.Error(1)
}

func (m *mockCustomerRepo) FindByID(id uint) (*model.Customer, error) {
	args := m.Called(id)
	if c := args.Get(0); c != nil {
		return c.(*model.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCustomerRepo) CountCreatedBetween(start, end time.Time) (int64, error) {
	args := m.Called(start, end)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCustomerRepo) Update(customer *model.Customer) error {
	return m.Called(customer).Error(0)
}

func (m *mockCustomerRepo) Delete(id uint) error {
	return m.Called(id).Error(0)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByLogin(login string) (*model.User, error) {
	args := m.Called(login)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) FindByID(id uint) (*model.User, error) {
	args := m.Called(id)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) ExistsByUsernameOrEmail(username, email string, excludeID uint) (bool, error) {
	args := m.Called(username, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) Count() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserRepo) Create(user *model.User) error {
	return m.Called(user).Error(0)
}

func (m *mockUserRepo) Update(user *model.User) error {
	return m.Called(user).Error(0)
}

func (m *mockUserRepo) Delete(id uint) error {
	return m.Called(id).Error(0)
}

func (m *mockUserRepo) UpdatePassword(userID uint, hashedPassword string) error {
	return m.Called(userID, hashedPassword).Error(0)
}

func (m *mockUserRepo) UpdatePrivileges(userID uint, privileges []model.Privilege) error {
	return m.Called(userID, privileges).Error(0)
}

func (m *mockUserRepo) FindAll() ([]model.User, error) {
	args := m.Called()
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *mockUserRepo) UpdateTokenVersion(userID uint, version string) error {
	return m.Called(userID, version).Error(0)
}

type mockRoleRepo struct {
	mock.Mock
}

func (m *mockRoleRepo) FindAll() ([]model.Role, error) {
	args := m.Called()
	return args.Get(0).([]model.Role), args.Error(1)
}

func (m *mockRoleRepo) FindByID(id uint) (*model.Role, error) {
	args := m.Called(id)
	if r := args.Get(0); r != nil {
		return r.(*model.Role), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRoleRepo) FindByCode(code string) (*model.Role, error) {
	args := m.Called(code)
	if r := args.Get(0); r != nil {
		return r.(*model.Role), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRoleRepo) SeedDefaults() error {
	return m.Called().Error(0)
}
