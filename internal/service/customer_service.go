package service

import (
	"errors"
	"strings"

	"hlg-fitness/internal/model"
	"hlg-fitness/internal/repository"
	"hlg-fitness/pkg/validator"

	"gorm.io/gorm"
)

type CustomerInput struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,max=30"`
	Address *string `json:"address"`
}

type CustomerService interface {
	Create(req *CustomerInput, actor string) (*model.Customer, error)
	Update(id uint, req *CustomerInput, actor string) (*model.Customer, error)
	Delete(id uint) error
	GetAll(query string) ([]model.Customer, error)
	GetByID(id uint) (*model.Customer, error)
}

type customerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) CustomerService {
	return &customerService{repo: repo}
}

// blankToNil drops empty optional strings so they are stored as NULL.
func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *customerService) normalize(req *CustomerInput) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = blankToNil(req.Email)
	req.Phone = blankToNil(req.Phone)
	req.Address = blankToNil(req.Address)
	if err := validator.FirstError(req); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

func (s *customerService) Create(req *CustomerInput, actor string) (*model.Customer, error) {
	if err := s.normalize(req); err != nil {
		return nil, err
	}
	customer := &model.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
	customer.CreatedBy = actor
	customer.UpdatedBy = actor
	if err := s.repo.Create(customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) Update(id uint, req *CustomerInput, actor string) (*model.Customer, error) {
	if err := s.normalize(req); err != nil {
		return nil, err
	}
	customer, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	customer.Name = req.Name
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Address = req.Address
	customer.UpdatedBy = actor
	if err := s.repo.Update(customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) Delete(id uint) error {
	err := s.repo.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCustomerNotFound
	}
	return err
}

func (s *customerService) GetAll(query string) ([]model.Customer, error) {
	return s.repo.FindAll(query)
}

func (s *customerService) GetByID(id uint) (*model.Customer, error) {
	customer, err := s.repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	return customer, err
}
