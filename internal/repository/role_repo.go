package repository

import (
	"errors"

	"hlg-fitness/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll() ([]model.Role, error)
	FindByID(id uint) (*model.Role, error)
	FindByCode(code string) (*model.Role, error)
	SeedDefaults() error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll() ([]model.Role, error) {
	var roles []model.Role
	err := r.db.Preload("Privileges").Order("id ASC").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByID(id uint) (*model.Role, error) {
	var role model.Role
	if err := r.db.Preload("Privileges").First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByCode(code string) (*model.Role, error) {
	var role model.Role
	if err := r.db.Preload("Privileges").Where("code = ?", code).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// SeedDefaults creates missing roles and links each to its default privilege set.
// Privileges must be seeded first.
func (r *roleRepo) SeedDefaults() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, defaultRole := range model.DefaultRoles {
			role := defaultRole
			var existing model.Role
			err := tx.Where("code = ?", role.Code).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&role).Error; err != nil {
					return err
				}
				existing = role
			case err != nil:
				return err
			}

			var privileges []model.Privilege
			if err := tx.Where("code IN ?", model.DefaultPrivilegeCodes(role.Code)).Find(&privileges).Error; err != nil {
				return err
			}
			if err := tx.Model(&existing).Association("Privileges").Replace(privileges); err != nil {
				return err
			}
		}
		return nil
	})
}
