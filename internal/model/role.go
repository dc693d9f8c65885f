package model

import "strings"

type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // ADMIN, STAFF
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

var DefaultRoles = []Role{
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Full access including user management",
	},
	{
		Code:        RoleStaff,
		Name:        "Staff",
		Description: "Store floor access: catalog, customers, sales and reports",
	},
}

// DefaultPrivilegeCodes returns the privilege codes a new user of the given role starts with.
func DefaultPrivilegeCodes(roleCode string) []string {
	var codes []string
	for _, p := range DefaultPrivileges {
		if roleCode != RoleAdmin && strings.HasPrefix(p.Code, "user:") {
			continue
		}
		codes = append(codes, p.Code)
	}
	return codes
}

