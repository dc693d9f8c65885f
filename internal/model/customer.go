package model

type Customer struct {
	BaseModel
	Name    string  `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	Email   *string `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`
	Phone   *string `gorm:"type:varchar(30)" json:"phone" validate:"omitempty,max=30"`
	Address *string `gorm:"type:text" json:"address"`
}
