package models

import "gorm.io/gorm"

// User roles recognised by the authorization layer.
const (
	RoleCustomer       = "customer"
	RoleProductManager = "product_manager"
	RoleSalesManager   = "sales_manager"
)

// User represents a user of the store.
type User struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username   string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email      string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Role       string `json:"role" gorm:"type:varchar(30)" validate:"omitempty,oneof=customer product_manager sales_manager"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
