// models/user.go
package models

import (
	"strings"
	"time"

	"motoshop-backend/utils"

	"gorm.io/gorm"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// User is either a back-office admin or a customer.
type User struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Email         string `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Password      string `gorm:"not null" json:"-"`
	Name          string `gorm:"not null" json:"name"`
	Phone         string `gorm:"size:32" json:"phone"`
	VehicleNumber string `gorm:"size:32" json:"vehicleNumber"`

	Role string `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`

	LastLogin *time.Time `json:"lastLogin,omitempty"`
	IsActive  bool       `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Hash the plain-text password before creating
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
