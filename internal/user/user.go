package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role represents the set of possible user roles.
// @Description user role type: "admin" or "user"
type Role string

const (
	// Admin has full access
	Admin Role = "admin"
	// User has limited access
	User Role = "user"
)

// Account is a registered identity. Created on registration and never
// mutated afterwards by the authentication flows.
// swagger:model UserResponse
type Account struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name" gorm:"not null"`
	Role         Role      `json:"role" gorm:"type:text;not null;default:'user'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Account) TableName() string { return "users" }

// BeforeCreate assigns a random id so callers know it before the insert returns.
func (a *Account) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// NewAccount initializes an Account with the default User role.
func NewAccount(email, passwordHash, name string) *Account {
	return &Account{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         User,
	}
}
