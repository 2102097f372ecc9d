package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/davemoreau/maplewood-commerce/pkg/db/models"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	"github.com/davemoreau/maplewood-commerce/pkg/types"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID            `json:"id"`
	Email       string               `json:"email"`
	FullName    string               `json:"full_name"`
	Phone       *string              `json:"phone,omitempty"`
	Role        enums.UserRole       `json:"role"`
	IsActive    bool                 `json:"is_active"`
	LastLoginAt *time.Time           `json:"last_login_at,omitempty"`
	Addresses   types.SavedAddresses `json:"addresses"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FullName     string
	Phone        *string
	Role         enums.UserRole
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	addresses := u.Addresses
	if addresses == nil {
		addresses = types.SavedAddresses{}
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Phone:       u.Phone,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		Addresses:   append(types.SavedAddresses(nil), addresses...),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.RoleCustomer
	}

	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FullName:     c.FullName,
		Phone:        c.Phone,
		Role:         role,
		IsActive:     true,
		Addresses:    types.SavedAddresses{},
	}
}
