package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davemoreau/maplewood-commerce/pkg/db/models"
	"github.com/davemoreau/maplewood-commerce/pkg/types"
)

// Repository exposes user-related persistence operations, including the
// JSONB address book stored on the user row.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repo bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// AppendAddress adds a shipping address to the user's address book unless an
// entry with the same street, city, state and zip already exists. The first
// address a user ever saves becomes their default. Returns whether a new
// entry was written.
func (r *Repository) AppendAddress(ctx context.Context, userID uuid.UUID, address types.SavedAddress) (bool, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, existing := range user.Addresses {
		if existing.SameLocation(address) {
			return false, nil
		}
	}

	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	if address.CreatedAt.IsZero() {
		address.CreatedAt = time.Now().UTC()
	}
	if len(user.Addresses) == 0 {
		address.IsDefault = true
	}

	updated := append(append(types.SavedAddresses{}, user.Addresses...), address)
	err = r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("addresses", updated).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListAddresses returns the user's saved addresses.
func (r *Repository) ListAddresses(ctx context.Context, userID uuid.UUID) (types.SavedAddresses, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Addresses == nil {
		return types.SavedAddresses{}, nil
	}
	return user.Addresses, nil
}

// RemoveAddress deletes one saved address. When the removed entry was the
// default, the oldest remaining address inherits it. Returns whether an
// entry was removed.
func (r *Repository) RemoveAddress(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}

	updated := make(types.SavedAddresses, 0, len(user.Addresses))
	removedDefault := false
	found := false
	for _, existing := range user.Addresses {
		if existing.ID == addressID {
			found = true
			removedDefault = existing.IsDefault
			continue
		}
		updated = append(updated, existing)
	}
	if !found {
		return false, nil
	}
	if removedDefault && len(updated) > 0 {
		updated[0].IsDefault = true
	}

	err = r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("addresses", updated).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetDefaultAddress marks one saved address as the default. Returns whether
// the address was found.
func (r *Repository) SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}

	found := false
	updated := make(types.SavedAddresses, 0, len(user.Addresses))
	for _, existing := range user.Addresses {
		existing.IsDefault = existing.ID == addressID
		if existing.IsDefault {
			found = true
		}
		updated = append(updated, existing)
	}
	if !found {
		return false, nil
	}

	err = r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("addresses", updated).Error
	if err != nil {
		return false, err
	}
	return true, nil
}
