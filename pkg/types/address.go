package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SavedAddress is one entry in a user's address book, stored as JSONB on the
// user row.
type SavedAddress struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"full_name"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	ZipCode     string    `json:"zip_code"`
	Country     string    `json:"country"`
	Landmark    string    `json:"landmark,omitempty"`
	AddressType string    `json:"address_type,omitempty"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
}

// SavedAddresses exists so gorm's json serializer has a concrete slice type.
type SavedAddresses []SavedAddress

// SameLocation reports whether two addresses point at the same place. The
// address book dedupes on street, city, state and zip; names and phones are
// allowed to differ.
func (a SavedAddress) SameLocation(other SavedAddress) bool {
	return foldAddr(a.Address) == foldAddr(other.Address) &&
		foldAddr(a.City) == foldAddr(other.City) &&
		foldAddr(a.State) == foldAddr(other.State) &&
		foldAddr(a.ZipCode) == foldAddr(other.ZipCode)
}

func foldAddr(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
