package repositories

import "edumarket/internal/models"

// ListingRepository defines the interface for listing data access.
// GetAll returns records in insertion order.
type ListingRepository interface {
	GetAll() ([]models.Listing, error)
	GetByID(id string) (*models.Listing, error)
	Create(listing *models.Listing) error
	Update(id string, update models.ListingUpdate) (*models.Listing, error)
	Delete(id string) error
}
