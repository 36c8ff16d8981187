package repositories

import "edumarket/internal/models"

// AccountRepository defines the interface for account data access.
type AccountRepository interface {
	GetAll() ([]models.Account, error)
	GetByEmail(email string) (*models.Account, error)
	GetByID(id string) (*models.Account, error)
	Create(account *models.Account) error
}

// SessionRepository defines the interface for the current-session pointer.
type SessionRepository interface {
	// Get returns nil when nobody is signed in.
	Get() (*models.Session, error)
	Set(session models.Session) error
	Clear() error
}
