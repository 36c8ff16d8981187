package services

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"edumarket/internal/models"
	"edumarket/internal/repositories"
)

// ListingService handles business logic related to marketplace listings.
type ListingService struct {
	repo      repositories.ListingRepository
	publisher EventPublisher
	now       func() time.Time
	mu        sync.Mutex
}

// ListingOption configures a ListingService.
type ListingOption func(*ListingService)

// WithClock overrides the source of creation timestamps.
func WithClock(now func() time.Time) ListingOption {
	return func(s *ListingService) {
		s.now = now
	}
}

// NewListingService creates a new ListingService. publisher may be nil.
func NewListingService(repo repositories.ListingRepository, publisher EventPublisher, opts ...ListingOption) *ListingService {
	s := &ListingService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateListing stores a new unsold listing and assigns its ID and creation time.
func (s *ListingService) CreateListing(listing *models.Listing) error {
	if listing.Price <= 0 {
		return ErrInvalidPrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	listing.ID = ""
	listing.CreatedAt = s.now().UTC()
	listing.Sold = false
	switch listing.Kind {
	case models.KindNote:
		listing.Book = nil
		if listing.Note == nil {
			listing.Note = &models.NoteDetails{}
		}
	default:
		listing.Kind = models.KindBook
		listing.Note = nil
		if listing.Book == nil {
			listing.Book = &models.BookDetails{}
		}
	}

	if err := s.repo.Create(listing); err != nil {
		return err
	}

	publishEvent(s.publisher, EventListingCreated, map[string]any{
		"listingID": listing.ID,
		"sellerID":  listing.SellerID,
		"kind":      listing.Kind,
		"price":     listing.Price,
	})
	return nil
}

// GetListing retrieves a single listing by its ID.
func (s *ListingService) GetListing(id string) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.GetByID(id)
}

// ListActive returns unsold listings, newest first.
func (s *ListingService) ListActive() []models.Listing {
	active := make([]models.Listing, 0)
	for _, l := range s.loadAll() {
		if !l.Sold {
			active = append(active, l)
		}
	}
	return sortNewestFirst(active)
}

// ListBySeller returns every listing of a seller, sold or not, newest first.
func (s *ListingService) ListBySeller(sellerID string) []models.Listing {
	owned := make([]models.Listing, 0)
	for _, l := range s.loadAll() {
		if l.SellerID == sellerID {
			owned = append(owned, l)
		}
	}
	return sortNewestFirst(owned)
}

// Search returns active listings whose title, author or course, subject or
// description contains query, ignoring case. An empty query matches everything.
func (s *ListingService) Search(query string) []models.Listing {
	matches := make([]models.Listing, 0)
	for _, l := range s.ListActive() {
		if l.Matches(query) {
			matches = append(matches, l)
		}
	}
	return matches
}

// UpdateListing merges a partial update into an existing listing.
func (s *ListingService) UpdateListing(id string, update models.ListingUpdate) (*models.Listing, error) {
	if update.Price != nil && *update.Price <= 0 {
		return nil, ErrInvalidPrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Update(id, update)
}

// MarkSold flags a listing as sold, removing it from the active set.
func (s *ListingService) MarkSold(id string) (*models.Listing, error) {
	sold := true
	listing, err := s.UpdateListing(id, models.ListingUpdate{Sold: &sold})
	if err != nil {
		return nil, err
	}

	publishEvent(s.publisher, EventListingSold, map[string]any{
		"listingID": listing.ID,
		"sellerID":  listing.SellerID,
	})
	return listing, nil
}

// DeleteListing permanently removes a listing. Deleting a missing ID succeeds.
func (s *ListingService) DeleteListing(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete listing %s: %w", id, err)
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}

	publishEvent(s.publisher, EventListingDeleted, map[string]any{
		"listingID": existing.ID,
		"sellerID":  existing.SellerID,
	})
	return nil
}

// loadAll reads the registry; unreadable state reads as empty.
func (s *ListingService) loadAll() []models.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()

	listings, err := s.repo.GetAll()
	if err != nil {
		log.Printf("Reading listings failed, treating as empty: %v", err)
		return nil
	}
	return listings
}

func sortNewestFirst(listings []models.Listing) []models.Listing {
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
	return listings
}
