package repositories

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"edumarket/internal/models"

	"github.com/google/uuid"
)

const (
	// ListingsKey holds the listing registry.
	ListingsKey = "edumarket_listings"

	listingsVersion = 1
)

// KVListingRepository is a KVStore implementation of ListingRepository.
type KVListingRepository struct {
	listings registry[[]models.Listing]
}

// NewKVListingRepository creates a new instance of KVListingRepository.
func NewKVListingRepository(kv KVStore) *KVListingRepository {
	return &KVListingRepository{
		listings: registry[[]models.Listing]{
			kv:      kv,
			key:     ListingsKey,
			version: listingsVersion,
			migrations: map[int]migration{
				0: migrateLegacyListings,
			},
		},
	}
}

// GetAll returns every listing in insertion order.
func (r *KVListingRepository) GetAll() ([]models.Listing, error) {
	listings, err := r.listings.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}
	return listings, nil
}

// GetByID returns a listing by its ID.
func (r *KVListingRepository) GetByID(id string) (*models.Listing, error) {
	listings, err := r.listings.load()
	if err != nil {
		return nil, fmt.Errorf("failed to get listing by ID %s: %w", id, err)
	}
	for i := range listings {
		if listings[i].ID == id {
			return &listings[i], nil
		}
	}
	return nil, fmt.Errorf("listing with ID %s: %w", id, ErrNotFound)
}

// Create appends a listing, generating its ID when empty.
func (r *KVListingRepository) Create(listing *models.Listing) error {
	listings, err := r.listings.load()
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	listings = append(listings, *listing)
	if err := r.listings.save(listings); err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// Update merges a partial update into an existing listing.
func (r *KVListingRepository) Update(id string, update models.ListingUpdate) (*models.Listing, error) {
	listings, err := r.listings.load()
	if err != nil {
		return nil, fmt.Errorf("failed to update listing %s: %w", id, err)
	}
	for i := range listings {
		if listings[i].ID != id {
			continue
		}
		update.Apply(&listings[i])
		if err := r.listings.save(listings); err != nil {
			return nil, fmt.Errorf("failed to update listing %s: %w", id, err)
		}
		updated := listings[i]
		return &updated, nil
	}
	return nil, fmt.Errorf("listing with ID %s not found for update: %w", id, ErrNotFound)
}

// Delete removes a listing. A missing ID is not an error.
func (r *KVListingRepository) Delete(id string) error {
	listings, err := r.listings.load()
	if err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", id, err)
	}
	kept := listings[:0]
	for _, l := range listings {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	if err := r.listings.save(kept); err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", id, err)
	}
	return nil
}

// legacyListing is the unversioned record shape, where notes reused the author
// field for "course - semester" and appended course details to the description.
type legacyListing struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"sellerId"`
	SellerName  string    `json:"sellerName"`
	SellerEmail string    `json:"sellerEmail"`
	SellerPhone string    `json:"sellerPhone"`
	SellerUPI   string    `json:"sellerUPI"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Subject     string    `json:"subject"`
	Condition   string    `json:"condition"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	Sold        bool      `json:"sold"`
}

const noteTrailer = "\n\nCourse: "

func migrateLegacyListings(data json.RawMessage) (json.RawMessage, error) {
	var legacy []legacyListing
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}
	listings := make([]models.Listing, 0, len(legacy))
	for _, l := range legacy {
		listing := models.Listing{
			ID:          l.ID,
			Kind:        models.KindBook,
			SellerID:    l.SellerID,
			SellerName:  l.SellerName,
			SellerEmail: l.SellerEmail,
			SellerPhone: l.SellerPhone,
			SellerUPI:   l.SellerUPI,
			Title:       l.Title,
			Subject:     l.Subject,
			Condition:   models.Condition(l.Condition),
			Price:       int64(math.Round(l.Price)),
			Description: l.Description,
			Images:      l.Images,
			CreatedAt:   l.CreatedAt,
			Sold:        l.Sold,
			Book:        &models.BookDetails{Author: l.Author},
		}
		if note, description, ok := parseNoteTrailer(l.Description); ok {
			listing.Kind = models.KindNote
			listing.Book = nil
			listing.Note = note
			listing.Description = description
		}
		listings = append(listings, listing)
	}
	return json.Marshal(listings)
}

// parseNoteTrailer splits "<text>\n\nCourse: c\nSemester: s\nUniversity: u".
func parseNoteTrailer(description string) (*models.NoteDetails, string, bool) {
	idx := strings.LastIndex(description, noteTrailer)
	if idx < 0 {
		return nil, description, false
	}
	note := &models.NoteDetails{}
	seenSemester := false
	for _, line := range strings.Split(description[idx+2:], "\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "Course":
			note.Course = value
		case "Semester":
			note.Semester = value
			seenSemester = true
		case "University":
			note.University = value
		}
	}
	if !seenSemester {
		return nil, description, false
	}
	return note, description[:idx], true
}
