package services

import (
	"fmt"

	"edumarket/internal/models"
	"edumarket/internal/payment"
	"edumarket/internal/repositories"
)

// PurchaseService hands purchases off to external UPI apps.
type PurchaseService struct {
	listingRepo repositories.ListingRepository
	publisher   EventPublisher
	payeeName   string
}

// NewPurchaseService creates a new PurchaseService. publisher may be nil.
func NewPurchaseService(listingRepo repositories.ListingRepository, publisher EventPublisher, payeeName string) *PurchaseService {
	return &PurchaseService{
		listingRepo: listingRepo,
		publisher:   publisher,
		payeeName:   payeeName,
	}
}

// StartPurchase builds the UPI deep link for a listing. buyerID may be empty
// for anonymous buyers. No settlement record is kept.
func (s *PurchaseService) StartPurchase(listingID, buyerID string) (*models.PurchaseHandoff, error) {
	listing, err := s.listingRepo.GetByID(listingID)
	if err != nil {
		return nil, fmt.Errorf("listing %s not available for purchase: %w", listingID, err)
	}
	if listing.Sold {
		return nil, fmt.Errorf("%w: %s", ErrListingSold, listing.Title)
	}
	if listing.SellerUPI == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoPaymentHandle, listing.SellerName)
	}

	handoff := &models.PurchaseHandoff{
		ListingID:      listing.ID,
		Title:          listing.Title,
		Amount:         listing.Price,
		FormattedPrice: payment.FormatPrice(listing.Price),
		PayeeHandle:    listing.SellerUPI,
		Link: payment.BuildUPILink(payment.Request{
			PayeeHandle: listing.SellerUPI,
			PayeeName:   s.payeeName,
			Amount:      listing.Price,
			Title:       listing.Title,
		}),
	}

	publishEvent(s.publisher, EventPurchaseInitiated, map[string]any{
		"listingID": listing.ID,
		"sellerID":  listing.SellerID,
		"buyerID":   buyerID,
		"amount":    listing.Price,
	})
	return handoff, nil
}
