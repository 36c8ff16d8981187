package models

// PurchaseHandoff is what a buyer needs to pay a seller through a UPI app.
// The payment itself happens outside the marketplace and is never confirmed.
type PurchaseHandoff struct {
	ListingID      string `json:"listingId"`
	Title          string `json:"title"`
	Amount         int64  `json:"amount"`
	FormattedPrice string `json:"formattedPrice"`
	PayeeHandle    string `json:"payeeHandle"`
	Link           string `json:"link"`
}
