package models

import (
	"strings"
	"time"
)

// ListingKind tags the variant of a listing.
type ListingKind string

const (
	KindBook ListingKind = "book"
	KindNote ListingKind = "note"
)

// Condition describes the physical state of the item for sale.
type Condition string

const (
	ConditionNew     Condition = "New"
	ConditionLikeNew Condition = "Like New"
	ConditionGood    Condition = "Good"
	ConditionFair    Condition = "Fair"
)

// Valid reports whether c is one of the known conditions.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair:
		return true
	}
	return false
}

// BookDetails holds the fields only a book listing has.
type BookDetails struct {
	Author string `json:"author"`
}

// NoteDetails holds the fields only a study-notes listing has.
type NoteDetails struct {
	Course     string `json:"course"`
	Semester   string `json:"semester"`
	University string `json:"university"`
}

// Listing represents a book or a set of notes offered for sale.
// Exactly one of Book or Note is set, matching Kind.
type Listing struct {
	ID          string       `json:"id"`
	Kind        ListingKind  `json:"kind"`
	SellerID    string       `json:"sellerId"`
	SellerName  string       `json:"sellerName"`
	SellerEmail string       `json:"sellerEmail"`
	SellerPhone string       `json:"sellerPhone,omitempty"`
	SellerUPI   string       `json:"sellerUPI,omitempty"`
	Title       string       `json:"title"`
	Subject     string       `json:"subject"`
	Condition   Condition    `json:"condition"`
	Price       int64        `json:"price"` // whole rupees
	Description string       `json:"description"`
	Images      []string     `json:"images"` // inline data URIs
	CreatedAt   time.Time    `json:"createdAt"`
	Sold        bool         `json:"sold"`
	Book        *BookDetails `json:"book,omitempty"`
	Note        *NoteDetails `json:"note,omitempty"`
}

// Label returns the author of a book or the "course - semester" line of notes.
func (l Listing) Label() string {
	switch l.Kind {
	case KindNote:
		if l.Note == nil {
			return ""
		}
		if l.Note.Semester == "" {
			return l.Note.Course
		}
		return l.Note.Course + " - " + l.Note.Semester
	default:
		if l.Book == nil {
			return ""
		}
		return l.Book.Author
	}
}

// Matches reports whether the lower-cased query occurs in any searchable field.
// Notes are also searchable by university.
func (l Listing) Matches(query string) bool {
	q := strings.ToLower(query)
	fields := []string{l.Title, l.Label(), l.Subject, l.Description}
	if l.Kind == KindNote && l.Note != nil {
		fields = append(fields, l.Note.University)
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// ListingUpdate carries a partial update. Nil fields are left untouched.
// ID, Kind, SellerID and CreatedAt cannot be changed.
type ListingUpdate struct {
	Title       *string      `json:"title"`
	Subject     *string      `json:"subject"`
	Condition   *Condition   `json:"condition"`
	Price       *int64       `json:"price"`
	Description *string      `json:"description"`
	Images      []string     `json:"images"`
	SellerPhone *string      `json:"sellerPhone"`
	SellerUPI   *string      `json:"sellerUPI"`
	Sold        *bool        `json:"sold"`
	Book        *BookDetails `json:"book"`
	Note        *NoteDetails `json:"note"`
}

// Apply merges u into l. Variant details only apply to the matching kind.
func (u ListingUpdate) Apply(l *Listing) {
	if u.Title != nil {
		l.Title = *u.Title
	}
	if u.Subject != nil {
		l.Subject = *u.Subject
	}
	if u.Condition != nil {
		l.Condition = *u.Condition
	}
	if u.Price != nil {
		l.Price = *u.Price
	}
	if u.Description != nil {
		l.Description = *u.Description
	}
	if u.Images != nil {
		l.Images = append([]string(nil), u.Images...)
	}
	if u.SellerPhone != nil {
		l.SellerPhone = *u.SellerPhone
	}
	if u.SellerUPI != nil {
		l.SellerUPI = *u.SellerUPI
	}
	if u.Sold != nil {
		l.Sold = *u.Sold
	}
	if u.Book != nil && l.Kind == KindBook {
		book := *u.Book
		l.Book = &book
	}
	if u.Note != nil && l.Kind == KindNote {
		note := *u.Note
		l.Note = &note
	}
}
