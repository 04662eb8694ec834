package models

import (
	"time"
)

// Listing types.
const (
	ListingTypeSale = "sale"
	ListingTypeRent = "rent"
)

// DefaultCurrency is applied to listings created without an explicit currency.
const DefaultCurrency = "XAF"

// Listing represents a real-estate listing.
// LikesCount and CommentsCount are derived: they are recomputed from the
// likes/comments collections on every read and never persisted.
type Listing struct {
	ID           string    `bson:"_id" json:"id"`
	OwnerID      string    `bson:"owner_id" json:"owner_id"`
	OwnerName    string    `bson:"owner_name" json:"owner_name"`
	Title        string    `bson:"title" json:"title"`
	Description  string    `bson:"description" json:"description"`
	ListingType  string    `bson:"listing_type" json:"listing_type"` // "sale" or "rent"
	Price        float64   `bson:"price" json:"price"`
	Currency     string    `bson:"currency" json:"currency"`
	City         string    `bson:"city" json:"city"`
	Neighborhood *string   `bson:"neighborhood,omitempty" json:"neighborhood,omitempty"`
	Address      *string   `bson:"address,omitempty" json:"address,omitempty"`
	Lat          *float64  `bson:"lat,omitempty" json:"lat,omitempty"`
	Lon          *float64  `bson:"lon,omitempty" json:"lon,omitempty"`
	Surface      *int      `bson:"surface,omitempty" json:"surface,omitempty"`
	Rooms        *int      `bson:"rooms,omitempty" json:"rooms,omitempty"`
	Images       []string  `bson:"images" json:"images"`
	IsPublished  bool      `bson:"is_published" json:"is_published"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`

	LikesCount    int64 `bson:"-" json:"likes_count"`
	CommentsCount int64 `bson:"-" json:"comments_count"`
}

// ListingCreate is the creation request payload. Owner identity, currency
// default and publication state are stamped by the service.
type ListingCreate struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description" binding:"required"`
	ListingType  string   `json:"listing_type" binding:"required,oneof=sale rent"`
	Price        float64  `json:"price" binding:"required,gte=0"`
	City         string   `json:"city" binding:"required"`
	Neighborhood *string  `json:"neighborhood"`
	Address      *string  `json:"address"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	Surface      *int     `json:"surface"`
	Rooms        *int     `json:"rooms"`
}

// ListingUpdate is the partial-update payload: only non-nil fields are merged.
type ListingUpdate struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price"`
	City         *string  `json:"city"`
	Neighborhood *string  `json:"neighborhood"`
	Address      *string  `json:"address"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	Surface      *int     `json:"surface"`
	Rooms        *int     `json:"rooms"`
}
