package models

import (
	"time"
)

// Comment is a user comment on a listing.
type Comment struct {
	ID         string    `bson:"_id" json:"id"`
	ListingID  string    `bson:"listing_id" json:"listing_id"`
	AuthorID   string    `bson:"author_id" json:"author_id"`
	AuthorName string    `bson:"author_name" json:"author_name"`
	Text       string    `bson:"text" json:"text"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// CommentCreate is the comment creation payload.
type CommentCreate struct {
	Text string `json:"text" binding:"required"`
}

// Like marks a listing as liked by a user. At most one like exists per
// (listing_id, user_id) pair, enforced by a unique index.
type Like struct {
	ID        string    `bson:"_id" json:"id"`
	ListingID string    `bson:"listing_id" json:"listing_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Favorite bookmarks a listing for a user. At most one favorite exists per
// (listing_id, user_id) pair, enforced by a unique index.
type Favorite struct {
	ID        string    `bson:"_id" json:"id"`
	ListingID string    `bson:"listing_id" json:"listing_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
