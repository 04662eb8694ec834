package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Amedjranamen/IM/internal/db"
	"github.com/Amedjranamen/IM/internal/models"
)

// ISocialService defines the interface for likes, comments and favorites.
type ISocialService interface {
	CountLikes(ctx context.Context, listingID string) (int64, error)
	CountComments(ctx context.Context, listingID string) (int64, error)
	AttachCounts(ctx context.Context, listings []models.Listing) error
	ToggleLike(ctx context.Context, listingID, userID string) (liked bool, likesCount int64, err error)
	IsLiked(ctx context.Context, listingID, userID string) (bool, error)
	ListComments(ctx context.Context, listingID string) ([]models.Comment, error)
	CreateComment(ctx context.Context, listingID string, author *models.User, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, commentID, userID string) error
	AddFavorite(ctx context.Context, listingID, userID string) error
	RemoveFavorite(ctx context.Context, listingID, userID string) error
	IsFavorite(ctx context.Context, listingID, userID string) (bool, error)
	ListFavorites(ctx context.Context, userID string) ([]models.Listing, error)
}

const (
	likesCollection     = "likes"
	commentsCollection  = "comments"
	favoritesCollection = "favorites"
)

// socialService implements ISocialService.
type socialService struct {
	db *mongo.Database
}

// NewSocialService creates a new SocialService.
func NewSocialService(db *mongo.Database) ISocialService {
	return &socialService{db: db}
}

// CountLikes returns the live like count for a listing.
func (s *socialService) CountLikes(ctx context.Context, listingID string) (int64, error) {
	count, err := s.db.Collection(likesCollection).CountDocuments(ctx, bson.M{"listing_id": listingID})
	if err != nil {
		return 0, fmt.Errorf("error counting likes for listing %s: %w", listingID, err)
	}
	return count, nil
}

// CountComments returns the live comment count for a listing.
func (s *socialService) CountComments(ctx context.Context, listingID string) (int64, error) {
	count, err := s.db.Collection(commentsCollection).CountDocuments(ctx, bson.M{"listing_id": listingID})
	if err != nil {
		return 0, fmt.Errorf("error counting comments for listing %s: %w", listingID, err)
	}
	return count, nil
}

// AttachCounts fills LikesCount and CommentsCount on every listing in place.
// Counts are recomputed per listing per call and never persisted.
func (s *socialService) AttachCounts(ctx context.Context, listings []models.Listing) error {
	for i := range listings {
		likes, err := s.CountLikes(ctx, listings[i].ID)
		if err != nil {
			return err
		}
		comments, err := s.CountComments(ctx, listings[i].ID)
		if err != nil {
			return err
		}
		listings[i].LikesCount = likes
		listings[i].CommentsCount = comments
	}
	return nil
}

// listingExists checks that a listing document exists (published or not).
func (s *socialService) listingExists(ctx context.Context, listingID string) error {
	err := s.db.Collection(listingsCollection).FindOne(ctx, bson.M{"_id": listingID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return mongo.ErrNoDocuments
		}
		return fmt.Errorf("error checking listing %s: %w", listingID, err)
	}
	return nil
}

// ToggleLike flips the like state for the (listing, user) pair and returns the
// new state with the freshly recomputed count.
func (s *socialService) ToggleLike(ctx context.Context, listingID, userID string) (bool, int64, error) {
	if err := s.listingExists(ctx, listingID); err != nil {
		return false, 0, err
	}

	collection := s.db.Collection(likesCollection)
	pair := bson.M{"listing_id": listingID, "user_id": userID}

	var liked bool
	var existing models.Like
	err := collection.FindOne(ctx, pair).Decode(&existing)
	switch {
	case err == nil:
		// Unlike
		if _, err := collection.DeleteOne(ctx, bson.M{"_id": existing.ID}); err != nil {
			return false, 0, fmt.Errorf("failed to delete like %s: %w", existing.ID, err)
		}
		liked = false
	case errors.Is(err, mongo.ErrNoDocuments):
		like := models.Like{
			ID:        uuid.NewString(),
			ListingID: listingID,
			UserID:    userID,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := collection.InsertOne(ctx, like); err != nil {
			if db.IsMongoDuplicateKeyError(err) {
				// A concurrent toggle inserted the pair first; the row exists,
				// which is the state this call was trying to reach.
				liked = true
				break
			}
			return false, 0, fmt.Errorf("failed to insert like for listing %s: %w", listingID, err)
		}
		liked = true
	default:
		return false, 0, fmt.Errorf("error checking like for listing %s: %w", listingID, err)
	}

	count, err := s.CountLikes(ctx, listingID)
	if err != nil {
		return liked, 0, err
	}
	return liked, count, nil
}

// IsLiked reports whether the user currently likes the listing.
func (s *socialService) IsLiked(ctx context.Context, listingID, userID string) (bool, error) {
	err := s.db.Collection(likesCollection).FindOne(ctx, bson.M{"listing_id": listingID, "user_id": userID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("error checking like state for listing %s: %w", listingID, err)
	}
	return true, nil
}

// ListComments returns the comments of a listing, newest first.
func (s *socialService) ListComments(ctx context.Context, listingID string) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(commentsCollection).Find(ctx, bson.M{"listing_id": listingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments for listing %s: %w", listingID, err)
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	return comments, nil
}

// CreateComment adds a comment to an existing listing.
func (s *socialService) CreateComment(ctx context.Context, listingID string, author *models.User, text string) (*models.Comment, error) {
	if err := s.listingExists(ctx, listingID); err != nil {
		return nil, err
	}

	collection := s.db.Collection(commentsCollection)
	var comment *models.Comment
	operation := func() error {
		comment = &models.Comment{
			ID:         uuid.NewString(),
			ListingID:  listingID,
			AuthorID:   author.ID,
			AuthorName: author.Name,
			Text:       text,
			CreatedAt:  time.Now().UTC(),
		}
		_, insertErr := collection.InsertOne(ctx, comment)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert comment on listing %s: %w", listingID, err)
	}
	return comment, nil
}

// DeleteComment removes a comment. Only its author may delete it.
func (s *socialService) DeleteComment(ctx context.Context, commentID, userID string) error {
	collection := s.db.Collection(commentsCollection)

	var comment models.Comment
	err := collection.FindOne(ctx, bson.M{"_id": commentID}).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return mongo.ErrNoDocuments
		}
		return fmt.Errorf("error finding comment %s: %w", commentID, err)
	}
	if comment.AuthorID != userID {
		return ErrForbidden
	}

	if _, err := collection.DeleteOne(ctx, bson.M{"_id": commentID}); err != nil {
		return fmt.Errorf("failed to delete comment %s: %w", commentID, err)
	}
	return nil
}

// AddFavorite bookmarks a listing for the user. Duplicate adds are an error,
// enforced both by the pre-check and the unique pair index.
func (s *socialService) AddFavorite(ctx context.Context, listingID, userID string) error {
	if err := s.listingExists(ctx, listingID); err != nil {
		return err
	}

	collection := s.db.Collection(favoritesCollection)
	pair := bson.M{"listing_id": listingID, "user_id": userID}

	err := collection.FindOne(ctx, pair).Err()
	if err == nil {
		return ErrAlreadyFavorited
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("error checking favorite for listing %s: %w", listingID, err)
	}

	favorite := models.Favorite{
		ID:        uuid.NewString(),
		ListingID: listingID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := collection.InsertOne(ctx, favorite); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return ErrAlreadyFavorited
		}
		return fmt.Errorf("failed to insert favorite for listing %s: %w", listingID, err)
	}
	return nil
}

// RemoveFavorite deletes the favorite pair, failing if none exists.
func (s *socialService) RemoveFavorite(ctx context.Context, listingID, userID string) error {
	result, err := s.db.Collection(favoritesCollection).DeleteOne(ctx, bson.M{"listing_id": listingID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete favorite for listing %s: %w", listingID, err)
	}
	if result.DeletedCount == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// IsFavorite reports whether the user has bookmarked the listing.
func (s *socialService) IsFavorite(ctx context.Context, listingID, userID string) (bool, error) {
	err := s.db.Collection(favoritesCollection).FindOne(ctx, bson.M{"listing_id": listingID, "user_id": userID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("error checking favorite state for listing %s: %w", listingID, err)
	}
	return true, nil
}

// ListFavorites resolves the user's favorites to published listings, with
// live counts attached.
func (s *socialService) ListFavorites(ctx context.Context, userID string) ([]models.Listing, error) {
	cursor, err := s.db.Collection(favoritesCollection).Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var favorites []models.Favorite
	if err := cursor.All(ctx, &favorites); err != nil {
		return nil, fmt.Errorf("failed to decode favorites: %w", err)
	}

	listings := []models.Listing{}
	if len(favorites) == 0 {
		return listings, nil
	}

	listingIDs := make([]string, 0, len(favorites))
	for _, fav := range favorites {
		listingIDs = append(listingIDs, fav.ListingID)
	}

	listCursor, err := s.db.Collection(listingsCollection).Find(ctx, bson.M{
		"_id":          bson.M{"$in": listingIDs},
		"is_published": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve favorite listings: %w", err)
	}
	defer listCursor.Close(ctx)

	if err := listCursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode favorite listings: %w", err)
	}

	if err := s.AttachCounts(ctx, listings); err != nil {
		return nil, err
	}
	return listings, nil
}
