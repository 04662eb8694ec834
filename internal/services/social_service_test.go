package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Amedjranamen/IM/internal/models"
	"github.com/Amedjranamen/IM/internal/utils"
)

func setupSocialTest(t *testing.T) (*mongo.Database, ISocialService, IListingService, *models.User) {
	db := utils.SetupTestDB(t, "im_test_social",
		usersCollection, listingsCollection, likesCollection, commentsCollection, favoritesCollection)

	userSvc := NewUserService(db)
	socialSvc := NewSocialService(db)
	listingSvc := NewListingService(db, socialSvc)

	owner, err := userSvc.Register(context.Background(), models.UserCreate{
		Email:    "owner@example.com",
		Name:     "Owner",
		Password: "password123",
	})
	require.NoError(t, err)

	return db, socialSvc, listingSvc, owner
}

func createTestListing(t *testing.T, listingSvc IListingService, owner *models.User) *models.Listing {
	listing, err := listingSvc.Create(context.Background(), owner, models.ListingCreate{
		Title:       "Maison a vendre",
		Description: "Belle maison",
		ListingType: models.ListingTypeSale,
		Price:       50000,
		City:        "Libreville",
	})
	require.NoError(t, err)
	return listing
}

func TestSocialService_ToggleLikeRoundtrip(t *testing.T) {
	_, socialSvc, listingSvc, owner := setupSocialTest(t)
	ctx := context.Background()
	listing := createTestListing(t, listingSvc, owner)

	liked, count, err := socialSvc.ToggleLike(ctx, listing.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	isLiked, err := socialSvc.IsLiked(ctx, listing.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, isLiked)

	// Second toggle removes the like
	liked, count, err = socialSvc.ToggleLike(ctx, listing.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), count)

	isLiked, err = socialSvc.IsLiked(ctx, listing.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, isLiked)
}

func TestSocialService_ToggleLikeMissingListing(t *testing.T) {
	_, socialSvc, _, owner := setupSocialTest(t)

	_, _, err := socialSvc.ToggleLike(context.Background(), "missing-listing", owner.ID)
	assert.True(t, errors.Is(err, mongo.ErrNoDocuments))
}

func TestSocialService_Comments(t *testing.T) {
	_, socialSvc, listingSvc, owner := setupSocialTest(t)
	ctx := context.Background()
	listing := createTestListing(t, listingSvc, owner)

	comment, err := socialSvc.CreateComment(ctx, listing.ID, owner, "Interested!")
	require.NoError(t, err)
	assert.Equal(t, owner.Name, comment.AuthorName)

	comments, err := socialSvc.ListComments(ctx, listing.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Interested!", comments[0].Text)

	// Only the author may delete
	err = socialSvc.DeleteComment(ctx, comment.ID, "someone-else")
	assert.True(t, errors.Is(err, ErrForbidden))

	err = socialSvc.DeleteComment(ctx, comment.ID, owner.ID)
	require.NoError(t, err)

	comments, err = socialSvc.ListComments(ctx, listing.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestSocialService_Favorites(t *testing.T) {
	_, socialSvc, listingSvc, owner := setupSocialTest(t)
	ctx := context.Background()
	listing := createTestListing(t, listingSvc, owner)

	err := socialSvc.AddFavorite(ctx, listing.ID, owner.ID)
	require.NoError(t, err)

	// Duplicate add is a conflict
	err = socialSvc.AddFavorite(ctx, listing.ID, owner.ID)
	assert.True(t, errors.Is(err, ErrAlreadyFavorited))

	isFav, err := socialSvc.IsFavorite(ctx, listing.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, isFav)

	favorites, err := socialSvc.ListFavorites(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, listing.ID, favorites[0].ID)

	err = socialSvc.RemoveFavorite(ctx, listing.ID, owner.ID)
	require.NoError(t, err)

	// Removing again fails
	err = socialSvc.RemoveFavorite(ctx, listing.ID, owner.ID)
	assert.True(t, errors.Is(err, ErrFavoriteNotFound))
}

func TestSocialService_AttachCounts(t *testing.T) {
	_, socialSvc, listingSvc, owner := setupSocialTest(t)
	ctx := context.Background()
	listing := createTestListing(t, listingSvc, owner)

	_, _, err := socialSvc.ToggleLike(ctx, listing.ID, owner.ID)
	require.NoError(t, err)
	_, err = socialSvc.CreateComment(ctx, listing.ID, owner, "first")
	require.NoError(t, err)
	_, err = socialSvc.CreateComment(ctx, listing.ID, owner, "second")
	require.NoError(t, err)

	fetched, err := listingSvc.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetched.LikesCount)
	assert.Equal(t, int64(2), fetched.CommentsCount)
}
