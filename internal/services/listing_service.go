package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Amedjranamen/IM/internal/db"
	"github.com/Amedjranamen/IM/internal/models"
)

// IListingService defines the interface for listing-related operations.
type IListingService interface {
	Create(ctx context.Context, owner *models.User, in models.ListingCreate) (*models.Listing, error)
	GetByID(ctx context.Context, listingID string) (*models.Listing, error)
	GetOwned(ctx context.Context, listingID, userID string) (*models.Listing, error)
	Update(ctx context.Context, listingID, userID string, in models.ListingUpdate) (*models.Listing, error)
	Delete(ctx context.Context, listingID, userID string) (removedImages []string, err error)
	Search(ctx context.Context, params SearchParams) ([]models.Listing, error)
	FindByOwner(ctx context.Context, userID string) ([]models.Listing, error)
	AppendImages(ctx context.Context, listingID string, filenames []string) error
	RemoveImage(ctx context.Context, listingID, userID, filename string) error
	Cities(ctx context.Context) ([]string, error)
	Neighborhoods(ctx context.Context, city *string) ([]string, error)
}

const listingsCollection = "listings"

// SearchParams carries the optional listing search filters. All filters are
// ANDed together; Search alone expands into a title-OR-description match.
type SearchParams struct {
	Search       *string
	City         *string
	Neighborhood *string
	ListingType  *string
	PriceMin     *float64
	PriceMax     *float64
	SurfaceMin   *int
	SurfaceMax   *int
	RoomsMin     *int
	RoomsMax     *int
	Lat          *float64
	Lon          *float64
	Radius       *float64 // km
	RandomOrder  bool
	Limit        int64
	Skip         int64
}

// listingService implements IListingService.
type listingService struct {
	db     *mongo.Database
	social ISocialService
}

// NewListingService creates a new ListingService.
func NewListingService(db *mongo.Database, social ISocialService) IListingService {
	return &listingService{db: db, social: social}
}

// caseInsensitiveSubstring builds a case-insensitive substring regex match.
// The needle is quoted so user input never acts as a pattern.
func caseInsensitiveSubstring(needle string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(needle), Options: "i"}
}

// setRange merges optional inclusive bounds into a single range document.
func setRange[T int | float64](filter bson.M, field string, min, max *T) {
	bounds := bson.M{}
	if min != nil {
		bounds["$gte"] = *min
	}
	if max != nil {
		bounds["$lte"] = *max
	}
	if len(bounds) > 0 {
		filter[field] = bounds
	}
}

// buildSearchFilter composes the search predicate: it starts from the
// always-applied published filter and conjoins one predicate per present
// parameter. Only is_published=true listings are ever returned by public
// read paths.
func buildSearchFilter(p SearchParams) bson.M {
	filter := bson.M{"is_published": true}

	if p.Search != nil && *p.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"title": caseInsensitiveSubstring(*p.Search)},
			bson.M{"description": caseInsensitiveSubstring(*p.Search)},
		}
	}

	if p.City != nil && *p.City != "" {
		filter["city"] = caseInsensitiveSubstring(*p.City)
	}
	if p.Neighborhood != nil && *p.Neighborhood != "" {
		filter["neighborhood"] = caseInsensitiveSubstring(*p.Neighborhood)
	}

	if p.ListingType != nil && *p.ListingType != "" {
		filter["listing_type"] = *p.ListingType
	}

	setRange(filter, "price", p.PriceMin, p.PriceMax)
	setRange(filter, "surface", p.SurfaceMin, p.SurfaceMax)
	setRange(filter, "rooms", p.RoomsMin, p.RoomsMax)

	// Approximate bounding box: 1 degree of latitude is ~111 km. This is not
	// a great-circle filter; corners of the box overshoot the radius.
	if p.Lat != nil && p.Lon != nil && p.Radius != nil {
		latRange := *p.Radius / 111.0
		lonRange := latRange
		if *p.Lat != 0 {
			lonRange = *p.Radius / (111.0 * math.Abs(*p.Lat/90.0))
		}
		filter["lat"] = bson.M{"$gte": *p.Lat - latRange, "$lte": *p.Lat + latRange}
		filter["lon"] = bson.M{"$gte": *p.Lon - lonRange, "$lte": *p.Lon + lonRange}
	}

	return filter
}

// Search runs the composed filter, either as a uniform random sample of size
// limit (no duplicates within one call) or as a created_at-descending page,
// and attaches live social counts to the results.
func (s *listingService) Search(ctx context.Context, params SearchParams) ([]models.Listing, error) {
	collection := s.db.Collection(listingsCollection)
	filter := buildSearchFilter(params)

	listings := []models.Listing{}
	if params.RandomOrder {
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: filter}},
			{{Key: "$sample", Value: bson.M{"size": params.Limit}}},
		}
		cursor, err := collection.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, fmt.Errorf("failed to sample listings: %w", err)
		}
		defer cursor.Close(ctx)
		if err := cursor.All(ctx, &listings); err != nil {
			return nil, fmt.Errorf("failed to decode sampled listings: %w", err)
		}
	} else {
		opts := options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(params.Skip).
			SetLimit(params.Limit)
		cursor, err := collection.Find(ctx, filter, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to execute listing search query: %w", err)
		}
		defer cursor.Close(ctx)
		if err := cursor.All(ctx, &listings); err != nil {
			return nil, fmt.Errorf("failed to decode listing search results: %w", err)
		}
	}

	if err := s.social.AttachCounts(ctx, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// Create inserts a new listing owned by the authenticated user.
func (s *listingService) Create(ctx context.Context, owner *models.User, in models.ListingCreate) (*models.Listing, error) {
	collection := s.db.Collection(listingsCollection)
	now := time.Now().UTC()

	var newListing *models.Listing
	operation := func() error {
		newListing = &models.Listing{
			ID:           uuid.NewString(),
			OwnerID:      owner.ID,
			OwnerName:    owner.Name,
			Title:        in.Title,
			Description:  in.Description,
			ListingType:  in.ListingType,
			Price:        in.Price,
			Currency:     models.DefaultCurrency,
			City:         in.City,
			Neighborhood: in.Neighborhood,
			Address:      in.Address,
			Lat:          in.Lat,
			Lon:          in.Lon,
			Surface:      in.Surface,
			Rooms:        in.Rooms,
			Images:       []string{},
			IsPublished:  true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		_, insertErr := collection.InsertOne(ctx, newListing)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert new listing for user %s: %w", owner.ID, err)
	}
	return newListing, nil
}

// GetByID finds a published listing by its ID, with counts attached.
// Unpublished listings are not visible on this path.
func (s *listingService) GetByID(ctx context.Context, listingID string) (*models.Listing, error) {
	var listing models.Listing
	filter := bson.M{"_id": listingID, "is_published": true}

	err := s.db.Collection(listingsCollection).FindOne(ctx, filter).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding listing by ID %s: %w", listingID, err)
	}

	enriched := []models.Listing{listing}
	if err := s.social.AttachCounts(ctx, enriched); err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

// GetOwned finds a listing (published or not) and enforces ownership.
// Returns mongo.ErrNoDocuments if absent, ErrForbidden if owned by someone else.
func (s *listingService) GetOwned(ctx context.Context, listingID, userID string) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Collection(listingsCollection).FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding listing by ID %s: %w", listingID, err)
	}
	if listing.OwnerID != userID {
		return nil, ErrForbidden
	}
	return &listing, nil
}

// Update merges the non-nil fields of the partial payload into a listing the
// caller owns and stamps updated_at. Fields absent from the payload are left
// untouched.
func (s *listingService) Update(ctx context.Context, listingID, userID string, in models.ListingUpdate) (*models.Listing, error) {
	if _, err := s.GetOwned(ctx, listingID, userID); err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if in.Title != nil {
		set["title"] = *in.Title
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Price != nil {
		set["price"] = *in.Price
	}
	if in.City != nil {
		set["city"] = *in.City
	}
	if in.Neighborhood != nil {
		set["neighborhood"] = *in.Neighborhood
	}
	if in.Address != nil {
		set["address"] = *in.Address
	}
	if in.Lat != nil {
		set["lat"] = *in.Lat
	}
	if in.Lon != nil {
		set["lon"] = *in.Lon
	}
	if in.Surface != nil {
		set["surface"] = *in.Surface
	}
	if in.Rooms != nil {
		set["rooms"] = *in.Rooms
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Listing
	err := s.db.Collection(listingsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": listingID}, bson.M{"$set": set}, opts).
		Decode(&updated)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing %s: %w", listingID, err)
	}
	return &updated, nil
}

// Delete hard-deletes a listing the caller owns and cascades to its likes,
// comments and favorites so no orphaned social rows remain. It returns the
// stored image filenames so the caller can clean up media best-effort.
func (s *listingService) Delete(ctx context.Context, listingID, userID string) ([]string, error) {
	listing, err := s.GetOwned(ctx, listingID, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.Collection(listingsCollection).DeleteOne(ctx, bson.M{"_id": listingID}); err != nil {
		return nil, fmt.Errorf("failed to delete listing %s: %w", listingID, err)
	}

	// Cascade. The listing row is already gone; dependents failing to delete
	// is logged, not surfaced.
	byListing := bson.M{"listing_id": listingID}
	for _, coll := range []string{likesCollection, commentsCollection, favoritesCollection} {
		if _, err := s.db.Collection(coll).DeleteMany(ctx, byListing); err != nil {
			log.Printf("Failed to cascade delete %s for listing %s: %v", coll, listingID, err)
		}
	}

	return listing.Images, nil
}

// FindByOwner returns every listing (published or not) owned by the caller,
// newest first, with counts attached.
func (s *listingService) FindByOwner(ctx context.Context, userID string) ([]models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(listingsCollection).Find(ctx, bson.M{"owner_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	listings := []models.Listing{}
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}

	if err := s.social.AttachCounts(ctx, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// AppendImages appends stored filenames to the listing's image list and
// stamps updated_at. Ownership and limits are checked by the caller before
// any file is stored.
func (s *listingService) AppendImages(ctx context.Context, listingID string, filenames []string) error {
	update := bson.M{
		"$push": bson.M{"images": bson.M{"$each": filenames}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := s.db.Collection(listingsCollection).UpdateOne(ctx, bson.M{"_id": listingID}, update)
	if err != nil {
		return fmt.Errorf("failed to append images to listing %s: %w", listingID, err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RemoveImage removes a filename from the listing's image list regardless of
// whether the underlying file exists.
func (s *listingService) RemoveImage(ctx context.Context, listingID, userID, filename string) error {
	if _, err := s.GetOwned(ctx, listingID, userID); err != nil {
		return err
	}

	update := bson.M{
		"$pull": bson.M{"images": filename},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	if _, err := s.db.Collection(listingsCollection).UpdateOne(ctx, bson.M{"_id": listingID}, update); err != nil {
		return fmt.Errorf("failed to remove image %s from listing %s: %w", filename, listingID, err)
	}
	return nil
}

// distinctStrings runs a distinct query and returns the non-empty string
// values, sorted.
func (s *listingService) distinctStrings(ctx context.Context, field string, filter bson.M) ([]string, error) {
	values, err := s.db.Collection(listingsCollection).Distinct(ctx, field, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch distinct %s values: %w", field, err)
	}

	results := []string{}
	for _, v := range values {
		if str, ok := v.(string); ok && str != "" {
			results = append(results, str)
		}
	}
	sort.Strings(results)
	return results, nil
}

// Cities returns the distinct cities of published listings.
func (s *listingService) Cities(ctx context.Context) ([]string, error) {
	return s.distinctStrings(ctx, "city", bson.M{
		"is_published": true,
		"city":         bson.M{"$ne": nil},
	})
}

// Neighborhoods returns the distinct neighborhoods of published listings,
// restricted to an exact city when one is given.
func (s *listingService) Neighborhoods(ctx context.Context, city *string) ([]string, error) {
	filter := bson.M{
		"is_published": true,
		"neighborhood": bson.M{"$ne": nil},
	}
	if city != nil && *city != "" {
		filter["city"] = *city
	}
	return s.distinctStrings(ctx, "neighborhood", filter)
}
