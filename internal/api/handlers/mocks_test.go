package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/Amedjranamen/IM/internal/api/middleware"
	"github.com/Amedjranamen/IM/internal/models"
	"github.com/Amedjranamen/IM/internal/services"
)

// --- Mocks ---

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, in models.UserCreate) (*models.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockUserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockUserService) FindByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockListingService
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) Create(ctx context.Context, owner *models.User, in models.ListingCreate) (*models.Listing, error) {
	args := m.Called(ctx, owner, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}
func (m *MockListingService) GetByID(ctx context.Context, listingID string) (*models.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}
func (m *MockListingService) GetOwned(ctx context.Context, listingID, userID string) (*models.Listing, error) {
	args := m.Called(ctx, listingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}
func (m *MockListingService) Update(ctx context.Context, listingID, userID string, in models.ListingUpdate) (*models.Listing, error) {
	args := m.Called(ctx, listingID, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}
func (m *MockListingService) Delete(ctx context.Context, listingID, userID string) ([]string, error) {
	args := m.Called(ctx, listingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockListingService) Search(ctx context.Context, params services.SearchParams) ([]models.Listing, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}
func (m *MockListingService) FindByOwner(ctx context.Context, userID string) ([]models.Listing, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}
func (m *MockListingService) AppendImages(ctx context.Context, listingID string, filenames []string) error {
	args := m.Called(ctx, listingID, filenames)
	return args.Error(0)
}
func (m *MockListingService) RemoveImage(ctx context.Context, listingID, userID, filename string) error {
	args := m.Called(ctx, listingID, userID, filename)
	return args.Error(0)
}
func (m *MockListingService) Cities(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockListingService) Neighborhoods(ctx context.Context, city *string) ([]string, error) {
	args := m.Called(ctx, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockSocialService
type MockSocialService struct {
	mock.Mock
}

func (m *MockSocialService) CountLikes(ctx context.Context, listingID string) (int64, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockSocialService) CountComments(ctx context.Context, listingID string) (int64, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockSocialService) AttachCounts(ctx context.Context, listings []models.Listing) error {
	args := m.Called(ctx, listings)
	return args.Error(0)
}
func (m *MockSocialService) ToggleLike(ctx context.Context, listingID, userID string) (bool, int64, error) {
	args := m.Called(ctx, listingID, userID)
	return args.Bool(0), args.Get(1).(int64), args.Error(2)
}
func (m *MockSocialService) IsLiked(ctx context.Context, listingID, userID string) (bool, error) {
	args := m.Called(ctx, listingID, userID)
	return args.Bool(0), args.Error(1)
}
func (m *MockSocialService) ListComments(ctx context.Context, listingID string) ([]models.Comment, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comment), args.Error(1)
}
func (m *MockSocialService) CreateComment(ctx context.Context, listingID string, author *models.User, text string) (*models.Comment, error) {
	args := m.Called(ctx, listingID, author, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}
func (m *MockSocialService) DeleteComment(ctx context.Context, commentID, userID string) error {
	args := m.Called(ctx, commentID, userID)
	return args.Error(0)
}
func (m *MockSocialService) AddFavorite(ctx context.Context, listingID, userID string) error {
	args := m.Called(ctx, listingID, userID)
	return args.Error(0)
}
func (m *MockSocialService) RemoveFavorite(ctx context.Context, listingID, userID string) error {
	args := m.Called(ctx, listingID, userID)
	return args.Error(0)
}
func (m *MockSocialService) IsFavorite(ctx context.Context, listingID, userID string) (bool, error) {
	args := m.Called(ctx, listingID, userID)
	return args.Bool(0), args.Error(1)
}
func (m *MockSocialService) ListFavorites(ctx context.Context, userID string) ([]models.Listing, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

// MockGeocodingService
type MockGeocodingService struct {
	mock.Mock
}

func (m *MockGeocodingService) Geocode(ctx context.Context, query string) (json.RawMessage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
func (m *MockGeocodingService) ReverseGeocode(ctx context.Context, lat, lon float64) (*services.ReverseGeocodeResult, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReverseGeocodeResult), args.Error(1)
}

// MockStore records saved and deleted filenames in memory.
type MockStore struct {
	Saved   map[string][]byte
	Deleted []string
}

func NewMockStore() *MockStore {
	return &MockStore{Saved: make(map[string][]byte)}
}

func (s *MockStore) Save(ctx context.Context, filename string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.Saved[filename] = data
	return nil
}

func (s *MockStore) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Saved[filename])), nil
}

func (s *MockStore) Delete(ctx context.Context, filename string) error {
	s.Deleted = append(s.Deleted, filename)
	return nil
}

// --- Helpers ---

func testUser() *models.User {
	return &models.User{
		ID:        "user-1",
		Email:     "user@example.com",
		Name:      "Test User",
		CreatedAt: time.Now().UTC(),
	}
}

// withUser injects an authenticated user the way the auth middleware would.
func withUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUser, user)
		c.Next()
	}
}
