package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Amedjranamen/IM/internal/auth"
	"github.com/Amedjranamen/IM/internal/models"
)

const authTestSecret = "middleware-test-secret"

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) Register(ctx context.Context, in models.UserCreate) (*models.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockUserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockUserService) FindByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func authTestRouter(users *mockUserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(authTestSecret, users))
	r.GET("/protected", func(c *gin.Context) {
		user := c.MustGet(ContextKeyUser).(*models.User)
		c.JSON(http.StatusOK, gin.H{"user_id": user.ID})
	})
	return r
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	users := new(mockUserService)
	users.On("FindByID", mock.Anything, "user-1").Return(&models.User{ID: "user-1"}, nil)
	r := authTestRouter(users)

	token, err := auth.GenerateToken("user-1", authTestSecret, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
	users.AssertExpectations(t)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	r := authTestRouter(new(mockUserService))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header required")
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	r := authTestRouter(new(mockUserService))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	r := authTestRouter(new(mockUserService))

	token, err := auth.GenerateToken("user-1", authTestSecret, -time.Minute)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token expired")
}

func TestAuthMiddleware_ForgedToken(t *testing.T) {
	r := authTestRouter(new(mockUserService))

	token, err := auth.GenerateToken("user-1", "some-other-secret", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")
}

func TestAuthMiddleware_DeletedUser(t *testing.T) {
	users := new(mockUserService)
	users.On("FindByID", mock.Anything, "ghost").Return(nil, mongo.ErrNoDocuments)
	r := authTestRouter(users)

	token, err := auth.GenerateToken("ghost", authTestSecret, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "User not found")
}
