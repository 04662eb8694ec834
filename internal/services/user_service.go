package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Amedjranamen/IM/internal/auth"
	"github.com/Amedjranamen/IM/internal/db"
	"github.com/Amedjranamen/IM/internal/models"
)

// IUserService defines the interface for user-related operations.
// This allows for easier mocking in tests.
type IUserService interface {
	Register(ctx context.Context, in models.UserCreate) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	FindByID(ctx context.Context, userID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

const usersCollection = "users"

// userService implements IUserService.
type userService struct {
	db *mongo.Database
}

// NewUserService creates a new UserService.
func NewUserService(db *mongo.Database) IUserService {
	return &userService{db: db}
}

// Register creates a new user with a bcrypt-hashed password.
// The email pre-check is a fast path; the unique index on users.email is the
// authority, and a duplicate-key insert also maps to ErrEmailExists.
func (s *userService) Register(ctx context.Context, in models.UserCreate) (*models.User, error) {
	collection := s.db.Collection(usersCollection)

	_, err := s.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var newUser *models.User
	operation := func() error {
		newUser = &models.User{
			ID:           uuid.NewString(),
			Email:        in.Email,
			Name:         in.Name,
			Phone:        in.Phone,
			PasswordHash: passwordHash,
			CreatedAt:    time.Now().UTC(),
		}
		_, insertErr := collection.InsertOne(ctx, newUser)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			// Two registrations raced the pre-check; the index won.
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to insert new user: %w", err)
	}

	return newUser, nil
}

// Login verifies the email/password pair. Unknown email and bad password are
// indistinguishable to the caller.
func (s *userService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// FindByID finds a user by their ID.
// Returns nil and mongo.ErrNoDocuments if not found.
func (s *userService) FindByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)

	err := collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by ID %s: %w", userID, err)
	}
	return &user, nil
}

// FindByEmail finds a user by their email address (case-sensitive exact match).
// Returns nil and mongo.ErrNoDocuments if not found.
func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)

	err := collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by email %s: %w", email, err)
	}
	return &user, nil
}
