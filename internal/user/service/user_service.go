package service

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/auth"
	"storefront/internal/clock"
	"storefront/internal/user/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "user").Logger()

// UserRepository is the persistence surface the service needs.
type UserRepository interface {
	GetUserByID(ctx context.Context, id int) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	ListUsers(ctx context.Context) ([]*entity.User, error)
}

// UserService owns registration, login and lookup of users.
type UserService struct {
	repo     UserRepository
	issuer   *auth.Issuer
	verifier *auth.Verifier
	clock    clock.Clock
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserRepository, issuer *auth.Issuer, verifier *auth.Verifier, clk clock.Clock) *UserService {
	return &UserService{
		repo:     repo,
		issuer:   issuer,
		verifier: verifier,
		clock:    clk,
	}
}

// GetUserByID retrieves a user by ID. The password hash is blanked.
func (s *UserService) GetUserByID(ctx context.Context, id int) (*entity.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if !errors.Is(err, entity.ErrUserNotFound) {
			logger.Error().Err(err).Msgf("Error getting user by ID %d", id)
		}
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// Register creates a regular user with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*entity.User, error) {
	return s.register(ctx, name, email, password, auth.RoleUser)
}

// RegisterAdmin creates an admin user; the caller must present a valid admin
// token.
func (s *UserService) RegisterAdmin(ctx context.Context, adminToken, name, email, password string) (*entity.User, error) {
	id, err := s.verifier.Verify(adminToken)
	if err != nil {
		return nil, err
	}
	if id.Role != auth.RoleAdmin {
		return nil, auth.ErrInvalidToken
	}
	return s.register(ctx, name, email, password, auth.RoleAdmin)
}

func (s *UserService) register(ctx context.Context, name, email, password, role string) (*entity.User, error) {
	taken, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		logger.Error().Err(err).Msg("Error checking email")
		return nil, err
	}
	if taken {
		return nil, entity.ErrEmailAlreadyTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateUser(ctx, &entity.User{
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     role,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error creating user")
		return nil, err
	}

	created.Password = ""
	return created, nil
}

// Login verifies the email/password pair and returns a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return "", entity.ErrInvalidCredentials
		}
		logger.Error().Err(err).Msg("Error getting user by email")
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", entity.ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID, user.Email, user.Role, s.clock.Now())
	if err != nil {
		logger.Error().Err(err).Msg("Error signing token")
		return "", err
	}

	return token, nil
}

// ListUsers returns all users with passwords blanked.
func (s *UserService) ListUsers(ctx context.Context) ([]*entity.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing users")
		return nil, err
	}
	for _, u := range users {
		u.Password = ""
	}
	return users, nil
}
