package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"attendance-pulse/internal/models"
	"attendance-pulse/internal/repository"
)

var (
	// ErrEmailExists is returned when registering with a taken email.
	ErrEmailExists = errors.New("a user with this email already exists")
	// ErrInvalidToken is returned for expired or malformed session tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims is the JWT payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
	Name string `json:"name"`
}

// RegisterInput carries a new account's fields.
type RegisterInput struct {
	Email        string
	Password     string
	FullName     string
	Role         string // defaults to client
	EmployeeID   string
	HomeAddress  string
	Contact      string
	Gender       string
	AssignedArea string
}

// AuthService registers accounts, verifies credentials against the store and
// issues session tokens. Credential storage itself is the store's concern.
type AuthService struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(users repository.UserRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{users: users, secret: []byte(secret), ttl: ttl}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	role := input.Role
	if role == "" {
		role = models.RoleClient
	}
	if role != models.RoleAdmin && role != models.RoleClient {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	gender := input.Gender
	if gender == "" {
		gender = "male"
	}

	usr := &models.User{
		Email:        input.Email,
		FullName:     input.FullName,
		Role:         role,
		EmployeeID:   input.EmployeeID,
		HomeAddress:  input.HomeAddress,
		Contact:      input.Contact,
		Gender:       gender,
		AssignedArea: input.AssignedArea,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, usr, input.Password); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return usr, nil
}

// Login verifies credentials and returns a signed session token plus the
// user's profile.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	usr, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("authenticating: %w", err)
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   usr.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Role: usr.Role,
		Name: usr.FullName,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return token, usr, nil
}

// ParseToken validates a session token and returns its claims.
func (s *AuthService) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Viewer loads the user behind a set of claims. Operations take the viewer
// explicitly instead of reading ambient session state.
func (s *AuthService) Viewer(ctx context.Context, claims *Claims) (*models.User, error) {
	usr, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("loading viewer %s: %w", claims.Subject, err)
	}
	return usr, nil
}
