package auth

import (
	"errors"
	"fmt"

	"bookcatalog/internal/config"
	"bookcatalog/internal/database/users"
	"bookcatalog/internal/entities"
)

// AgeNotProvided is the sentinel stored when registration omits the
// optional age field.
const AgeNotProvided = -1

var (
	ErrNameRequired     = errors.New("name is required")
	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrEmailRequired    = errors.New("email is required")

	// ErrDuplicateUser mirrors the store's unique-constraint rejection.
	ErrDuplicateUser = users.ErrDuplicateUser

	// ErrUnknownUser is returned when the username has no account.
	ErrUnknownUser = errors.New("unknown user")

	// ErrBadCredentials is returned when the stored digest does not verify
	// against the supplied password.
	ErrBadCredentials = errors.New("bad credentials")
)

// Service handles registration and credential validation.
type Service struct {
	users  *users.Repository
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, cfg config.Auth) *Service {
	return &Service{
		users:  repo,
		config: cfg,
	}
}

// Register creates a new account. Only the bcrypt digest of the password is
// stored. Pass AgeNotProvided when the age field was left empty.
//
// Duplicate usernames or emails fail with ErrDuplicateUser; the store's
// unique constraints are the only duplicate check, so there is no pre-check
// race window. Any other store failure is reported as such rather than being
// folded into the duplicate case.
func (s *Service) Register(name, username, password, email string, age int) (*entities.User, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Name:         name,
		Username:     username,
		Email:        email,
		Age:          age,
		PasswordHash: passwordHash,
	}

	return s.users.Create(user)
}

// Authenticate validates credentials and returns the matching user.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return nil, ErrBadCredentials
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	return user, nil
}
