package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/carelink/carelink/internal/platform/auth"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrValidation     = errors.New("validation failed")
)

const minPasswordLen = 6

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Service struct {
	users  UserRepository
	tokens *auth.TokenService
}

func NewService(users UserRepository, tokens *auth.TokenService) *Service {
	return &Service{users: users, tokens: tokens}
}

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Role            string
	Specialization  *string
}

// Register creates an account and returns it with a freshly minted token.
// Emails are normalized to lowercase before uniqueness is checked.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Name == "" {
		return nil, "", fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, "", fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(in.Password) < minPasswordLen {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		return nil, "", fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	if !ValidRole(in.Role) {
		return nil, "", fmt.Errorf("%w: role must be %q or %q", ErrValidation, RolePatient, RoleDoctor)
	}
	if in.Role == RoleDoctor && (in.Specialization == nil || strings.TrimSpace(*in.Specialization) == "") {
		return nil, "", fmt.Errorf("%w: specialization is required for doctors", ErrValidation)
	}
	if in.Role == RolePatient {
		in.Specialization = nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Name:           in.Name,
		Email:          in.Email,
		PasswordHash:   string(hash),
		Role:           in.Role,
		Specialization: in.Specialization,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies credentials and mints a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrBadCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrBadCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// ViewOf returns the reduced representation of a user for embedding into
// another identity's resources.
func (s *Service) ViewOf(ctx context.Context, id uuid.UUID) (*View, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := u.ToView()
	return &v, nil
}

// ListDoctors returns registered doctors as reduced views for the booking
// picker.
func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]View, int, error) {
	users, total, err := s.users.ListByRole(ctx, RoleDoctor, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views := make([]View, 0, len(users))
	for _, u := range users {
		views = append(views, u.ToView())
	}
	return views, total, nil
}

func (s *Service) issueToken(u *User) (string, error) {
	id := auth.Identity{ID: u.ID, Email: u.Email, Role: u.Role}
	if u.Specialization != nil {
		id.Specialization = *u.Specialization
	}
	token, err := s.tokens.Issue(id)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
