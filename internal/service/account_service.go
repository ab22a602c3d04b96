package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"tourguide/internal/domain"
	"tourguide/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]{1,150}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type AccountService struct {
	users  domain.UserRepository
	logger *zerolog.Logger
}

func NewAccountService(users domain.UserRepository, logger *zerolog.Logger) *AccountService {
	return &AccountService{users: users, logger: logger}
}

type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	UserType    string `json:"user_type"`
}

// Register creates a tourist or guide account and returns it with its API token.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	var v domain.Validation
	v.Check(usernamePattern.MatchString(in.Username), "username", "Enter a valid username of up to 150 letters, digits and @/./+/-/_ characters.")
	v.Check(emailPattern.MatchString(in.Email), "email", "Enter a valid email address.")
	role, err := models.ParseRole(in.UserType)
	switch {
	case err != nil:
		v.Add("user_type", "Must be one of tourist, guide.")
	case role == models.RoleAdmin:
		v.Add("user_type", "Admin accounts cannot be registered.")
	}
	if err := v.Err(); err != nil {
		return nil, "", err
	}

	usernameTaken, emailTaken, err := s.users.UserExists(ctx, in.Username, in.Email)
	if err != nil {
		return nil, "", err
	}
	v.Check(!usernameTaken, "username", "User with this username already exists.")
	v.Check(!emailTaken, "email", "User with this email already exists.")
	if err := v.Err(); err != nil {
		return nil, "", err
	}

	user := &models.User{
		Username:    in.Username,
		Email:       in.Email,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Role:        role,
		APIToken:    uuid.NewString(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, "", &domain.ValidationError{Message: "User with this username or email already exists."}
		}
		return nil, "", err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("User registered")
	return user, user.APIToken, nil
}

// Authenticate resolves an API token into a principal.
func (s *AccountService) Authenticate(ctx context.Context, token string) (models.Principal, error) {
	if strings.TrimSpace(token) == "" {
		return models.Anonymous, domain.ErrUnauthenticated
	}
	return s.users.GetPrincipalByToken(ctx, token)
}

// Me returns the caller's account. Config-defined admins have no stored user.
func (s *AccountService) Me(ctx context.Context, p models.Principal) (*models.User, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}
	if p.UserID == 0 {
		return &models.User{Username: p.Name, FirstName: p.Name, Role: p.Role, IsVerified: true}, nil
	}
	return s.users.GetUserByID(ctx, p.UserID)
}

type UpdateUserInput struct {
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
}

func (s *AccountService) UpdateMe(ctx context.Context, p models.Principal, in UpdateUserInput) (*models.User, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}
	if p.UserID == 0 {
		return nil, domain.ErrForbidden
	}
	user, err := s.users.GetUserByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if !emailPattern.MatchString(email) {
			return nil, domain.Invalid("email", "Enter a valid email address.")
		}
		if !strings.EqualFold(email, user.Email) {
			_, taken, err := s.users.UserExists(ctx, "", email)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, domain.Invalid("email", "User with this email already exists.")
			}
		}
		user.Email = email
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Invalid("email", "User with this email already exists.")
		}
		return nil, err
	}
	return user, nil
}
