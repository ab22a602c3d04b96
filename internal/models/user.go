package models

import (
	"fmt"
	"strings"
	"time"
)

// Role tags the kind of account a principal acts as.
type Role string

const (
	RoleTourist Role = "tourist"
	RoleGuide   Role = "guide"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleTourist:
		return RoleTourist, nil
	case RoleGuide:
		return RoleGuide, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

type User struct {
	ID          int64     `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	Email       string    `db:"email" json:"email"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	Role        Role      `db:"role" json:"user_type"`
	IsVerified  bool      `db:"is_verified" json:"is_verified"`
	APIToken    string    `db:"api_token" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"date_joined"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Principal is the authenticated caller passed explicitly into every operation.
// TouristID and GuideID are set only when the matching profile exists.
type Principal struct {
	UserID    int64
	Role      Role
	Name      string
	TouristID int64
	GuideID   int64
}

// Anonymous is the principal of unauthenticated requests.
var Anonymous = Principal{}

func (p Principal) Authenticated() bool {
	return p.Role != ""
}

func (p Principal) String() string {
	if !p.Authenticated() {
		return "anonymous"
	}
	return fmt.Sprintf("%s:%d", p.Role, p.UserID)
}
