package service

import (
	"tourguide/internal/domain"
	"tourguide/internal/models"
)

// requireTourist returns the caller's tourist profile id.
func requireTourist(p models.Principal) (int64, error) {
	switch p.Role {
	case models.RoleTourist:
		if p.TouristID == 0 {
			return 0, domain.ErrForbidden
		}
		return p.TouristID, nil
	case models.RoleGuide, models.RoleAdmin:
		return 0, domain.ErrForbidden
	default:
		return 0, domain.ErrUnauthenticated
	}
}

// requireGuide returns the caller's guide profile id. Guides without a profile are forbidden.
func requireGuide(p models.Principal) (int64, error) {
	switch p.Role {
	case models.RoleGuide:
		if p.GuideID == 0 {
			return 0, domain.ErrForbidden
		}
		return p.GuideID, nil
	case models.RoleTourist, models.RoleAdmin:
		return 0, domain.ErrForbidden
	default:
		return 0, domain.ErrUnauthenticated
	}
}

func requireAdmin(p models.Principal) error {
	switch p.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleTourist, models.RoleGuide:
		return domain.ErrForbidden
	default:
		return domain.ErrUnauthenticated
	}
}

func requireAuthenticated(p models.Principal) error {
	switch p.Role {
	case models.RoleTourist, models.RoleGuide, models.RoleAdmin:
		return nil
	default:
		return domain.ErrUnauthenticated
	}
}

// canSeeBooking reports whether p takes part in the booking or is an admin.
func canSeeBooking(p models.Principal, b *models.Booking) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTourist:
		return p.TouristID != 0 && p.TouristID == b.TouristID
	case models.RoleGuide:
		return p.GuideID != 0 && p.GuideID == b.GuideID
	default:
		return false
	}
}

// senderType maps a conversation participant to its message sender type.
func senderType(p models.Principal, c *models.Conversation) (string, error) {
	switch p.Role {
	case models.RoleTourist:
		if p.TouristID != 0 && p.TouristID == c.TouristID {
			return models.SenderTourist, nil
		}
		return "", domain.ErrForbidden
	case models.RoleGuide:
		if p.GuideID != 0 && p.GuideID == c.GuideID {
			return models.SenderGuide, nil
		}
		return "", domain.ErrForbidden
	case models.RoleAdmin:
		return "", domain.ErrForbidden
	default:
		return "", domain.ErrUnauthenticated
	}
}
