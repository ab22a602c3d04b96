// Package pricing holds the rate card and group discount rules. Every price
// shown or stored by the service comes out of this package.
package pricing

import (
	"math"

	"tourguide/internal/models"
)

const (
	halfDayMaxHours = 4
	fullDayMaxHours = 8
)

// discountTier maps a minimum group size to a discount rate.
type discountTier struct {
	minSize int
	rate    float64
}

// tiers are ordered from the largest group down.
var tiers = []discountTier{
	{minSize: 10, rate: 0.15},
	{minSize: 6, rate: 0.10},
	{minSize: 4, rate: 0.05},
}

// TourPrice prices a tour of the given duration from a guide's rate card.
func TourPrice(card models.RateCard, durationHours float64) float64 {
	switch {
	case durationHours <= halfDayMaxHours:
		return card.HalfDay
	case durationHours <= fullDayMaxHours:
		return card.FullDay
	default:
		return Round2(card.FullDay + (durationHours-fullDayMaxHours)*card.ExtraHour)
	}
}

// GroupDiscount returns the discount rate for a group, in [0, 1).
func GroupDiscount(groupSize int) float64 {
	for _, t := range tiers {
		if groupSize >= t.minSize {
			return t.rate
		}
	}
	return 0
}

// Quote is the price breakdown for a group booking.
type Quote struct {
	BasePricePerPerson float64 `json:"base_price_per_person"`
	GroupSize          int     `json:"group_size"`
	Subtotal           float64 `json:"subtotal"`
	DiscountPercentage float64 `json:"discount_percentage"`
	DiscountAmount     float64 `json:"discount_amount"`
	FinalPrice         float64 `json:"final_price"`
}

// NewQuote computes the total for groupSize people at basePrice each.
func NewQuote(basePrice float64, groupSize int) Quote {
	rate := GroupDiscount(groupSize)
	subtotal := basePrice * float64(groupSize)
	discount := Round2(subtotal * rate)
	return Quote{
		BasePricePerPerson: basePrice,
		GroupSize:          groupSize,
		Subtotal:           Round2(subtotal),
		DiscountPercentage: Round2(rate * 100),
		DiscountAmount:     discount,
		FinalPrice:         Round2(subtotal - discount),
	}
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
