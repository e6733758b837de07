// Package eligibility decides which passengers may occupy which seats.
//
// The same rules apply when a seat is listed, when it is toggled into a
// selection and when a booking is committed. Nothing here performs I/O:
// callers pass in passenger and seat state they fetched themselves.
package eligibility

import "github.com/Domenick1991/metroreserve/internal/domain"

const (
	ReasonAlreadyBooked = "Seat already booked."
	ReasonLoginRequired = "Please login first."
	ReasonWomenOnly     = "Women-only cabin."
	ReasonPriority      = "Priority cabin for pregnant women, women with luggage, disabled, and elderly."
)

const (
	WomenOnlyCabin = 1
	PriorityCabin  = 2
)

// RestrictionReason returns why the passenger may not occupy the seat,
// or "" when it may. A nil passenger means nobody is logged in.
func RestrictionReason(p *domain.Passenger, seat domain.Seat) string {
	if seat.IsBooked() {
		return ReasonAlreadyBooked
	}
	if p == nil {
		return ReasonLoginRequired
	}
	switch seat.ID.Cabin {
	case WomenOnlyCabin:
		if !womenOnlyAllows(p.Category) {
			return ReasonWomenOnly
		}
	case PriorityCabin:
		if !priorityAllows(p.Category, p.HasLuggage) {
			return ReasonPriority
		}
	}
	return ""
}

func CanOccupy(p *domain.Passenger, seat domain.Seat) bool {
	return RestrictionReason(p, seat) == ""
}

// Check is RestrictionReason as a typed error.
func Check(p *domain.Passenger, seat domain.Seat) error {
	switch reason := RestrictionReason(p, seat); reason {
	case "":
		return nil
	case ReasonAlreadyBooked:
		return domain.NewSeatError(domain.ErrAlreadyBooked, seat.ID, reason)
	case ReasonLoginRequired:
		return domain.NewSeatError(domain.ErrUnauthenticated, seat.ID, reason)
	default:
		return domain.NewSeatError(domain.ErrIneligible, seat.ID, reason)
	}
}

// CabinAllows reports whether the category may sit in the cabin at all,
// ignoring the seat's booked state.
func CabinAllows(category domain.Category, hasLuggage bool, cabin int) bool {
	switch cabin {
	case WomenOnlyCabin:
		return womenOnlyAllows(category)
	case PriorityCabin:
		return priorityAllows(category, hasLuggage)
	}
	return true
}

func womenOnlyAllows(c domain.Category) bool {
	return c == domain.CategoryWomen || c == domain.CategoryPregnant
}

func priorityAllows(c domain.Category, hasLuggage bool) bool {
	switch c {
	case domain.CategoryPregnant, domain.CategoryDisabled, domain.CategoryElderly:
		return true
	case domain.CategoryWomen:
		return hasLuggage
	}
	return false
}
