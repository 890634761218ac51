package service

import (
	"errors"
	"fmt"

	"shop-catalog/internal/domain"
)

var (
	ErrOpeningHoursConflict = errors.New("opening hours conflict")
)

// ValidateOpeningHours checks that no two slots of the same day overlap.
// Slots are told apart by their position, so two identical slots at
// different positions conflict.
func ValidateOpeningHours(hours []domain.OpeningHours) error {
	for i, h1 := range hours {
		for j, h2 := range hours {
			if i == j {
				continue
			}
			if hoursConflict(h1, h2) {
				return fmt.Errorf("%w: %s %s-%s and %s-%s",
					ErrOpeningHoursConflict, h1.Day, h1.OpenAt, h1.CloseAt, h2.OpenAt, h2.CloseAt)
			}
		}
	}
	return nil
}

// hoursConflict reports whether h1 and h2 collide. Slots that only touch
// (one closes when the other opens) do not.
func hoursConflict(h1, h2 domain.OpeningHours) bool {
	if h1.Day != h2.Day {
		return false
	}

	switch {
	case h1.OpenAt == h2.OpenAt || h1.CloseAt == h2.CloseAt:
		return true
	case h1.OpenAt < h2.OpenAt && h1.CloseAt > h2.CloseAt:
		return true
	// only checks h1's opening point; strict containment of h1 in h2 is
	// caught by the last case
	case h2.OpenAt < h1.OpenAt && h2.CloseAt > h1.OpenAt:
		return true
	case h1.OpenAt < h2.OpenAt && h1.CloseAt > h2.OpenAt:
		return true
	case h2.OpenAt < h1.OpenAt && h2.CloseAt > h1.OpenAt:
		return true
	}

	return false
}
