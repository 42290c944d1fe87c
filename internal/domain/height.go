package domain

import (
	"errors"
	"fmt"
)

// MaxQueryHeightCM is the largest height accepted by a height query.
const MaxQueryHeightCM = 250

// ErrHeightOutOfRange is returned for non-positive or implausible heights.
var ErrHeightOutOfRange = errors.New("height out of range")

// DefaultTrackedHeights are the heights precomputed in every snapshot.
var DefaultTrackedHeights = []int{95, 100, 110, 120, 130, 135, 140}

// ValidateQueryHeight rejects heights outside (0, MaxQueryHeightCM].
func ValidateQueryHeight(heightCM int) error {
	if heightCM <= 0 || heightCM > MaxQueryHeightCM {
		return fmt.Errorf("%w: %d cm (want 1-%d)", ErrHeightOutOfRange, heightCM, MaxQueryHeightCM)
	}
	return nil
}
