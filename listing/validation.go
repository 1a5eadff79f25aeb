// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// validateCoordinates checks a center coordinate.
func validateCoordinates(lat, lng float64) error {
	// Global bounds
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90 (got %f)", lat)
	}

	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180 (got %f)", lng)
	}

	// Reasonable bounds for Japan, with margin for precision errors.
	// Japan spans roughly 24°N to 46°N, 123°E to 146°E.
	const (
		japanMinLat = 23.0
		japanMaxLat = 47.0
		japanMinLng = 122.0
		japanMaxLng = 154.0
	)

	if lat < japanMinLat || lat > japanMaxLat {
		return fmt.Errorf("latitude outside Japan bounds (%f to %f): %f", japanMinLat, japanMaxLat, lat)
	}

	if lng < japanMinLng || lng > japanMaxLng {
		return fmt.Errorf("longitude outside Japan bounds (%f to %f): %f", japanMinLng, japanMaxLng, lng)
	}

	return nil
}

// ValidateSearchParams checks a search before it runs. The center must be a
// plausible Japanese coordinate and the numeric bounds must form real ranges.
func ValidateSearchParams(p *SearchParams) error {
	if p == nil {
		return errors.New("search params cannot be nil")
	}

	if err := validateCoordinates(p.Center.Lat, p.Center.Lng); err != nil {
		return fmt.Errorf("invalid center: %w", err)
	}

	if p.RadiusKm <= 0 || math.IsNaN(p.RadiusKm) || math.IsInf(p.RadiusKm, 0) {
		return fmt.Errorf("radius must be a positive number of kilometers (got %f)", p.RadiusKm)
	}

	if p.AreaMin < 0 || math.IsNaN(p.AreaMin) {
		return fmt.Errorf("minimum area cannot be negative (got %f)", p.AreaMin)
	}

	if math.IsNaN(p.AreaMax) || (!math.IsInf(p.AreaMax, 1) && p.AreaMax < p.AreaMin) {
		return fmt.Errorf("maximum area %f is below minimum area %f", p.AreaMax, p.AreaMin)
	}

	if p.PriceMin != nil && *p.PriceMin < 0 {
		return fmt.Errorf("minimum price cannot be negative (got %f)", *p.PriceMin)
	}

	if p.PriceMin != nil && p.PriceMax != nil && *p.PriceMax < *p.PriceMin {
		return fmt.Errorf("maximum price %f is below minimum price %f", *p.PriceMax, *p.PriceMin)
	}

	return nil
}

// sanitizeAddress cleans a free-text address before geocoding.
func sanitizeAddress(address string) string {
	address = strings.TrimSpace(address)

	if len(address) > 500 {
		address = address[:500]
	}

	return address
}
