// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package listing

import "github.com/skawahara/tochinavi/spatial"

// GeocodingResult represents a geocoding result from any provider.
type GeocodingResult struct {
	Point       spatial.Point
	Confidence  string // high, medium, low
	Provider    string
	DisplayName string
}

// Geocoder resolves a free-text address into a coordinate, or a typed
// not-found error the caller can recover from by asking for another address.
type Geocoder interface {
	Geocode(address string) (*GeocodingResult, error)
}
