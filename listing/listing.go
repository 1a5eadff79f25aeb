// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"fmt"
	"math"

	"github.com/skawahara/tochinavi/spatial"
	"github.com/uber/h3-go/v4"
)

// SquareMetersPerTsubo is the fixed conversion factor between the two area
// units carried by listings: tsubo × 3.305785 = m².
const SquareMetersPerTsubo = 3.305785

// Listing is a single land record loaded from a listings file. Numeric fields
// that could not be parsed from the source are nil and the record is excluded
// from the predicates that need them, never from the whole dataset.
type Listing struct {
	ID              int           `json:"id"`
	Address         string        `json:"address"`
	Point           spatial.Point `json:"point"`
	Price           *float64      `json:"price"`      // 万円
	AreaTsubo       *float64      `json:"area_tsubo"` // 坪
	AreaSqm         *float64      `json:"area_sqm"`   // ㎡
	UnitPrice       *float64      `json:"unit_price"` // 万円/坪, price / area
	Zoning          string        `json:"zoning,omitempty"`
	TransactionType string        `json:"transaction_type,omitempty"`
	Registrant      string        `json:"registrant,omitempty"`
	Phone           string        `json:"phone,omitempty"`
	ListingDate     string        `json:"listing_date,omitempty"`

	// DistanceKm is attached by a search, rounded to two decimals for display.
	DistanceKm *float64 `json:"distance_km,omitempty"`

	H3Res6 int64 `json:"-"`
	H3Res8 int64 `json:"-"`
}

// TsuboFromSqm converts square meters to tsubo, rounded to two decimals.
func TsuboFromSqm(sqm float64) float64 {
	return round2(sqm / SquareMetersPerTsubo)
}

// SqmFromTsubo converts tsubo to square meters, rounded to two decimals.
func SqmFromTsubo(tsubo float64) float64 {
	return round2(tsubo * SquareMetersPerTsubo)
}

// computeUnitPrice derives price per tsubo rounded to one decimal.
// It is nil when price is missing or area is missing or not positive.
func (l *Listing) computeUnitPrice() {
	if l.Price == nil || l.AreaTsubo == nil || *l.AreaTsubo <= 0 {
		l.UnitPrice = nil

		return
	}

	up := round1(*l.Price / *l.AreaTsubo)
	l.UnitPrice = &up
}

// computeH3 fills the coarse and fine H3 cells used by the repository to
// prefilter radius searches before the exact haversine pass.
func (l *Listing) computeH3() error {
	for _, res := range []int{6, 8} {
		cell, err := h3.LatLngToCell(h3.NewLatLng(l.Point.Lat, l.Point.Lng), res)
		if err != nil {
			return fmt.Errorf("converting to h3 cell at res %d: %w", res, err)
		}

		switch res {
		case 6:
			l.H3Res6 = int64(cell)
		case 8:
			l.H3Res8 = int64(cell)
		}
	}

	return nil
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
