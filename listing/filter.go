// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"math"
	"sort"

	"github.com/skawahara/tochinavi/spatial"
)

// AreaUnbounded disables the upper area bound. The original search UI used
// the slider maximum as an implicit "no limit"; here it is an explicit
// sentinel.
var AreaUnbounded = math.Inf(1)

// SearchParams describes one search over the dataset. Bounds are inclusive.
type SearchParams struct {
	Center   spatial.Point
	RadiusKm float64

	AreaMin float64
	AreaMax float64 // AreaUnbounded bypasses the upper bound

	// Optional price range, in the same unit as Listing.Price (万円).
	PriceMin *float64
	PriceMax *float64

	// TrimOutliers drops the single highest and single lowest unit-price
	// records when the result has more than two rows. A blunt heuristic, so
	// off by default.
	TrimOutliers bool
}

// Search filters and ranks the dataset: distance to center within the radius,
// area within the range, and price within the optional range. Rows without a
// usable area or with a point outside the coordinate domain never match.
// Retained rows are copies with the distance attached, sorted by unit price
// descending (ties keep input order), so searching twice over an unchanged
// dataset yields the identical result.
func Search(listings []*Listing, p SearchParams) []*Listing {
	result := make([]*Listing, 0)

	for _, l := range listings {
		if !l.Point.Valid() {
			continue
		}

		if l.AreaTsubo == nil || *l.AreaTsubo <= 0 {
			continue
		}

		d := p.Center.HaversineDistance(&l.Point)
		if d > p.RadiusKm {
			continue
		}

		area := *l.AreaTsubo
		if area < p.AreaMin {
			continue
		}

		if !math.IsInf(p.AreaMax, 1) && area > p.AreaMax {
			continue
		}

		if p.PriceMin != nil && (l.Price == nil || *l.Price < *p.PriceMin) {
			continue
		}

		if p.PriceMax != nil && (l.Price == nil || *l.Price > *p.PriceMax) {
			continue
		}

		c := *l
		dist := round2(d)
		c.DistanceKm = &dist

		result = append(result, &c)
	}

	rank(result)

	if p.TrimOutliers && len(result) > 2 {
		result = result[1 : len(result)-1]
	}

	return result
}

// rank sorts by unit price descending; records without a unit price sink to
// the end. The sort is stable so ties keep their original input order.
func rank(listings []*Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := listings[i].UnitPrice, listings[j].UnitPrice

		if a == nil {
			return false
		}

		if b == nil {
			return true
		}

		return *a > *b
	})
}
