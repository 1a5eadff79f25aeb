// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"testing"

	"github.com/skawahara/tochinavi/spatial"
)

func validParams() SearchParams {
	return SearchParams{
		Center:   spatial.Point{Lat: 34.705, Lng: 137.735},
		RadiusKm: 2.0,
		AreaMax:  AreaUnbounded,
	}
}

func TestValidateSearchParams(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SearchParams)
		wantErr bool
	}{
		{"valid", func(_ *SearchParams) {}, false},
		{"latitude out of range", func(p *SearchParams) { p.Center.Lat = 91 }, true},
		{"longitude out of range", func(p *SearchParams) { p.Center.Lng = 181 }, true},
		{"outside japan", func(p *SearchParams) { p.Center = spatial.Point{Lat: -34.88, Lng: -56.15} }, true},
		{"zero radius", func(p *SearchParams) { p.RadiusKm = 0 }, true},
		{"negative radius", func(p *SearchParams) { p.RadiusKm = -1 }, true},
		{"negative area minimum", func(p *SearchParams) { p.AreaMin = -10 }, true},
		{"area max below min", func(p *SearchParams) { p.AreaMin = 100; p.AreaMax = 50 }, true},
		{"bounded area range", func(p *SearchParams) { p.AreaMin = 30; p.AreaMax = 100 }, false},
		{"price max below min", func(p *SearchParams) { p.PriceMin = fp(2000); p.PriceMax = fp(1000) }, true},
		{"negative price minimum", func(p *SearchParams) { p.PriceMin = fp(-1) }, true},
		{"price range", func(p *SearchParams) { p.PriceMin = fp(500); p.PriceMax = fp(2000) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)

			err := ValidateSearchParams(&params)
			if tt.wantErr && err == nil {
				t.Error("expected an error")
			}

			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateSearchParamsNil(t *testing.T) {
	if err := ValidateSearchParams(nil); err == nil {
		t.Error("nil params must be rejected")
	}
}

func TestSanitizeAddress(t *testing.T) {
	if got := sanitizeAddress("  浜松市中央区  "); got != "浜松市中央区" {
		t.Errorf("expected trimmed address, got %q", got)
	}
}
