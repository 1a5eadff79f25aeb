// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package listing

import "testing"

func TestTsuboFromSqm(t *testing.T) {
	tests := []struct {
		sqm  float64
		want float64
	}{
		{3.305785, 1.0},
		{33.05785, 10.0},
		{100, 30.25},
		{165.28925, 50.0},
		{0, 0},
	}

	for _, tt := range tests {
		if got := TsuboFromSqm(tt.sqm); got != tt.want {
			t.Errorf("TsuboFromSqm(%v) = %v, want %v", tt.sqm, got, tt.want)
		}
	}
}

func TestSqmFromTsubo(t *testing.T) {
	tests := []struct {
		tsubo float64
		want  float64
	}{
		{1.0, 3.31},
		{50.0, 165.29},
		{0, 0},
	}

	for _, tt := range tests {
		if got := SqmFromTsubo(tt.tsubo); got != tt.want {
			t.Errorf("SqmFromTsubo(%v) = %v, want %v", tt.tsubo, got, tt.want)
		}
	}
}

func TestComputeUnitPrice(t *testing.T) {
	tests := []struct {
		name  string
		price *float64
		area  *float64
		want  *float64
	}{
		{"normal", fp(1000), fp(50), fp(20.0)},
		{"rounded to one decimal", fp(1000), fp(30), fp(33.3)},
		{"no price", nil, fp(50), nil},
		{"no area", fp(1000), nil, nil},
		{"zero area", fp(1000), fp(0), nil},
		{"negative area", fp(1000), fp(-5), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Listing{Price: tt.price, AreaTsubo: tt.area}
			l.computeUnitPrice()

			switch {
			case tt.want == nil && l.UnitPrice != nil:
				t.Errorf("expected nil unit price, got %v", *l.UnitPrice)
			case tt.want != nil && l.UnitPrice == nil:
				t.Errorf("expected unit price %v, got nil", *tt.want)
			case tt.want != nil && *l.UnitPrice != *tt.want:
				t.Errorf("expected unit price %v, got %v", *tt.want, *l.UnitPrice)
			}
		})
	}
}

func TestComputeH3(t *testing.T) {
	l := &Listing{}
	l.Point.Lat = 34.705
	l.Point.Lng = 137.735

	if err := l.computeH3(); err != nil {
		t.Fatalf("computeH3 failed: %v", err)
	}

	if l.H3Res6 == 0 || l.H3Res8 == 0 {
		t.Error("expected non-zero h3 cells for a valid point")
	}
}
