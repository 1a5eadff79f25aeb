// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) *GoogleMapsGeocoder {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	geocoder := NewGoogleMapsGeocoder("test-key")
	geocoder.baseURL = server.URL

	return geocoder
}

func TestGoogleGeocodeSuccess(t *testing.T) {
	geocoder := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("language"); got != "ja" {
			t.Errorf("expected language=ja, got %q", got)
		}

		if got := r.URL.Query().Get("region"); got != "jp" {
			t.Errorf("expected region=jp, got %q", got)
		}

		fmt.Fprint(w, `{
			"status": "OK",
			"results": [{
				"geometry": {
					"location": {"lat": 34.705, "lng": 137.735},
					"location_type": "ROOFTOP"
				},
				"formatted_address": "日本、静岡県浜松市中央区板屋町"
			}]
		}`)
	})

	result, err := geocoder.Geocode("浜松市中央区板屋町")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}

	if result.Point.Lat != 34.705 || result.Point.Lng != 137.735 {
		t.Errorf("unexpected point: %+v", result.Point)
	}

	if result.Confidence != "high" {
		t.Errorf("ROOFTOP should map to high confidence, got %q", result.Confidence)
	}

	if result.Provider != "google_maps" {
		t.Errorf("unexpected provider: %q", result.Provider)
	}
}

func TestGoogleGeocodeZeroResults(t *testing.T) {
	geocoder := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status": "ZERO_RESULTS", "results": []}`)
	})

	_, err := geocoder.Geocode("存在しない住所")
	if !IsNotFoundError(err) {
		t.Fatalf("expected a not-found error, got %v", err)
	}
}

func TestGoogleGeocodeQuotaExceeded(t *testing.T) {
	geocoder := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status": "OVER_QUERY_LIMIT", "results": []}`)
	})

	_, err := geocoder.Geocode("浜松市")

	geoErr, ok := err.(*GeocodeError)
	if !ok || geoErr.Type != ErrorTypeQuotaExceeded {
		t.Fatalf("expected a quota error, got %v", err)
	}
}

func TestGoogleGeocodeHTTPError(t *testing.T) {
	geocoder := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := geocoder.Geocode("浜松市")

	geoErr, ok := err.(*GeocodeError)
	if !ok || geoErr.Type != ErrorTypeRateLimit {
		t.Fatalf("expected a rate-limit error, got %v", err)
	}
}

func TestGoogleGeocodeWithoutKey(t *testing.T) {
	geocoder := NewGoogleMapsGeocoder("")

	_, err := geocoder.Geocode("浜松市")
	if !IsGeocodingDisabled(err) {
		t.Fatalf("expected geocoding-disabled, got %v", err)
	}
}

func TestGoogleGeocodeConfidenceLevels(t *testing.T) {
	tests := []struct {
		locationType string
		want         string
	}{
		{"ROOFTOP", "high"},
		{"RANGE_INTERPOLATED", "high"},
		{"GEOMETRIC_CENTER", "medium"},
		{"APPROXIMATE", "low"},
		{"SOMETHING_ELSE", "low"},
	}

	for _, tt := range tests {
		t.Run(tt.locationType, func(t *testing.T) {
			geocoder := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprintf(w, `{
					"status": "OK",
					"results": [{
						"geometry": {
							"location": {"lat": 34.7, "lng": 137.7},
							"location_type": %q
						},
						"formatted_address": "x"
					}]
				}`, tt.locationType)
			})

			result, err := geocoder.Geocode("浜松市")
			if err != nil {
				t.Fatalf("Geocode failed: %v", err)
			}

			if result.Confidence != tt.want {
				t.Errorf("%s: expected %q, got %q", tt.locationType, tt.want, result.Confidence)
			}
		})
	}
}
