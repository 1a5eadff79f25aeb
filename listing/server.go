// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/skawahara/tochinavi/spatial"
)

// Pin colors rendered by the map front end. Selection changes a pin's color
// and nothing else.
const (
	PinColorCenter   = "red"
	PinColorListing  = "blue"
	PinColorSelected = "green"
)

// Pin is one marker on the map.
type Pin struct {
	Listing *Listing      `json:"listing,omitempty"`
	Point   spatial.Point `json:"point"`
	Color   string        `json:"color"`
	Label   string        `json:"label"`
}

// SearchResponse is the payload of a search: the ranked rows plus the pins to
// draw.
type SearchResponse struct {
	Center   spatial.Point `json:"center"`
	Listings []*Listing    `json:"listings"`
	Pins     []*Pin        `json:"pins"`
	Total    int           `json:"total"`
}

// Server exposes the search over HTTP for the map front end.
type Server struct {
	csvPath  string
	repo     Repository
	geocoder Geocoder
	datasets *DatasetCache
	addr     string

	mu         sync.Mutex
	selectedID int
}

// NewServer creates a server over one listings file. The geocoder may be a
// disabled one; searches then require explicit coordinates.
func NewServer(csvPath string, geocoder Geocoder) *Server {
	return &Server{
		csvPath:  csvPath,
		geocoder: NewGeocodeCache(geocoder),
		datasets: NewDatasetCache(),
		addr:     "localhost:8080",
	}
}

// NewServerWithRepository creates a server over an imported DuckDB store
// instead of a CSV file. Each search fetches only the rows whose H3 cell
// falls inside the covering of the search circle.
func NewServerWithRepository(repo Repository, geocoder Geocoder) *Server {
	return &Server{
		repo:     repo,
		geocoder: NewGeocodeCache(geocoder),
		addr:     "localhost:8080",
	}
}

// loadDataset returns the candidate rows for one search, from the repository
// when the server is database-backed, else from the cached CSV.
func (s *Server) loadDataset(params SearchParams) ([]*Listing, error) {
	if s.repo != nil {
		cells, err := CoveringCells(params.Center, params.RadiusKm)
		if err != nil {
			return nil, err
		}

		return s.repo.Candidates(cells)
	}

	listings, _, err := s.datasets.Load(s.csvPath, nil)

	return listings, err
}

func (s *Server) Run() error {
	r := gin.Default()

	r.GET("/api/geocode", s.geocodeAddress)
	r.GET("/api/search", s.search)
	r.POST("/api/selection", s.selectListing)
	r.GET("/api/export", s.export)

	return r.Run(s.addr)
}

func (s *Server) geocodeAddress(ctx *gin.Context) {
	address := sanitizeAddress(ctx.Query("address"))
	if address == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "address query parameter is required"})

		return
	}

	result, err := s.geocoder.Geocode(address)
	if err != nil {
		status := http.StatusBadGateway

		switch {
		case IsNotFoundError(err):
			status = http.StatusNotFound
		case IsGeocodingDisabled(err):
			status = http.StatusServiceUnavailable
		}

		ctx.JSON(status, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (s *Server) search(ctx *gin.Context) {
	params, err := s.parseSearchParams(ctx)
	if err != nil {
		return // parseSearchParams already wrote the response
	}

	listings, err := s.loadDataset(params)
	if err != nil {
		status := http.StatusInternalServerError
		if IsFatal(err) {
			status = http.StatusUnprocessableEntity
		}

		ctx.JSON(status, gin.H{"error": err.Error()})

		return
	}

	results := Search(listings, params)

	s.mu.Lock()
	selectedID := s.selectedID
	s.mu.Unlock()

	pins := make([]*Pin, 0, len(results)+1)
	pins = append(pins, &Pin{
		Point: params.Center,
		Color: PinColorCenter,
		Label: "検索の中心",
	})

	for _, l := range results {
		color := PinColorListing
		if l.ID == selectedID {
			color = PinColorSelected
		}

		pins = append(pins, &Pin{
			Listing: l,
			Point:   l.Point,
			Color:   color,
			Label:   l.Address,
		})
	}

	ctx.JSON(http.StatusOK, &SearchResponse{
		Center:   params.Center,
		Listings: results,
		Pins:     pins,
		Total:    len(results),
	})
}

type selectionRequest struct {
	ID int `json:"id"`
}

// selectListing records which listing the user clicked. The only observable
// effect is the pin color of the next search response.
func (s *Server) selectListing(ctx *gin.Context) {
	var req selectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid selection payload"})

		return
	}

	if req.ID < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "id must be zero or positive"})

		return
	}

	s.mu.Lock()
	s.selectedID = req.ID
	s.mu.Unlock()

	ctx.JSON(http.StatusOK, gin.H{"selected": req.ID})
}

func (s *Server) export(ctx *gin.Context) {
	params, err := s.parseSearchParams(ctx)
	if err != nil {
		return
	}

	listings, err := s.loadDataset(params)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	results := Search(listings, params)

	ctx.Header("Content-Type", "text/csv; charset=utf-8")
	ctx.Header("Content-Disposition", `attachment; filename="tochinavi_results.csv"`)

	if err := WriteCSV(ctx.Writer, results); err != nil {
		_ = ctx.Error(err)
	}
}

// parseSearchParams builds the search from query parameters. The center comes
// from lat/lng when given, otherwise from geocoding the address parameter. On
// failure the response is already written and an error returned.
func (s *Server) parseSearchParams(ctx *gin.Context) (SearchParams, error) {
	params := SearchParams{
		RadiusKm: 2.0,
		AreaMax:  AreaUnbounded,
	}

	latParam := ctx.Query("lat")
	lngParam := ctx.Query("lng")

	switch {
	case latParam != "" && lngParam != "":
		lat, err := strconv.ParseFloat(latParam, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat parameter"})

			return params, err
		}

		lng, err := strconv.ParseFloat(lngParam, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid lng parameter"})

			return params, err
		}

		params.Center = spatial.Point{Lat: lat, Lng: lng}
	case ctx.Query("address") != "":
		result, err := s.geocoder.Geocode(sanitizeAddress(ctx.Query("address")))
		if err != nil {
			status := http.StatusBadGateway

			switch {
			case IsNotFoundError(err):
				status = http.StatusNotFound
			case IsGeocodingDisabled(err):
				status = http.StatusServiceUnavailable
			}

			ctx.JSON(status, gin.H{"error": err.Error()})

			return params, err
		}

		params.Center = result.Point
	default:
		err := errors.New("either lat/lng or address is required")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return params, err
	}

	var err error

	if params.RadiusKm, err = floatQuery(ctx, "radius", params.RadiusKm); err != nil {
		return params, err
	}

	if params.AreaMin, err = floatQuery(ctx, "area_min", 0); err != nil {
		return params, err
	}

	if params.AreaMax, err = floatQuery(ctx, "area_max", AreaUnbounded); err != nil {
		return params, err
	}

	if params.PriceMin, err = optionalFloatQuery(ctx, "price_min"); err != nil {
		return params, err
	}

	if params.PriceMax, err = optionalFloatQuery(ctx, "price_max"); err != nil {
		return params, err
	}

	params.TrimOutliers = ctx.Query("trim") == "true" || ctx.Query("trim") == "1"

	if err := ValidateSearchParams(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return params, err
	}

	return params, nil
}

func floatQuery(ctx *gin.Context, name string, fallback float64) (float64, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s parameter", name)})

		return fallback, err
	}

	return value, nil
}

func optionalFloatQuery(ctx *gin.Context, name string) (*float64, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s parameter", name)})

		return nil, err
	}

	return &value, nil
}
