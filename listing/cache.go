// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"os"
	"sync"

	"github.com/skawahara/tochinavi/utils"
)

// GeocodeCache memoizes geocoding results per normalized address, so repeated
// searches around the same place cost one API call. Failures are not cached;
// a transient provider error should not poison the address.
type GeocodeCache struct {
	inner Geocoder

	mu      sync.Mutex
	results map[string]*GeocodingResult
}

// NewGeocodeCache wraps a geocoder with an in-memory result cache.
func NewGeocodeCache(inner Geocoder) *GeocodeCache {
	return &GeocodeCache{
		inner:   inner,
		results: make(map[string]*GeocodingResult),
	}
}

func (c *GeocodeCache) Geocode(address string) (*GeocodingResult, error) {
	key := utils.NormalizeKey(address)

	c.mu.Lock()
	cached, ok := c.results[key]
	c.mu.Unlock()

	if ok {
		return cached, nil
	}

	result, err := c.inner.Geocode(address)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.results[key] = result
	c.mu.Unlock()

	return result, nil
}

// Len returns the number of cached addresses.
func (c *GeocodeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.results)
}

type datasetEntry struct {
	modTime  int64
	size     int64
	listings []*Listing
	metrics  *LoadMetrics
}

// DatasetCache memoizes parsed listings files keyed by path plus file
// modification time and size, so a file edited in place is reloaded and an
// untouched one is not reparsed on every search.
type DatasetCache struct {
	mu      sync.Mutex
	entries map[string]*datasetEntry
}

// NewDatasetCache creates an empty dataset cache.
func NewDatasetCache() *DatasetCache {
	return &DatasetCache{entries: make(map[string]*datasetEntry)}
}

// Load returns the parsed listings for path, reloading only when the file
// changed since the last call.
func (c *DatasetCache) Load(path string, opts *LoadOptions) ([]*Listing, *LoadMetrics, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, &InputFileError{Path: path, Err: err}
	}

	modTime := info.ModTime().UnixNano()
	size := info.Size()

	c.mu.Lock()
	entry, ok := c.entries[path]
	c.mu.Unlock()

	if ok && entry.modTime == modTime && entry.size == size {
		return entry.listings, entry.metrics, nil
	}

	listings, metrics, err := LoadCSV(path, opts)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	c.entries[path] = &datasetEntry{
		modTime:  modTime,
		size:     size,
		listings: listings,
		metrics:  metrics,
	}
	c.mu.Unlock()

	return listings, metrics, nil
}
