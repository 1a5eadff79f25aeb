// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"fmt"
	"regexp"

	"github.com/skawahara/tochinavi/utils"
)

// Field names a column of the canonical listing schema.
type Field string

// Canonical schema fields.
const (
	FieldAddress         Field = "address"
	FieldLatitude        Field = "latitude"
	FieldLongitude       Field = "longitude"
	FieldPrice           Field = "price"
	FieldAreaSqm         Field = "area_sqm"
	FieldAreaTsubo       Field = "area_tsubo"
	FieldZoning          Field = "zoning"
	FieldTransactionType Field = "transaction_type"
	FieldRegistrant      Field = "registrant"
	FieldPhone           Field = "phone"
	FieldListingDate     Field = "listing_date"
)

// MissingColumnError means a required canonical field could not be resolved
// against the input header row. Fatal for the session: without the column
// there is nothing to filter.
type MissingColumnError struct {
	Field Field
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column for field %q not found in header row", e.Field)
}

// Resolver lets the caller resolve a field the alias table could not.
// It receives the unresolved field and the raw header names and returns the
// chosen header, or false to leave the field unresolved. It replaces the
// interactive "which column is this?" prompt of a UI.
type Resolver func(field Field, headers []string) (string, bool)

// aliasRule matches header names for one canonical field. Exact entries and
// patterns are written in normalized form: NFKC-folded, lowercased, no spaces
// (full-width parentheses become ASCII, ㎡ becomes m2).
type aliasRule struct {
	exact    []string
	patterns []*regexp.Regexp
}

var aliasTable = map[Field]aliasRule{
	FieldAddress: {
		exact: []string{"住所", "所在地", "address"},
	},
	FieldLatitude: {
		exact: []string{"latitude", "lat", "緯度"},
	},
	FieldLongitude: {
		exact: []string{"longitude", "lng", "lon", "経度"},
	},
	FieldPrice: {
		exact:    []string{"登録価格(万円)", "価格(万円)", "price"},
		patterns: []*regexp.Regexp{regexp.MustCompile(`^(登録)?価格`)},
	},
	FieldAreaSqm: {
		exact:    []string{"土地面積(m2)", "面積(m2)"},
		patterns: []*regexp.Regexp{regexp.MustCompile(`面積.*(m2|平米)`)},
	},
	FieldAreaTsubo: {
		exact:    []string{"土地面積(坪)", "面積(坪)"},
		patterns: []*regexp.Regexp{regexp.MustCompile(`面積.*坪`)},
	},
	FieldZoning: {
		exact: []string{"用途地域", "zoning"},
	},
	FieldTransactionType: {
		exact: []string{"取引態様"},
	},
	FieldRegistrant: {
		exact: []string{"登録会員"},
	},
	FieldPhone: {
		exact: []string{"tel", "電話", "電話番号"},
	},
	FieldListingDate: {
		exact: []string{"公開日", "掲載日"},
	},
}

// allFields is the resolution order; required fields first.
var allFields = []Field{
	FieldAddress, FieldLatitude, FieldLongitude, FieldPrice,
	FieldAreaSqm, FieldAreaTsubo,
	FieldZoning, FieldTransactionType, FieldRegistrant, FieldPhone, FieldListingDate,
}

// ColumnMap maps canonical fields to column indexes of the input header row.
// Fields absent from the map were not present in the input.
type ColumnMap map[Field]int

// ResolveColumns maps the raw header row to the canonical schema. Overrides
// win over the alias table; the resolver, when given, gets a final say on
// anything still unresolved. Address, coordinates, price and at least one
// area column are required; the first one missing aborts resolution with a
// MissingColumnError naming it.
func ResolveColumns(headers []string, overrides map[Field]string, resolver Resolver) (ColumnMap, error) {
	index := make(map[string]int, len(headers))
	keys := make([]string, len(headers))

	for i, h := range headers {
		key := utils.NormalizeKey(h)
		keys[i] = key

		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}

	columns := make(ColumnMap, len(allFields))

	for _, field := range allFields {
		if name, ok := overrides[field]; ok {
			if i, found := index[utils.NormalizeKey(name)]; found {
				columns[field] = i

				continue
			}
		}

		if i, ok := matchAliases(field, index, keys); ok {
			columns[field] = i

			continue
		}

		if resolver != nil {
			if name, ok := resolver(field, headers); ok {
				if i, found := index[utils.NormalizeKey(name)]; found {
					columns[field] = i
				}
			}
		}
	}

	for _, field := range []Field{FieldAddress, FieldLatitude, FieldLongitude, FieldPrice} {
		if _, ok := columns[field]; !ok {
			return nil, &MissingColumnError{Field: field}
		}
	}

	_, hasSqm := columns[FieldAreaSqm]
	_, hasTsubo := columns[FieldAreaTsubo]

	if !hasSqm && !hasTsubo {
		return nil, &MissingColumnError{Field: FieldAreaTsubo}
	}

	return columns, nil
}

func matchAliases(field Field, index map[string]int, keys []string) (int, bool) {
	rule := aliasTable[field]

	for _, alias := range rule.exact {
		if i, ok := index[alias]; ok {
			return i, true
		}
	}

	// First matching header wins so resolution is deterministic.
	for _, pattern := range rule.patterns {
		for i, key := range keys {
			if pattern.MatchString(key) {
				return i, true
			}
		}
	}

	return 0, false
}
