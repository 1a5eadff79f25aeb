// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/skawahara/tochinavi/utils"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadMetrics counts what happened to the rows of a listings file. Exclusions
// are not errors: the affected rows are simply absent from search results.
type LoadMetrics struct {
	Rows               int // data rows seen (header excluded)
	Loaded             int // rows that made it into the dataset
	DroppedCoordinates int // rows dropped for missing or out-of-range coordinates
	MissingArea        int // rows kept but with no usable area value
	BadNumbers         int // numeric cells that failed to parse
}

// LoadOptions tunes schema resolution for a listings file.
type LoadOptions struct {
	// Overrides maps canonical fields to explicit header names, winning over
	// the alias table.
	Overrides map[Field]string
	// Resolver is consulted for fields the alias table cannot resolve.
	Resolver Resolver
}

// LoadCSV reads a listings file: UTF-8 (with or without BOM) first, Shift_JIS
// as fallback. Rows with invalid coordinates are dropped; unparseable numeric
// cells become nil and are counted, never fatal. A missing file, an
// undecodable file, or an unresolvable required column is fatal.
func LoadCSV(path string, opts *LoadOptions) ([]*Listing, *LoadMetrics, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, nil, &InputFileError{Path: path, Err: err}
	}

	decoded, err := decodeListings(data)
	if err != nil {
		return nil, nil, &InputFileError{Path: path, Err: err}
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, &InputFileError{Path: path, Err: err}
	}

	if len(records) == 0 {
		return nil, nil, &InputFileError{Path: path, Err: errors.New("empty file")}
	}

	var overrides map[Field]string

	var resolver Resolver

	if opts != nil {
		overrides = opts.Overrides
		resolver = opts.Resolver
	}

	columns, err := ResolveColumns(records[0], overrides, resolver)
	if err != nil {
		return nil, nil, err
	}

	metrics := &LoadMetrics{}
	listings := make([]*Listing, 0, len(records)-1)

	for row, record := range records[1:] {
		metrics.Rows++

		l := buildListing(row+1, record, columns, metrics)
		if l == nil {
			continue
		}

		metrics.Loaded++

		listings = append(listings, l)
	}

	log.Printf("Loaded %s of %s rows from %s (%d dropped for coordinates, %d without area, %d unparseable cells)",
		utils.FormatInt(int64(metrics.Loaded)),
		utils.FormatInt(int64(metrics.Rows)),
		path,
		metrics.DroppedCoordinates,
		metrics.MissingArea,
		metrics.BadNumbers,
	)

	return listings, metrics, nil
}

// decodeListings returns UTF-8 bytes for the file content, trying UTF-8
// (BOM-stripped) before the legacy Shift_JIS encoding.
func decodeListings(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if utf8.Valid(data) {
		return data, nil
	}

	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return nil, errors.New("content is neither valid UTF-8 nor Shift_JIS")
	}

	return decoded, nil
}

func buildListing(row int, record []string, columns ColumnMap, metrics *LoadMetrics) *Listing {
	l := &Listing{ID: row}

	l.Address = cell(record, columns, FieldAddress)
	l.Zoning = cell(record, columns, FieldZoning)
	l.TransactionType = cell(record, columns, FieldTransactionType)
	l.Registrant = cell(record, columns, FieldRegistrant)
	l.Phone = cell(record, columns, FieldPhone)
	l.ListingDate = cell(record, columns, FieldListingDate)

	lat := parseCell(row, record, columns, FieldLatitude, metrics)
	lng := parseCell(row, record, columns, FieldLongitude, metrics)

	if lat == nil || lng == nil {
		metrics.DroppedCoordinates++

		return nil
	}

	l.Point.Lat = *lat
	l.Point.Lng = *lng

	if !l.Point.Valid() {
		metrics.DroppedCoordinates++

		return nil
	}

	l.Price = parseCell(row, record, columns, FieldPrice, metrics)
	l.AreaTsubo = parseCell(row, record, columns, FieldAreaTsubo, metrics)
	l.AreaSqm = parseCell(row, record, columns, FieldAreaSqm, metrics)

	// Derive the missing area unit from the one that is present.
	if l.AreaTsubo == nil && l.AreaSqm != nil {
		tsubo := TsuboFromSqm(*l.AreaSqm)
		l.AreaTsubo = &tsubo
	} else if l.AreaSqm == nil && l.AreaTsubo != nil {
		sqm := SqmFromTsubo(*l.AreaTsubo)
		l.AreaSqm = &sqm
	}

	if l.AreaTsubo == nil || *l.AreaTsubo <= 0 {
		metrics.MissingArea++
	}

	l.computeUnitPrice()

	return l
}

// cell returns the trimmed text of a resolved column, or "" when the column
// was not resolved or the record is short.
func cell(record []string, columns ColumnMap, field Field) string {
	i, ok := columns[field]
	if !ok || i >= len(record) {
		return ""
	}

	return strings.TrimSpace(record[i])
}

// parseCell parses a numeric cell. Absent values are nil without ceremony;
// malformed values are nil, counted, and logged.
func parseCell(row int, record []string, columns ColumnMap, field Field, metrics *LoadMetrics) *float64 {
	raw := cell(record, columns, field)

	value, ok := parseNumber(raw)
	if !ok {
		metrics.BadNumbers++

		log.Printf("%v", &DataTypeError{Row: row, Column: string(field), Value: raw})
	}

	return value
}

// parseNumber parses a numeric string after folding full-width digits and
// stripping thousands separators. It returns (nil, true) for an absent value
// and (nil, false) for a malformed one.
func parseNumber(s string) (*float64, bool) {
	s = norm.NFKC.String(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")

	if s == "" || s == "-" {
		return nil, true
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}

	return &value, true
}

// exportColumns is the header of an exported result file, mirroring the
// columns a search renders.
var exportColumns = []string{
	"住所", "距離km", "登録価格（万円）", "坪単価（万円）", "土地面積（坪）", "土地面積（㎡）",
	"用途地域", "取引態様", "登録会員", "TEL", "公開日",
}

// WriteCSV writes filtered results as UTF-8 CSV with a BOM, the encoding the
// spreadsheet tools used by the listing staff expect.
func WriteCSV(w io.Writer, listings []*Listing) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(exportColumns); err != nil {
		return err
	}

	for _, l := range listings {
		record := []string{
			l.Address,
			formatFloat(l.DistanceKm),
			formatFloat(l.Price),
			formatFloat(l.UnitPrice),
			formatFloat(l.AreaTsubo),
			formatFloat(l.AreaSqm),
			l.Zoning,
			l.TransactionType,
			l.Registrant,
			l.Phone,
			l.ListingDate,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}

	return strconv.FormatFloat(*v, 'f', -1, 64)
}
