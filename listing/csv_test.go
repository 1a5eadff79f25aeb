// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const testHeader = "住所,緯度,経度,登録価格（万円）,土地面積（坪）\n"

func writeTestCSV(t *testing.T, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "listings.csv")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	return path
}

func TestLoadCSVPlainUTF8(t *testing.T) {
	content := testHeader +
		"浜松市中央区板屋町,34.705,137.735,1000,50\n" +
		"浜松市中央区砂山町,34.701,137.732,1500,60\n"

	path := writeTestCSV(t, []byte(content))

	listings, metrics, err := LoadCSV(path, nil)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}

	if metrics.Loaded != 2 || len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}

	got := listings[0]
	if got.Address != "浜松市中央区板屋町" {
		t.Errorf("unexpected address: %s", got.Address)
	}

	if got.Price == nil || *got.Price != 1000 {
		t.Errorf("unexpected price: %v", got.Price)
	}

	if got.UnitPrice == nil || *got.UnitPrice != 20.0 {
		t.Errorf("unexpected unit price: %v", got.UnitPrice)
	}

	// Derived from tsubo
	if got.AreaSqm == nil || *got.AreaSqm != 165.29 {
		t.Errorf("unexpected derived area in m2: %v", got.AreaSqm)
	}
}

func TestLoadCSVWithBOM(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte(testHeader+
		"浜松市中央区板屋町,34.705,137.735,1000,50\n")...)

	path := writeTestCSV(t, content)

	listings, _, err := LoadCSV(path, nil)
	if err != nil {
		t.Fatalf("LoadCSV failed on BOM file: %v", err)
	}

	if len(listings) != 1 || listings[0].Address != "浜松市中央区板屋町" {
		t.Fatalf("BOM not stripped before header resolution")
	}
}

func TestLoadCSVShiftJIS(t *testing.T) {
	content := testHeader + "浜松市中央区板屋町,34.705,137.735,1000,50\n"

	encoded, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(content))
	if err != nil {
		t.Fatalf("encoding test data: %v", err)
	}

	path := writeTestCSV(t, encoded)

	listings, _, err := LoadCSV(path, nil)
	if err != nil {
		t.Fatalf("LoadCSV failed on Shift_JIS file: %v", err)
	}

	if len(listings) != 1 || listings[0].Address != "浜松市中央区板屋町" {
		t.Fatalf("Shift_JIS content not decoded")
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, _, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), nil)

	var fileErr *InputFileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("expected InputFileError, got %v", err)
	}

	if !IsFatal(err) {
		t.Error("a missing input file must be fatal")
	}
}

func TestLoadCSVNumberFormats(t *testing.T) {
	content := testHeader +
		"A,34.705,137.735,\"1,200\",50\n" + // thousands separator
		"B,34.705,137.735,１５００,60\n" + // full-width digits
		"C,34.705,137.735,N/A,70\n" + // malformed price
		"D,34.705,137.735,-,80\n" // absent price

	path := writeTestCSV(t, []byte(content))

	listings, metrics, err := LoadCSV(path, nil)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}

	if len(listings) != 4 {
		t.Fatalf("expected all 4 rows kept, got %d", len(listings))
	}

	if listings[0].Price == nil || *listings[0].Price != 1200 {
		t.Errorf("thousands separator not handled: %v", listings[0].Price)
	}

	if listings[1].Price == nil || *listings[1].Price != 1500 {
		t.Errorf("full-width digits not handled: %v", listings[1].Price)
	}

	if listings[2].Price != nil {
		t.Errorf("malformed price should be nil, got %v", *listings[2].Price)
	}

	if listings[3].Price != nil {
		t.Errorf("absent price should be nil, got %v", *listings[3].Price)
	}

	// Only the malformed cell counts; "-" is a plain absence.
	if metrics.BadNumbers != 1 {
		t.Errorf("expected 1 bad number, got %d", metrics.BadNumbers)
	}
}

func TestLoadCSVDropsBadCoordinates(t *testing.T) {
	content := testHeader +
		"A,34.705,137.735,1000,50\n" +
		"B,,137.735,1000,50\n" + // missing latitude
		"C,91.0,137.735,1000,50\n" + // latitude out of range
		"D,34.705,181.0,1000,50\n" + // longitude out of range
		"E,abc,137.735,1000,50\n" // unparseable latitude

	path := writeTestCSV(t, []byte(content))

	listings, metrics, err := LoadCSV(path, nil)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}

	if len(listings) != 1 || listings[0].Address != "A" {
		t.Fatalf("expected only row A to survive, got %d rows", len(listings))
	}

	if metrics.DroppedCoordinates != 4 {
		t.Errorf("expected 4 dropped rows, got %d", metrics.DroppedCoordinates)
	}
}

func TestLoadCSVAreaConversion(t *testing.T) {
	content := "住所,緯度,経度,登録価格（万円）,土地面積（㎡）\n" +
		"A,34.705,137.735,1000,165.2892\n"

	path := writeTestCSV(t, []byte(content))

	listings, _, err := LoadCSV(path, nil)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}

	got := listings[0]
	if got.AreaTsubo == nil || *got.AreaTsubo != 50.0 {
		t.Errorf("expected 50 tsubo from 165.2892 m2, got %v", got.AreaTsubo)
	}
}

func TestLoadCSVMissingAreaKeptButCounted(t *testing.T) {
	content := testHeader +
		"A,34.705,137.735,1000,N/A\n" +
		"B,34.705,137.735,1000,50\n"

	path := writeTestCSV(t, []byte(content))

	listings, metrics, err := LoadCSV(path, nil)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}

	if len(listings) != 2 {
		t.Fatalf("rows without area must stay in the dataset, got %d rows", len(listings))
	}

	if metrics.MissingArea != 1 {
		t.Errorf("expected 1 row without area, got %d", metrics.MissingArea)
	}

	if listings[0].UnitPrice != nil {
		t.Errorf("unit price without area should be nil, got %v", *listings[0].UnitPrice)
	}
}

func TestWriteCSV(t *testing.T) {
	l := &Listing{
		ID:        1,
		Address:   "浜松市中央区板屋町",
		Price:     fp(1000),
		AreaTsubo: fp(50),
		AreaSqm:   fp(165.29),
	}
	l.computeUnitPrice()

	dist := 1.5
	l.DistanceKm = &dist

	var buf bytes.Buffer
	if err := WriteCSV(&buf, []*Listing{l}); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("exported CSV must start with a UTF-8 BOM")
	}

	text := string(out)
	if !strings.Contains(text, "住所,距離km,登録価格（万円）") {
		t.Errorf("missing header: %s", text)
	}

	if !strings.Contains(text, "浜松市中央区板屋町,1.5,1000,20,50,165.29") {
		t.Errorf("missing data row: %s", text)
	}
}
