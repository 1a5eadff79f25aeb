// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/skawahara/tochinavi/listing"
	"github.com/skawahara/tochinavi/spatial"
	"github.com/spf13/cobra"
)

type searchOptions struct {
	CSVPath string
	DbPath  string

	Address  string
	Lat      float64
	Lng      float64
	RadiusKm float64

	AreaMin  float64
	AreaMax  float64
	PriceMin float64
	PriceMax float64

	TrimOutliers bool
	Output       string
}

var searchOpts = &searchOptions{}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "リスティングを中心地からの距離で検索する",
	Long: `
住所（ジオコーディング）または --lat/--lng の座標を中心に、半径・面積・
価格で絞り込み、坪単価の高い順に表示します。--output で CSV に保存できます。
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		center, err := resolveCenter(cmd)
		if err != nil {
			return err
		}

		params := listing.SearchParams{
			Center:       *center,
			RadiusKm:     searchOpts.RadiusKm,
			AreaMin:      searchOpts.AreaMin,
			AreaMax:      searchOpts.AreaMax,
			TrimOutliers: searchOpts.TrimOutliers,
		}

		if searchOpts.AreaMax <= 0 {
			params.AreaMax = listing.AreaUnbounded
		}

		if cmd.Flags().Changed("price-min") {
			params.PriceMin = &searchOpts.PriceMin
		}

		if cmd.Flags().Changed("price-max") {
			params.PriceMax = &searchOpts.PriceMax
		}

		if err := listing.ValidateSearchParams(&params); err != nil {
			return err
		}

		listings, err := loadListings(params)
		if err != nil {
			return err
		}

		results := listing.Search(listings, params)

		if searchOpts.Output != "" {
			return writeResults(searchOpts.Output, results)
		}

		printResults(results)

		return nil
	},
}

// resolveCenter turns the address or coordinate flags into a center point.
// Geocoding needs a credential; without one the coordinate flags still work.
func resolveCenter(cmd *cobra.Command) (*spatial.Point, error) {
	if searchOpts.Address != "" {
		apiKey := listing.ResolveAPIKey(context.Background())

		geocoder := listing.NewGoogleMapsGeocoder(apiKey)

		result, err := geocoder.Geocode(searchOpts.Address)
		if err != nil {
			if listing.IsGeocodingDisabled(err) {
				return nil, errors.New("geocoding is disabled without an API key; pass --lat and --lng instead")
			}

			return nil, fmt.Errorf("geocoding %q: %w", searchOpts.Address, err)
		}

		log.Printf("📍 %s → (%.6f, %.6f) [%s]",
			result.DisplayName, result.Point.Lat, result.Point.Lng, result.Confidence)

		return &result.Point, nil
	}

	if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lng") {
		return nil, errors.New("either --address or both --lat and --lng are required")
	}

	return &spatial.Point{Lat: searchOpts.Lat, Lng: searchOpts.Lng}, nil
}

// loadListings reads from the DuckDB store when --db is set, falling back to
// parsing the CSV directly. The database path uses the H3 covering of the
// search circle so only nearby rows are fetched.
func loadListings(params listing.SearchParams) ([]*listing.Listing, error) {
	if searchOpts.DbPath != "" {
		db, err := sql.Open("duckdb", databaseFile(searchOpts.DbPath))
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		repo := listing.NewRepository(db)
		if err := repo.CreateSchema(); err != nil {
			return nil, fmt.Errorf("creating schema: %w", err)
		}

		cells, err := listing.CoveringCells(params.Center, params.RadiusKm)
		if err != nil {
			return nil, err
		}

		return repo.Candidates(cells)
	}

	listings, _, err := listing.LoadCSV(searchOpts.CSVPath, nil)

	return listings, err
}

func writeResults(path string, results []*listing.Listing) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if err := listing.WriteCSV(f, results); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	log.Printf("Wrote %d rows to %s", len(results), path)

	return nil
}

func printResults(results []*listing.Listing) {
	if len(results) == 0 {
		fmt.Println("該当する物件はありませんでした。")

		return
	}

	a, b, c, d, e := strings.Repeat("─", 40), strings.Repeat("─", 6),
		strings.Repeat("─", 10), strings.Repeat("─", 10), strings.Repeat("─", 10)
	fmt.Printf("検索結果: %d 件\n", len(results))
	fmt.Printf("╭─%-40s─┬─%6s─┬─%10s─┬─%10s─┬─%10s─╮\n", a, b, c, d, e)
	fmt.Printf("│ %-40s │ %6s │ %10s │ %10s │ %10s │\n", "住所", "距離km", "価格(万円)", "坪単価", "面積(坪)")
	fmt.Printf("├─%-40s─┼─%6s─┼─%10s─┼─%10s─┼─%10s─┤\n", a, b, c, d, e)

	for _, l := range results {
		fmt.Printf("│ %-40s │ %6s │ %10s │ %10s │ %10s │\n",
			truncate(l.Address, 40),
			formatValue(l.DistanceKm),
			formatValue(l.Price),
			formatValue(l.UnitPrice),
			formatValue(l.AreaTsubo),
		)
	}

	fmt.Printf("╰─%-40s─┴─%6s─┴─%10s─┴─%10s─┴─%10s─╯\n", a, b, c, d, e)
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}

	return fmt.Sprintf("%.1f", *v)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n-1]) + "…"
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchOpts.CSVPath, "csv", "listings.csv",
		"リスティング CSV ファイルのパス")
	searchCmd.Flags().StringVar(&searchOpts.DbPath, "db", "",
		"import 済み DuckDB ディレクトリのパス（指定時は CSV の代わりに使用）")
	searchCmd.Flags().StringVar(&searchOpts.Address, "address", "",
		"検索の中心となる住所（ジオコーディングされます）")
	searchCmd.Flags().Float64Var(&searchOpts.Lat, "lat", 0, "中心の緯度")
	searchCmd.Flags().Float64Var(&searchOpts.Lng, "lng", 0, "中心の経度")
	searchCmd.Flags().Float64Var(&searchOpts.RadiusKm, "radius", 2.0, "検索半径 (km)")
	searchCmd.Flags().Float64Var(&searchOpts.AreaMin, "area-min", 0, "最小土地面積 (坪)")
	searchCmd.Flags().Float64Var(&searchOpts.AreaMax, "area-max", 0, "最大土地面積 (坪)。0 は上限なし")
	searchCmd.Flags().Float64Var(&searchOpts.PriceMin, "price-min", 0, "最低価格 (万円)")
	searchCmd.Flags().Float64Var(&searchOpts.PriceMax, "price-max", 0, "最高価格 (万円)")
	searchCmd.Flags().BoolVar(&searchOpts.TrimOutliers, "trim-outliers", false,
		"結果の最高値と最安値の 1 件ずつを除外する")
	searchCmd.Flags().StringVar(&searchOpts.Output, "output", "", "結果を CSV に書き出すパス")
}
