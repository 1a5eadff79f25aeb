// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/skawahara/tochinavi/listing"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	CSVPath string
	DbPath  string
}

var serveOpts = &serveOptions{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "地図表示用の検索 API サーバーを起動する (local only)",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		apiKey := listing.ResolveAPIKey(context.Background())
		geocoder := listing.NewGoogleMapsGeocoder(apiKey)

		var server *listing.Server

		if serveOpts.DbPath != "" {
			dbpath := databaseFile(serveOpts.DbPath)
			if _, err := os.Stat(dbpath); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("database not found at %s - run 'import' first", dbpath)
			}

			db, err := sql.Open("duckdb", dbpath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			repo := listing.NewRepository(db)
			if err := repo.CreateSchema(); err != nil {
				return fmt.Errorf("creating schema: %w", err)
			}

			server = listing.NewServerWithRepository(repo, geocoder)
		} else {
			if _, err := os.Stat(serveOpts.CSVPath); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("listings file not found at %s", serveOpts.CSVPath)
			}

			server = listing.NewServer(serveOpts.CSVPath, geocoder)
		}

		fmt.Println("🗺️  Listing search server starting...")
		fmt.Println("📍 JSON API on http://localhost:8080 (try GET /api/search?lat=...&lng=...)")
		fmt.Println("🔒 Local only - not exposed to internet")

		return server.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOpts.CSVPath, "csv", "listings.csv",
		"リスティング CSV ファイルのパス")
	serveCmd.Flags().StringVar(&serveOpts.DbPath, "db", "",
		"import 済み DuckDB ディレクトリのパス（指定時は CSV の代わりに使用）")
}
