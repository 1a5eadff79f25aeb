// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/skawahara/tochinavi/listing"
	"github.com/skawahara/tochinavi/utils"
	"github.com/spf13/cobra"
)

const importBatchSize = 500

type importOptions struct {
	CSVPath string
	DbPath  string
}

var importOpts = &importOptions{}

func databaseFile(dbPath string) string {
	return filepath.Join(dbPath, "tochinavi.duckdb")
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "リスティング CSV を DuckDB に取り込む",
	Long: `
CSV を解析して DuckDB に保存します。大きなデータセットでも search が
CSV を毎回読み直さずに済むようになります。
`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := os.MkdirAll(importOpts.DbPath, 0o750); err != nil {
			return fmt.Errorf("creating db directory: %w", err)
		}

		listings, metrics, err := listing.LoadCSV(importOpts.CSVPath, nil)
		if err != nil {
			return err
		}

		db, err := sql.Open("duckdb", databaseFile(importOpts.DbPath))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		repo := listing.NewRepository(db)
		if err := repo.CreateSchema(); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(listings),
				progressbar.OptionSetDescription("Importing "+filepath.Base(importOpts.CSVPath)),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		for start := 0; start < len(listings); start += importBatchSize {
			end := start + importBatchSize
			if end > len(listings) {
				end = len(listings)
			}

			if err := repo.BulkInsert(listings[start:end]); err != nil {
				return fmt.Errorf("inserting batch at row %d: %w", start, err)
			}

			if bar != nil {
				_ = bar.Add(end - start)
			}
		}

		total, err := repo.Count()
		if err != nil {
			return fmt.Errorf("counting rows: %w", err)
		}

		log.Printf("✅ Imported %s rows (%d dropped for coordinates); database now holds %s rows",
			utils.FormatInt(int64(metrics.Loaded)),
			metrics.DroppedCoordinates,
			utils.FormatInt(int64(total)),
		)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importOpts.CSVPath, "csv", "listings.csv",
		"リスティング CSV ファイルのパス")
	importCmd.Flags().StringVar(&importOpts.DbPath, "db", "db",
		"DuckDB を保存するディレクトリ")
}
