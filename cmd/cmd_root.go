// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})

	// A missing .env is the normal case; the environment still applies.
	_ = godotenv.Load()
}

var rootCmd = &cobra.Command{
	Use:   "tochinavi",
	Short: "土地リスティングの距離検索ツール",
	Long: `
tochinavi は土地リスティングの CSV を読み込み、指定した住所または座標を
中心に半径・面積・価格で絞り込み、坪単価の高い順に並べて表示します。
`,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
