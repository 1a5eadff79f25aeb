// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/skawahara/tochinavi/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
