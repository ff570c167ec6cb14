// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// elcorstat - ELCOR gas volume corrector client
//
// A CLI tool for reading ELCOR devices over the ELGAS protocol and decoding
// captured traffic in human-readable format.

package main

import (
	"fmt"
	"os"

	"github.com/Thermoquad/elcorstat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
