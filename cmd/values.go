// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/elcorstat/internal/errors"
	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

var valuesCmd = &cobra.Command{
	Use:   "values",
	Short: "Read instantaneous values",
	Long: `Read the instantaneous values with READ_VALUES and print the device
timestamp, data access byte, status words, parameter CRC and the value block.

The value block layout depends on the firmware and is printed as hex.
Needs the device password (ELGAS_PASSWORD or prompt).`,
	RunE: runValues,
}

func init() {
	rootCmd.AddCommand(valuesCmd)
}

func runValues(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()

	resp, err := s.client.ReadValues(ctx)
	if err != nil {
		return errors.WrapExchangeError(err, "Read values")
	}
	fmt.Print(elgas.FormatResponse(resp))
	return nil
}
