// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Thermoquad/elcorstat/internal/errors"
	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

var (
	paramsFrom    uint16
	paramsFormat  string
	paramsOut     string
	paramsTypes   []int
	paramsName    string
	paramsSummary bool
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Read the device parameter configuration",
	Long: `Page through the SCADA parameter stream with READ_SCADA_PARAMETERS and
print the decoded parameter records.

Output formats:
  text - one line per record (default)
  json - export objects {parameter_type, data}
  cbor - the same objects as deterministic CBOR
  raw  - the undecoded parameter stream, for later use with decode --params

--type and --name select records by object type number and by label.
--summary prints the record count per object type instead.

Needs the device password (ELGAS_PASSWORD or prompt).`,
	RunE: runParams,
}

func init() {
	rootCmd.AddCommand(paramsCmd)
	addRecordFlags(paramsCmd)
	paramsCmd.Flags().Uint16Var(&paramsFrom, "from", 0, "First object number to read")
}

// addRecordFlags registers the output and filter flags shared with decode
func addRecordFlags(c *cobra.Command) {
	c.Flags().StringVarP(&paramsFormat, "format", "f", formatText, "Output format: text, json, cbor or raw")
	c.Flags().StringVarP(&paramsOut, "out", "o", "", "Write output to a file instead of stdout")
	c.Flags().IntSliceVar(&paramsTypes, "type", nil, "Only records of these object types (e.g. --type 30,32)")
	c.Flags().StringVar(&paramsName, "name", "", "Only records whose label contains this text")
	c.Flags().BoolVar(&paramsSummary, "summary", false, "Print record counts per object type")
}

func runParams(cmd *cobra.Command, args []string) error {
	if paramsFormat == formatRaw && (len(paramsTypes) > 0 || paramsName != "" || paramsSummary) {
		return fmt.Errorf("--type, --name and --summary need decoded records, not --format raw")
	}

	s, err := openSession(cmd, true)
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := s.client.ReadParameterData(cmd.Context(), paramsFrom)
	if err != nil {
		return errors.WrapExchangeError(err, "Read parameters")
	}
	if paramsFormat == formatRaw {
		return writeOutput(paramsOut, data, true)
	}

	records, err := elgas.DecodeParameters(data)
	if err != nil {
		return errors.WrapDecodeError(err, "parameter stream")
	}
	return printRecords(records)
}

// printRecords applies the filter flags and writes records in the chosen
// format
func printRecords(records []elgas.Record) error {
	records = filterRecords(records, paramsTypes, paramsName)

	if paramsSummary {
		var out []byte
		for _, tc := range summarizeRecords(records) {
			out = fmt.Appendf(out, "%-32s (%3d) %4d\n", tc.Type, uint8(tc.Type), tc.Count)
		}
		out = fmt.Appendf(out, "%-38s %4d\n", "Total", len(records))
		return writeOutput(paramsOut, out, false)
	}

	out, err := encodeRecords(records, paramsFormat)
	if err != nil {
		return err
	}
	return writeOutput(paramsOut, out, paramsFormat == formatCBOR)
}

// writeOutput writes data to path, or to stdout when path is empty.
// Binary data is not written to a terminal.
func writeOutput(path string, data []byte, binary bool) error {
	if path == "" {
		if binary && term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("refusing to write binary output to a terminal, use --out")
		}
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s\n", len(data), path)
	return nil
}
