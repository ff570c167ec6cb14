// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/elcorstat/internal/errors"
	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

var (
	archiveName             string
	archiveFromID           uint32
	archiveSince            string
	archiveAmount           uint16
	archiveParamsFile       string
	archiveRecordLengthFlag int
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Read archive records",
	Long: `Read records from one of the device archives, either by record id
(READ_ARCHIVES, --from-id) or by time (READ_ARCHIVES_BY_DATE, --since).
Without either flag the records of the last 24 hours are requested.

Records are split using the record length the device announces in its
system parameters. These come from --params (a file written by
params --format json|cbor|raw) or are read from the device first.
--record-length skips the lookup. Data archive records are printed as
named values; other archives as hex.

Archives: extreme, data, binary, daily, monthly, setting, fast_1, fast_2,
status, billing, gas_composition

Needs the device password (ELGAS_PASSWORD or prompt).`,
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.Flags().StringVarP(&archiveName, "archive", "a", "data", "Archive to read")
	archiveCmd.Flags().Uint32Var(&archiveFromID, "from-id", 0, "First record id")
	archiveCmd.Flags().StringVar(&archiveSince, "since", "", "First record time (RFC3339)")
	archiveCmd.Flags().Uint16Var(&archiveAmount, "amount", 1, "Number of records")
	archiveCmd.Flags().StringVar(&archiveParamsFile, "params", "", "Parameter file describing the archive layout")
	archiveCmd.Flags().IntVar(&archiveRecordLengthFlag, "record-length", 0, "Archive record length in bytes")
}

func runArchive(cmd *cobra.Command, args []string) error {
	archive, err := elgas.ParseArchive(archiveName)
	if err != nil {
		return err
	}
	byID := cmd.Flags().Changed("from-id")
	if byID && archiveSince != "" {
		return fmt.Errorf("--from-id and --since are mutually exclusive")
	}
	since := time.Now().Add(-24 * time.Hour)
	if archiveSince != "" {
		if since, err = time.Parse(time.RFC3339, archiveSince); err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
	}

	var records []elgas.Record
	if archiveParamsFile != "" {
		if records, err = loadRecordsFile(archiveParamsFile); err != nil {
			return errors.WrapDecodeError(err, archiveParamsFile)
		}
	}

	s, err := openSession(cmd, true)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := cmd.Context()

	if records == nil && archiveRecordLengthFlag == 0 {
		if records, err = s.client.ReadParameters(ctx, 0); err != nil {
			return errors.WrapExchangeError(err, "Read parameters")
		}
	}

	var resp *elgas.ArchiveResponse
	if byID {
		resp, err = s.client.ReadArchive(ctx, archive, archiveFromID, archiveAmount)
	} else {
		resp, err = s.client.ReadArchiveByTime(ctx, archive, wallClock(since), archiveAmount)
	}
	if err != nil {
		return errors.WrapExchangeError(err, "Read archive")
	}

	fmt.Print(elgas.FormatResponse(resp))
	return printArchive(os.Stdout, resp, records, archiveRecordLengthFlag)
}

// printArchive splits the archive data into records and prints them. A
// non-zero recordLength overrides the length from records.
func printArchive(w io.Writer, resp *elgas.ArchiveResponse, records []elgas.Record, recordLength int) error {
	if len(resp.Data) == 0 {
		fmt.Fprintln(w, "No records")
		return nil
	}
	if recordLength == 0 {
		var err error
		if recordLength, err = archiveRecordLength(records, resp.Archive); err != nil {
			return err
		}
	}
	rows, err := elgas.SplitArchiveRecords(resp.Data, recordLength)
	if err != nil {
		return errors.WrapDecodeError(err, "archive data")
	}

	var cols []elgas.ArchiveColumn
	if resp.Archive == elgas.ArchiveData {
		cols = elgas.DataArchiveColumns(records)
	}
	for i, row := range rows {
		if len(cols) == 0 {
			fmt.Fprintf(w, "%4d  %s\n", i, hex.EncodeToString(row))
			continue
		}
		var fields []string
		for _, col := range cols {
			v, err := col.Value(row)
			if err != nil {
				fields = append(fields, fmt.Sprintf("%s=?", col.Name))
				continue
			}
			field := fmt.Sprintf("%s=%g", col.Name, v)
			if col.Unit != "" {
				field += " " + col.Unit
			}
			fields = append(fields, field)
		}
		fmt.Fprintf(w, "%4d  %s\n", i, strings.Join(fields, ", "))
	}
	return nil
}
