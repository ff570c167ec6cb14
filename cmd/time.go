// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/elcorstat/internal/errors"
	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

var (
	timeSync     bool
	timeCount    int
	timeInterval time.Duration
)

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Read (or set) the device clock",
	Long: `Read the device clock with READ_DEVICE_TIME and print it with the
round-trip time and the drift against the host clock.

The device keeps local wall-clock time without a zone, so drift is measured
against the host's local wall clock.

With --sync the host time is written with WRITE_DEVICE_TIME and read back.
Writing needs the device password (ELGAS_PASSWORD or prompt).

Exit codes:
  0 - All reads successful
  1 - One or more reads failed`,
	RunE: runTime,
}

func init() {
	rootCmd.AddCommand(timeCmd)
	timeCmd.Flags().BoolVar(&timeSync, "sync", false, "Write the host time to the device first")
	timeCmd.Flags().IntVar(&timeCount, "count", 1, "Number of reads")
	timeCmd.Flags().DurationVar(&timeInterval, "interval", time.Second, "Delay between reads")
}

// wallClock returns t's local wall-clock reading as a zoneless UTC time,
// the form device timestamps are decoded into
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func runTime(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, timeSync)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()

	fmt.Printf("elcorstat - Device Time\n")
	fmt.Printf("Connection: %s\n\n", s.transport.Info())

	if timeSync {
		now := time.Now()
		if err := s.client.WriteTime(ctx, now); err != nil {
			return errors.WrapExchangeError(err, "Write device time")
		}
		fmt.Printf("Device time set to %s\n\n", now.Format("2006-01-02 15:04:05"))
	}

	failCount := 0
	for i := 1; i <= timeCount; i++ {
		if timeCount > 1 {
			fmt.Printf("Read %d/%d: ", i, timeCount)
		}

		start := time.Now()
		resp, err := s.client.ReadTime(ctx)
		if err != nil {
			if timeCount == 1 {
				return errors.WrapExchangeError(err, "Read device time")
			}
			fmt.Printf("FAILED: %v\n", err)
			failCount++
		} else {
			rtt := time.Since(start)
			drift := resp.Time.Time.Sub(wallClock(start.Add(rtt / 2))).Round(time.Second)
			fmt.Printf("%s rtt=%v drift=%v\n", strings.TrimSpace(elgas.FormatResponse(resp)), rtt.Round(time.Millisecond), drift)
		}

		if i < timeCount {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(timeInterval):
			}
		}
	}

	if timeCount > 1 {
		fmt.Printf("\n--- Time statistics ---\n")
		fmt.Printf("%d reads, %d failed\n", timeCount, failCount)
	}
	if failCount > 0 {
		return fmt.Errorf("%d of %d reads failed", failCount, timeCount)
	}
	return nil
}
