// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/elcorstat/internal/transport"
	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

var (
	rawErrorsOnly    bool
	rawShowHex       bool
	rawStatsInterval time.Duration
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display frames seen on the link in human-readable format",
	Long: `Passively decode and display ELGAS frames as they arrive, in both
directions. Nothing is sent.

Requests from a master are shown with their header, device responses are
decoded to their service response, and device calls to their fields.
Encrypted frames are opened when --key and --key-id are set.

Frames that fail to decode before the first good one are counted as
synchronization noise. After that every failure is reported and counted.
Statistics are printed every --stats-interval (0 disables them).

Supports serial, TCP and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawErrorsOnly, "errors-only", false, "Only show frames that fail to decode")
	rawLogCmd.Flags().BoolVar(&rawShowHex, "hex", false, "Also print each frame's wire bytes")
	rawLogCmd.Flags().DurationVar(&rawStatsInterval, "stats-interval", 0, "Statistics interval (e.g. 10s)")
}

// frameLog prints decoded wire frames and keeps statistics
type frameLog struct {
	w          io.Writer
	order      elgas.AddressOrder
	cipher     *elgas.Cipher
	stats      *elgas.Statistics
	errorsOnly bool
	showHex    bool

	synchronized bool
	skipped      int
}

// handle decodes and prints one wire frame
func (l *frameLog) handle(wire []byte) {
	l.stats.RecordReceived(len(wire))
	d, err := decodeWireFrame(wire, l.order, l.cipher)

	if !l.synchronized {
		if err != nil {
			l.skipped += len(wire)
			return
		}
		l.synchronized = true
		if l.skipped > 0 {
			fmt.Fprintf(l.w, "[SYNC] Synchronized after skipping %d bytes\n\n", l.skipped)
		} else {
			fmt.Fprintf(l.w, "[SYNC] Synchronized\n\n")
		}
	}
	l.stats.RecordFrame(err)

	if err != nil {
		timestamp := time.Now().Format("15:04:05.000")
		fmt.Fprintf(l.w, "[%s] \033[1;31mDECODE ERROR:\033[0m %v\n", timestamp, err)
		if d != nil {
			fmt.Fprintf(l.w, "  %s\n", elgas.FormatFrame(d.Frame))
		}
		fmt.Fprintf(l.w, "  Wire: % X\n\n", wire)
		return
	}
	if l.errorsOnly {
		return
	}
	fmt.Fprint(l.w, d.String())
	if l.showHex {
		fmt.Fprintf(l.w, "  Wire: % X\n", wire)
	}
	fmt.Fprintln(l.w)
}

func runRawLog(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()

	link, err := s.cfg.ConnectionConfig()
	if err != nil {
		return err
	}

	fmt.Printf("elcorstat - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", s.transport.Info())
	fmt.Printf("Press Ctrl+C to exit\n\n")

	log := &frameLog{
		w:          os.Stdout,
		order:      link.AddressOrder,
		cipher:     link.Cipher,
		stats:      elgas.NewStatistics(),
		errorsOnly: rawErrorsOnly,
		showHex:    rawShowHex,
	}

	ctx := cmd.Context()
	frames := make(chan []byte, 10)
	readErr := make(chan error, 1)
	go func() {
		for {
			wire, err := s.transport.Receive(ctx)
			if err != nil {
				if stderrors.Is(err, transport.ErrTimeout) {
					continue
				}
				readErr <- err
				return
			}
			frames <- wire
		}
	}()

	var tick <-chan time.Time
	if rawStatsInterval > 0 {
		ticker := time.NewTicker(rawStatsInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case wire := <-frames:
			log.handle(wire)

		case <-tick:
			fmt.Println()
			fmt.Print(log.stats.String())
			fmt.Println()

		case err := <-readErr:
			if stderrors.Is(err, transport.ErrConnectionClosed) {
				fmt.Println("Connection closed")
				return nil
			}
			if ctx.Err() != nil {
				fmt.Print(log.stats.String())
				return nil
			}
			return err
		}
	}
}
