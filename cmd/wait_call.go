// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/elcorstat/internal/transport"
	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

var waitCallTimeout time.Duration

var waitCallCmd = &cobra.Command{
	Use:   "wait_call",
	Short: "Wait for a device to call in",
	Long: `Listen on the link until a device sends a CALL frame, then print it.

Devices with a modem dial their dispatching center on a schedule and
identify themselves with a CALL frame (station id, GUID, modem and SIM ids,
connection counters, firmware). Any other frames are ignored.

Fails when no call arrives within --wait.`,
	RunE: runWaitCall,
}

func init() {
	rootCmd.AddCommand(waitCallCmd)
	waitCallCmd.Flags().DurationVar(&waitCallTimeout, "wait", 5*time.Minute, "How long to wait for a call")
}

// waitForCall reads frames until a Call decodes or ctx is done. It
// returns the number of other frames skipped.
func waitForCall(ctx context.Context, tr *transport.Transport, link elgas.ConnectionConfig) (*decodedFrame, int, error) {
	skipped := 0
	for {
		wire, err := tr.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, skipped, ctx.Err()
			}
			if stderrors.Is(err, transport.ErrTimeout) {
				continue
			}
			return nil, skipped, err
		}
		d, err := decodeWireFrame(wire, link.AddressOrder, link.Cipher)
		if err != nil || d.Call == nil {
			skipped++
			continue
		}
		return d, skipped, nil
	}
}

func runWaitCall(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()

	link, err := s.cfg.ConnectionConfig()
	if err != nil {
		return err
	}

	fmt.Printf("elcorstat - Wait for Call\n")
	fmt.Printf("Connection: %s\n", s.transport.Info())
	fmt.Printf("Wait: %s\n\n", waitCallTimeout)

	ctx, cancel := context.WithTimeout(cmd.Context(), waitCallTimeout)
	defer cancel()

	d, skipped, err := waitForCall(ctx, s.transport, link)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("no call received within %s", waitCallTimeout)
		}
		return err
	}
	if skipped > 0 {
		fmt.Printf("(skipped %d other frames)\n", skipped)
	}
	fmt.Print(d.String())
	return nil
}
