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

var discoveryWait time.Duration

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Discover devices on the link",
	Long: `Send READ_DEVICE_TIME to the broadcast address 0/0 and list every
device that answers with its address and clock.

Zero in either destination address makes every device answer, so this
finds the address of a device on a point-to-point link or of each device
on a shared bus. Use the reported address with --dst1/--dst2.

Answers are collected until --wait expires.`,
	RunE: runDiscovery,
}

func init() {
	rootCmd.AddCommand(discoveryCmd)
	discoveryCmd.Flags().DurationVar(&discoveryWait, "wait", 5*time.Second, "How long to collect answers")
}

// discoveredDevice is one device that answered a broadcast
type discoveredDevice struct {
	Address elgas.Address
	Time    *elgas.ReadTimeResponse
}

// broadcastRequest builds the wire bytes of a READ_DEVICE_TIME broadcast
func broadcastRequest(link elgas.ConnectionConfig) ([]byte, error) {
	link.Destination = elgas.Address{}
	return elgas.NewConnection(link).Send(&elgas.ReadTimeRequest{})
}

// collectAnswers reads frames until ctx is done and keeps the devices
// that answered READ_DEVICE_TIME
func collectAnswers(ctx context.Context, tr *transport.Transport, link elgas.ConnectionConfig, found func(discoveredDevice)) (int, error) {
	count := 0
	seen := make(map[elgas.Address]bool)
	for {
		wire, err := tr.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return count, nil
			}
			if stderrors.Is(err, transport.ErrTimeout) {
				continue
			}
			return count, err
		}

		d, err := decodeWireFrame(wire, link.AddressOrder, link.Cipher)
		if err != nil || d.Frame.Service != elgas.ServiceReadDeviceTime {
			continue
		}
		rt, ok := d.Response.(*elgas.ReadTimeResponse)
		if !ok || seen[d.Frame.Source] {
			continue
		}
		seen[d.Frame.Source] = true
		count++
		found(discoveredDevice{Address: d.Frame.Source, Time: rt})
	}
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()

	link, err := s.cfg.ConnectionConfig()
	if err != nil {
		return err
	}

	fmt.Printf("elcorstat - Device Discovery\n")
	fmt.Printf("Connection: %s\n", s.transport.Info())
	fmt.Printf("Wait: %s\n\n", discoveryWait)

	wire, err := broadcastRequest(link)
	if err != nil {
		return err
	}
	fmt.Printf("Sending READ_DEVICE_TIME to 0/0...\n")
	if err := s.transport.Send(wire); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), discoveryWait)
	defer cancel()
	count, err := collectAnswers(ctx, s.transport, link, func(d discoveredDevice) {
		fmt.Printf("\nDevice found:\n")
		fmt.Printf("  Address: %s\n", d.Address)
		fmt.Printf("  Clock:   %s\n", elgas.FormatDeviceTime(d.Time.Time))
	})
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}

	// Summary
	fmt.Printf("\n--- Discovery summary ---\n")
	fmt.Printf("Devices found: %d\n", count)
	if count == 0 {
		return fmt.Errorf("no devices answered, check the connection and device power")
	}
	return nil
}
