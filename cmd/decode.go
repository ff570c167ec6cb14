// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/elcorstat/internal/errors"
)

var (
	decodeFrameHex   string
	decodeParamsFile string
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a captured frame or parameter file offline",
	Long: `Decode protocol data without a device.

--frame takes one escaped frame as hex, as captured on the wire. Response
frames are decoded to their service response, Call frames from a device to
their fields, and other request frames to their header. Encrypted frames
need --key and --key-id.

--params takes a parameter file: .json or .cbor exports, or a raw parameter
stream for any other extension. The params output and filter flags apply.

Link settings (address order, key) come from the usual configuration, but
no connection is opened.`,
	Example: `  elcorstat decode --frame 02FE866C17000000000200021033123005060C2D20D49B0D
  elcorstat decode --params station.bin --format json --out station.json`,
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringVar(&decodeFrameHex, "frame", "", "Escaped frame as hex")
	decodeCmd.Flags().StringVar(&decodeParamsFile, "params", "", "Parameter file to decode")
	addRecordFlags(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	if (decodeFrameHex == "") == (decodeParamsFile == "") {
		return fmt.Errorf("give exactly one of --frame and --params")
	}

	if decodeParamsFile != "" {
		if paramsFormat == formatRaw {
			return fmt.Errorf("--format raw is only available when reading from a device")
		}
		records, err := loadRecordsFile(decodeParamsFile)
		if err != nil {
			return errors.WrapDecodeError(err, decodeParamsFile)
		}
		return printRecords(records)
	}

	cfg, err := loadOfflineConfig(cmd)
	if err != nil {
		return err
	}
	wire, err := parseHexFrame(decodeFrameHex)
	if err != nil {
		return err
	}
	cipher, err := cfg.Cipher()
	if err != nil {
		return err
	}
	order, err := cfg.AddressOrder()
	if err != nil {
		return err
	}

	d, err := decodeWireFrame(wire, order, cipher)
	if d != nil {
		fmt.Print(d.String())
	}
	if err != nil {
		return errors.WrapDecodeError(err, "frame")
	}
	return nil
}
