// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/elcorstat/internal/config"
)

var (
	configOut   string
	configForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show, check or write the configuration",
	Long: `Work with the elcorstat configuration file.

Settings are read from --config (or elcorstat.yaml in the working directory),
then ELCORSTAT_* environment variables, then command line flags. The device
password is never stored; it comes from ELGAS_PASSWORD or a prompt.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadOfflineConfig(cmd)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the configuration can open a connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path := settingsPath()
		if path == "" {
			path = "(no file)"
		}
		fmt.Printf("Config OK: %s\n", path)
		fmt.Printf("Target:    %s\n", cfg.Target())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to a file",
	Example: `  elcorstat config init --host 10.0.0.5 --tcp-port 10001 --dst1 2
  elcorstat config init --port /dev/ttyUSB0 --address-order big --out station.yaml`,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configValidateCmd, configInitCmd)
	configInitCmd.Flags().StringVarP(&configOut, "out", "o", config.DefaultPath, "File to write")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if !configForce {
		if _, err := os.Stat(configOut); err == nil {
			return fmt.Errorf("%s exists, use --force to overwrite", configOut)
		}
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Save(configOut); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", configOut)
	return nil
}
