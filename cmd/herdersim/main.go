// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/algorand/go-herder/config"
	"github.com/algorand/go-herder/logging"
)

var (
	versionCheck bool
	dataDir      string
)

var rootCmd = &cobra.Command{
	Use:   "herdersim",
	Short: "Drive envelope admission over a simulated network",
	Long:  "herdersim runs a set of herder services connected by an in-process network, feeds them the envelopes of a scenario file and reports what each node admitted.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if versionCheck {
			fmt.Println(config.FormatVersionAndLicense())
			return
		}
		// If no arguments passed, we should fallback to help
		cmd.HelpFunc()(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Flags().BoolVarP(&versionCheck, "version", "v", false, "Display and write current build version and exit")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "datadir", "d", "", "Directory holding config.json; defaults are used when empty")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func reportErrorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// loadConfig reads the node configuration from the data directory, if one was given.
// A missing config.json is not an error.
func loadConfig() (config.Local, error) {
	if dataDir == "" {
		return config.GetDefaultLocal(), nil
	}
	cfg, err := config.LoadConfigFromDisk(dataDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}
	return cfg, nil
}

func makeLogger(cfg config.Local) logging.Logger {
	log := logging.NewLogger()
	log.SetLevel(logging.Level(cfg.BaseLoggerDebugLevel))
	log.SetOutput(os.Stderr)
	return log
}
