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
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/algorand/go-herder/protocol"
)

var (
	scenarioFile string
	slotLimit    int
)

func init() {
	runCmd.Flags().StringVarP(&scenarioFile, "scenario", "s", "", "Scenario file (JSON) to play")
	runCmd.Flags().IntVarP(&slotLimit, "limit", "l", 0, "Report at most this many recent slots per node; all when zero")
	runCmd.MarkFlagRequired("scenario")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play a scenario and print what every node admitted",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			reportErrorf("Unable to load config from '%s': %v", dataDir, err)
		}
		sc, err := loadScenario(scenarioFile)
		if err != nil {
			reportErrorf("Unable to load scenario: %v", err)
		}
		reports, err := runScenario(context.Background(), sc, cfg, makeLogger(cfg), slotLimit)
		if err != nil {
			reportErrorf("Scenario failed: %v", err)
		}
		fmt.Fprintln(os.Stdout, string(protocol.EncodeJSON(reports)))
	},
}
