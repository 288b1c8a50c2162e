/*
   AdvUID - NFC tag UID emulation controller
   Copyright (c) 2023, Alexander Vollschwitz

   This file is part of AdvUID.

   AdvUID is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   AdvUID is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with AdvUID. If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xelalexv/advuid/pkg/run"
)

//
func main() {

	root := &cobra.Command{
		Use:   "advuid",
		Short: "NFC tag UID emulation controller",
		Long: `
AdvUID emulates NFC tags with configurable UIDs, which can be edited, stepped
through, incremented on a timer, or fuzzed. It runs as a daemon with a control
API, or interactively in a terminal UI.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		&run.NewServe().Command,
		&run.NewTUI().Command,
		&run.NewStatus().Command,
		&run.NewKey().Command,
		&run.NewLoad().Command,
		&run.NewSearch().Command,
		&run.NewProfiles().Command,
		&run.NewInspect().Command,
		&run.NewCapture().Command,
		&run.NewVersion().Command,
	)

	if err := root.Execute(); err != nil {
		log.Debugf("command failed: %v", err)
		fmt.Fprintf(os.Stderr, "\n%v\n\n", err)
		os.Exit(1)
	}
}
