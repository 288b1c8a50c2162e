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

package run

import (
	"fmt"
	"io"
	"os"
)

//
func NewProfiles() *Profiles {

	p := &Profiles{}
	p.Runner = *NewRunner(
		"profiles [-a|--address {address}] [-j|--json]",
		"list supported tag technologies",
		`
Use the profiles command to list the tag technologies the daemon can emulate,
together with their UID length, default UID, and increment window.`,
		"", runnerHelpEpilogue, p.Run)

	p.AddBaseSettings()
	p.AddSetting(&p.JSON, "json", "j", "", false, "output profiles as JSON", false)

	return p
}

//
type Profiles struct {
	Runner
	//
	JSON bool
}

//
func (p *Profiles) Run() error {

	if err := p.ParseSettings(); err != nil {
		return err
	}

	resp, err := p.apiCall("GET", "/profiles", p.JSON, nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	fmt.Println()
	if _, err := io.Copy(os.Stdout, resp); err != nil {
		return err
	}

	fmt.Println()
	return nil
}
