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
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/xelalexv/advuid/pkg/dump"
	"github.com/xelalexv/advuid/pkg/repo"
)

//
func NewInspect() *Inspect {

	i := &Inspect{}
	i.Runner = *NewRunner(
		"inspect -i|--input {reference} [-r|--repo {dir}]",
		"show what a dump would be emulated as",
		`
Use the inspect command to import an NFC dump locally, without a daemon, and see
the technology, UID, and increment window it would be emulated with, together
with a hex dump of the listener payload.`,
		"", runnerHelpEpilogue, i.Run)

	i.AddSetting(&i.Input, "input", "i", "", nil,
		"dump file, http(s) URL, or repo:// reference", true)
	i.AddSetting(&i.Repository, "repo", "r", "", nil,
		"repository for resolving repo:// references", false)

	return i
}

//
type Inspect struct {
	Runner
	//
	Input      string
	Repository string
}

//
func (i *Inspect) Run() error {

	if err := i.ParseSettings(); err != nil {
		return err
	}

	src, err := repo.Resolve(i.Input, i.Repository)
	if err != nil {
		return err
	}

	res, err := dump.Import(src)
	if err != nil {
		return err
	}

	state, err := res.NewState()
	if err != nil {
		return err
	}

	p := res.Profile()
	payload := p.Build(state.Bytes())

	printInspection(os.Stdout, res, p.Name, state.Offset(), state.Length(),
		state.Window(), state.Current(), payload.String(), payload.Bytes())

	return nil
}

//
func printInspection(w io.Writer, res *dump.Result, tech string, offset, length int,
	window string, current uint64, payload string, raw []byte) {

	device := res.DeviceType
	if device == "" {
		device = "n/a"
	}

	fmt.Fprintf(w, `
dump:       %s
device:     %s
tech:       %s
UID:        %s (%d bytes)
increment:  digits %d-%d, window %s, count %d
payload:    %s

`, res.Name, device, tech, res.UID, res.ByteLen(),
		offset, offset+length-1, window, current, payload)

	d := hex.Dumper(w)
	d.Write(raw)
	d.Close()
	fmt.Fprintln(w)
}
