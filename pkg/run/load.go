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
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/xelalexv/advuid/pkg/dump"
	"github.com/xelalexv/advuid/pkg/repo"
)

//
func NewLoad() *Load {

	l := &Load{}
	l.Runner = *NewRunner(
		"load [-a|--address {address}] -r|--ref {reference} | -i|--input {file}",
		"load NFC dump into daemon",
		`
Use the load command to set the daemon's UID and technology from an NFC dump.
A reference is resolved by the daemon, and can be a repo://{path} into the
daemon's repository, an http(s) URL, or a path on the daemon's machine. An
input file is read locally, decompressed if needed, and uploaded.`,
		`  advuid load -r repo://amiibo/mario.nfc
  advuid load -i ./dumps/keyfob.nfc.gz`,
		`- Loading is refused while an emulation session is running.

`+runnerHelpEpilogue, l.Run)

	l.AddBaseSettings()
	l.AddSetting(&l.Ref, "ref", "r", "", nil, "dump reference for the daemon", false)
	l.AddSetting(&l.Input, "input", "i", "", nil, "local dump file to upload", false)

	return l
}

//
type Load struct {
	Runner
	//
	Ref   string
	Input string
}

//
func (l *Load) Run() error {

	if err := l.ParseSettings(); err != nil {
		return err
	}

	var resp io.ReadCloser
	var err error

	switch {

	case l.Ref != "" && l.Input != "":
		return fmt.Errorf("use either reference or input file, not both")

	case l.Ref != "":
		resp, err = l.apiCall("PUT",
			fmt.Sprintf("/load?ref=%s", url.QueryEscape(l.Ref)), false, nil)

	case l.Input != "":
		var name string
		var data []byte
		if name, data, err = readDump(l.Input); err != nil {
			return err
		}
		resp, err = l.apiCall("PUT",
			fmt.Sprintf("/load?name=%s", url.QueryEscape(name)),
			false, bytes.NewReader(data))

	default:
		return fmt.Errorf("no dump reference or input file given")
	}

	if err != nil {
		return err
	}
	defer resp.Close()

	msg, err := io.ReadAll(resp)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n\n", msg)
	return nil
}

// readDump reads a local dump file, decompressing it if needed. The
// returned name is the file name of the plain dump.
func readDump(file string) (string, []byte, error) {

	src, err := repo.NewFileSource(file)
	if err != nil {
		return "", nil, err
	}

	in, err := src.Open()
	if err != nil {
		return "", nil, err
	}
	defer in.Close()

	data, err := io.ReadAll(io.LimitReader(in, dump.MaxDumpSize+1))
	if err != nil {
		return "", nil, err
	}
	if len(data) > dump.MaxDumpSize {
		return "", nil, fmt.Errorf("dump too large: %s", file)
	}

	name, _ := dump.SplitNameCompressor(src.Name())
	fmt.Fprintf(os.Stderr, "uploading %s\n", name)

	return name, data, nil
}
