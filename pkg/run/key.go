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

	"github.com/xelalexv/advuid/pkg/machine"
)

//
func NewKey() *Key {

	k := &Key{}
	k.Runner = *NewRunner(
		"key [-a|--address {address}] -k|--key up|down|left|right|ok|back [-n|--repeat {count}]",
		"send key press to daemon",
		`
Use the key command to operate the daemon's state machine remotely, in the same
way as with the keys of the terminal UI. Keys are queued and processed in order.`,
		`  advuid key -k ok          # select menu item, or start/stop emulation
  advuid key -k up -n 16    # increment the UID 16 times`,
		runnerHelpEpilogue, k.Run)

	k.AddBaseSettings()
	k.AddSetting(&k.Key, "key", "k", "", nil, "key to press", true)
	k.AddSetting(&k.Repeat, "repeat", "n", "", 1, "number of presses", false)

	return k
}

//
type Key struct {
	Runner
	//
	Key    string
	Repeat int
}

//
func (k *Key) Run() error {

	if err := k.ParseSettings(); err != nil {
		return err
	}

	key, err := machine.ParseKey(k.Key)
	if err != nil {
		return err
	}

	resp, err := k.apiCall("PUT",
		fmt.Sprintf("/key/%s?repeat=%d", key, k.Repeat), false, nil)
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
