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

package control

import (
	"fmt"
	"io"
	"net/http"

	"github.com/xelalexv/advuid/pkg/machine"
)

// Status is the state of the emulator as reported by the API.
type Status struct {
	State      string `json:"state"`
	Tech       string `json:"tech"`
	Profile    string `json:"profile"`
	UID        string `json:"uid"`
	Offset     int    `json:"offset"`
	Length     int    `json:"length"`
	Window     string `json:"window"`
	Current    uint64 `json:"current"`
	Max        uint64 `json:"max"`
	Step       int    `json:"step"`
	AutoDelay  int    `json:"autoDelay"`
	FuzzDelay  int    `json:"fuzzDelay"`
	Mode       string `json:"mode"`
	Active     bool   `json:"active"`
	Emulating  string `json:"emulating,omitempty"`
	Loaded     string `json:"loaded,omitempty"`
	Edit       string `json:"edit"`
	Cursor     int    `json:"cursor"`
	FuzzIndex  int    `json:"fuzzIndex"`
	FuzzRandom bool   `json:"fuzzRandom"`
}

// NewStatus derives the API status from a machine snapshot.
func NewStatus(s machine.Snapshot) *Status {

	ret := &Status{
		State:      s.State.String(),
		Tech:       s.Profile.Tech.Key(),
		Profile:    s.Profile.Name,
		Mode:       s.Mode.String(),
		Active:     s.Active,
		Emulating:  s.Emulating,
		Loaded:     s.Loaded,
		Edit:       s.Edit,
		Cursor:     s.Cursor,
		FuzzIndex:  s.Fuzz.Index,
		FuzzRandom: s.Fuzz.Random,
	}

	if u := s.UID; u != nil {
		ret.UID = u.UID()
		ret.Offset = u.Offset()
		ret.Length = u.Length()
		ret.Window = u.Window()
		ret.Current = u.Current()
		ret.Max = u.Max()
		ret.Step = u.Step()
		ret.AutoDelay = u.AutoDelay()
		ret.FuzzDelay = u.FuzzDelay()
	}

	return ret
}

// WriteStatus writes a human readable status.
func WriteStatus(w io.Writer, s *Status) {

	fmt.Fprintf(w, "\nscreen:     %s\n", s.State)
	fmt.Fprintf(w, "profile:    %s\n", s.Profile)
	if s.Loaded != "" {
		fmt.Fprintf(w, "dump:       %s\n", s.Loaded)
	}
	fmt.Fprintf(w, "UID:        %s\n", s.UID)
	fmt.Fprintf(w, "window:     %d+%d = %s (%d of %d)\n",
		s.Offset, s.Length, s.Window, s.Current, s.Max)
	fmt.Fprintf(w, "step:       %d\n", s.Step)
	fmt.Fprintf(w, "delays:     auto %dms, fuzzer %dms\n", s.AutoDelay, s.FuzzDelay)

	fuzz := "predefined"
	if s.FuzzRandom {
		fuzz = "random"
	}
	fmt.Fprintf(w, "fuzzer:     %s, index %d\n", fuzz, s.FuzzIndex)

	if s.Active {
		em := s.Emulating
		if em == "" {
			em = "no listener"
		}
		fmt.Fprintf(w, "emulating:  %s (%s)\n\n", em, s.Mode)
	} else {
		fmt.Fprintf(w, "emulating:  off\n\n")
	}
}

//
func (a *api) status(w http.ResponseWriter, req *http.Request) {

	st := NewStatus(a.loop.Snapshot())

	if wantsJSON(req) {
		sendJSONReply(st, http.StatusOK, w)
		return
	}

	read, write := io.Pipe()

	go func() {
		WriteStatus(write, st)
		write.Close()
	}()

	sendStreamReply(read, http.StatusOK, w)
}
