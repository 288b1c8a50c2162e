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
	"net/http"
	"strings"

	"github.com/xelalexv/advuid/pkg/profile"
)

// Profile is a technology profile as reported by the API.
type Profile struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Bytes      int    `json:"bytes"`
	DefaultUID string `json:"defaultUID"`
	Offset     int    `json:"offset"`
	Length     int    `json:"length"`
	ATQA       string `json:"atqa"`
	SAK        string `json:"sak"`
	Frame      string `json:"frame"`
	Prefix     string `json:"prefix,omitempty"`
}

// Profiles lists all technology profiles.
func Profiles() []Profile {
	var ret []Profile
	for _, p := range profile.All() {
		ret = append(ret, Profile{
			Key:        p.Tech.Key(),
			Name:       p.Name,
			Bytes:      p.ByteLen,
			DefaultUID: p.DefaultUID,
			Offset:     p.Offset,
			Length:     p.Length,
			ATQA:       fmt.Sprintf("%04X", p.ATQA),
			SAK:        fmt.Sprintf("%02X", p.SAK),
			Frame:      p.Frame().Kind().String(),
			Prefix:     p.Prefix,
		})
	}
	return ret
}

//
func (a *api) profiles(w http.ResponseWriter, req *http.Request) {

	list := Profiles()

	if wantsJSON(req) {
		sendJSONReply(list, http.StatusOK, w)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n%-12s %-18s %5s  %-16s %-4s %-3s %s\n",
		"KEY", "NAME", "BYTES", "DEFAULT UID", "ATQA", "SAK", "FRAME"))
	for _, p := range list {
		sb.WriteString(fmt.Sprintf("%-12s %-18s %5d  %-16s %-4s %-3s %s\n",
			p.Key, p.Name, p.Bytes, p.DefaultUID, p.ATQA, p.SAK, p.Frame))
	}
	sb.WriteString("\n")
	sendReply([]byte(sb.String()), http.StatusOK, w)
}
