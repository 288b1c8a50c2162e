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

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/advuid/pkg/listener"
	"github.com/xelalexv/advuid/pkg/util"
)

//
type Version struct {
	Daemon   string `json:"daemon"`
	Listener string `json:"listener"`
}

//
func (v *Version) String() string {
	return fmt.Sprintf("daemon:     %s\nlistener:   %s\n", v.Daemon, v.Listener)
}

//
func (a *api) version(w http.ResponseWriter, req *http.Request) {

	ver := &Version{Daemon: util.AdvUIDVersion, Listener: "n/a"}

	if v, ok := a.service.(listener.Versioned); ok {
		if lv, err := v.Version(); err == nil {
			ver.Listener = lv
		} else {
			log.Warnf("cannot get listener version: %v", err)
			ver.Listener = "not reachable"
		}
	}

	if wantsJSON(req) {
		sendJSONReply(ver, http.StatusOK, w)
	} else {
		sendReply([]byte(ver.String()), http.StatusOK, w)
	}
}
