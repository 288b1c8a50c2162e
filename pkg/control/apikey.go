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

	"github.com/xelalexv/advuid/pkg/machine"
)

// maxRepeat limits how often a key can be pressed with one request
const maxRepeat = 256

//
func (a *api) key(w http.ResponseWriter, req *http.Request) {

	k, err := machine.ParseKey(getArg(req, "key"))
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	repeat, err := getIntArg(req, "repeat", 1)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}
	if repeat < 1 || repeat > maxRepeat {
		handleError(fmt.Errorf("repeat must be within 1 and %d", maxRepeat),
			http.StatusUnprocessableEntity, w)
		return
	}

	for ix := 0; ix < repeat; ix++ {
		if err := a.loop.Input(req.Context(), k); err != nil {
			handleError(err, http.StatusServiceUnavailable, w)
			return
		}
	}

	sendReply([]byte(fmt.Sprintf("pressed %s", k)), http.StatusOK, w)
}
