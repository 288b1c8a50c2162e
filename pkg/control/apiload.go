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
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/xelalexv/advuid/pkg/dump"
	"github.com/xelalexv/advuid/pkg/emulation"
	"github.com/xelalexv/advuid/pkg/machine"
	"github.com/xelalexv/advuid/pkg/repo"
)

//
func (a *api) load(w http.ResponseWriter, req *http.Request) {

	var src dump.Source

	if ref := getArg(req, "ref"); ref != "" {
		var err error
		if src, err = repo.Resolve(ref, a.repository); err != nil {
			handleError(err, http.StatusNotAcceptable, w)
			return
		}

	} else {
		name := getArg(req, "name")
		if name == "" {
			name = "upload.nfc"
		}
		data, err := io.ReadAll(http.MaxBytesReader(w, req.Body, dump.MaxDumpSize))
		if handleError(err, http.StatusRequestEntityTooLarge, w) {
			return
		}
		if len(data) == 0 {
			handleError(fmt.Errorf("no dump reference and no dump data"),
				http.StatusUnprocessableEntity, w)
			return
		}
		src = dump.NewMemorySource(name, data)
	}

	err := a.loop.Load(req.Context(), src)

	switch {
	case err == nil:
		s := a.loop.Snapshot()
		sendReply([]byte(fmt.Sprintf("loaded %s: %s, UID %s",
			s.Loaded, s.Profile.Name, s.UID.UID())), http.StatusOK, w)

	case errors.Is(err, emulation.ErrSessionActive):
		handleError(fmt.Errorf("emulation active, stop it first"),
			http.StatusConflict, w)

	case errors.Is(err, machine.ErrLoopClosed):
		handleError(err, http.StatusServiceUnavailable, w)

	default:
		handleError(fmt.Errorf("cannot load dump: %v", err),
			http.StatusUnprocessableEntity, w)
	}
}
