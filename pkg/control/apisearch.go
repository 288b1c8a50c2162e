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
	"strings"

	"github.com/xelalexv/advuid/pkg/repo"
)

// SearchPageSize is the number of hits returned if the request does not say.
const SearchPageSize = 100

//
func (a *api) search(w http.ResponseWriter, req *http.Request) {

	if a.index == nil {
		handleError(fmt.Errorf("search index not available"),
			http.StatusServiceUnavailable, w)
		return
	}

	items, err := getIntArg(req, "items", SearchPageSize)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	res, err := a.index.Search(getArg(req, "term"), items)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if wantsJSON(req) {
		sendJSONReply(res, http.StatusOK, w)
		return
	}

	var sb strings.Builder
	WriteSearchResult(&sb, res)
	sendReply([]byte(sb.String()), http.StatusOK, w)
}

// WriteSearchResult lists the hits with the reference to pass to load, and
// tells whether hits were left out.
func WriteSearchResult(w io.Writer, res *repo.SearchResult) {

	if len(res.Hits) == 0 {
		fmt.Fprintln(w, "no matching dumps")
		return
	}

	for _, h := range res.Hits {
		fmt.Fprintf(w, "%s\n    load with: %s\n", h, h.Ref)
	}

	if res.Complete {
		fmt.Fprintf(w, "\n%d matching dumps\n", res.Total)
	} else {
		fmt.Fprintf(w, "\nshowing %d of %d matching dumps, use --items for more\n",
			len(res.Hits), res.Total)
	}
}
