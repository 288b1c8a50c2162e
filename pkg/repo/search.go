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

package repo

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	log "github.com/sirupsen/logrus"
)

// Hit is a dump found by a search. Ref can be passed to Resolve.
type Hit struct {
	Path       string `json:"path"`
	Ref        string `json:"ref"`
	UID        string `json:"uid"`
	Tech       string `json:"tech"`
	DeviceType string `json:"deviceType,omitempty"`
}

//
type SearchResult struct {
	Hits     []Hit  `json:"hits"`
	Total    uint64 `json:"total"`
	Complete bool   `json:"complete"`
}

// Search looks up dumps matching term, which uses the bleve query string
// syntax, e.g. NTAG215 or a complete UID. At most max hits are returned.
func (i *Index) Search(term string, max int) (*SearchResult, error) {

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("no search term")
	}

	log.Debugf("searching for '%s'", term)
	query := bleve.NewQueryStringQuery(term)
	search := bleve.NewSearchRequestOptions(query, max+1, 0, false)
	search.Fields = []string{"UID", "Tech", "DeviceType"}

	res, err := i.index.Search(search)
	if err != nil {
		return nil, err
	}

	ret := &SearchResult{
		Hits:     make([]Hit, len(res.Hits)),
		Total:    res.Total,
		Complete: true}

	for ix, h := range res.Hits {
		ret.Hits[ix] = Hit{
			Path:       h.ID,
			Ref:        SchemeRepo + h.ID,
			UID:        field(h.Fields, "UID"),
			Tech:       field(h.Fields, "Tech"),
			DeviceType: field(h.Fields, "DeviceType"),
		}
	}

	if len(ret.Hits) > max {
		ret.Hits = ret.Hits[:max]
		ret.Complete = false
	}

	return ret, nil
}

//
func field(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

//
func (h Hit) String() string {
	if h.DeviceType != "" {
		return fmt.Sprintf("%-40s %-16s %s", h.Path, h.UID, h.DeviceType)
	}
	return fmt.Sprintf("%-40s %-16s %s", h.Path, h.UID, h.Tech)
}
