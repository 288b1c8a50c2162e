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
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/advuid/pkg/dump"
)

//
var httpClient = &http.Client{Timeout: 30 * time.Second}

// NewHTTPSource creates a dump source for a dump served via HTTP. The dump is
// fetched anew on every Open.
func NewHTTPSource(u string) (*HTTPSource, error) {

	parsed, err := url.Parse(u)
	if err != nil {
		return nil, err
	}

	name := path.Base(parsed.Path)
	if name == "/" || name == "." {
		name = parsed.Host
	}

	return &HTTPSource{url: u, name: name}, nil
}

//
type HTTPSource struct {
	url  string
	name string
}

//
func (hs *HTTPSource) Open() (io.ReadCloser, error) {

	log.WithField("url", hs.url).Debug("fetching dump")

	resp, err := httpClient.Get(hs.url)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: %s", hs.url, resp.Status)
	}

	_, comp := dump.SplitNameCompressor(hs.name)
	rd, err := dump.NewReader(&httpReader{
		response: resp,
		reader:   io.LimitReader(resp.Body, dump.MaxDumpSize)}, comp)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}

	return rd, nil
}

//
func (hs *HTTPSource) Name() string {
	return hs.name
}

//
type httpReader struct {
	response *http.Response
	reader   io.Reader
}

//
func (hr *httpReader) Read(p []byte) (n int, err error) {
	return hr.reader.Read(p)
}

//
func (hr *httpReader) Close() error {
	return hr.response.Body.Close()
}
