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

package dump

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"

	log "github.com/sirupsen/logrus"
)

// NewReader wraps r so that reading from the returned reader yields the
// decompressed dump. An empty compressor passes r through unchanged.
func NewReader(r io.ReadCloser, compressor string) (*Reader, error) {

	log.WithField("compressor", compressor).Debug("dump reader requested")

	var ret *Reader
	var err error

	switch compressor {

	case "gzip", "gz":
		ret, err = getGZipReader(r)

	case "zip":
		ret, err = getArchiveReader(r, false)

	case "7z":
		ret, err = getArchiveReader(r, true)

	case "":
		ret = &Reader{readCloser: r}

	default:
		err = fmt.Errorf("unsupported compressor: %s", compressor)
	}

	if err != nil {
		r.Close()
		return nil, err
	}

	log.WithFields(log.Fields{
		"compressor": ret.compressor,
		"name":       ret.name}).Debug("dump reader created")

	return ret, nil
}

// Reader reads a possibly compressed dump. For archives, the first entry is
// used.
type Reader struct {
	readCloser io.ReadCloser
	closers    []io.Closer
	//
	name       string
	compressor string
}

//
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.readCloser.Read(p)
}

//
func (r *Reader) Close() error {
	err := r.readCloser.Close()
	for _, c := range r.closers {
		if e := c.Close(); err == nil {
			err = e
		}
	}
	return err
}

// Name is the name of the dump file inside an archive, if known.
func (r *Reader) Name() string {
	return r.name
}

//
func (r *Reader) Compressor() string {
	return r.compressor
}

//
func getGZipReader(r io.ReadCloser) (*Reader, error) {

	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}

	ret := &Reader{readCloser: gzr, closers: []io.Closer{r}}
	ret.name, _ = SplitNameCompressor(gzr.Name)
	ret.compressor = "gzip"

	return ret, nil
}

// getArchiveReader needs random access, so the archive is read into memory
// first. Dumps are small.
func getArchiveReader(r io.ReadCloser, zip7 bool) (*Reader, error) {

	var sponge bytes.Buffer
	size, err := io.Copy(&sponge, io.LimitReader(r, MaxDumpSize))
	if err != nil {
		return nil, err
	}
	r.Close()

	ret := &Reader{}
	var entry string

	if zip7 {
		zr, err := sevenzip.NewReader(bytes.NewReader(sponge.Bytes()), size)
		if err != nil {
			return nil, err
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("empty 7-zip archive")
		}
		if len(zr.File) > 1 {
			log.Warn("7-zip archive has more than one entry, using first")
		}
		entry = zr.File[0].Name
		ret.compressor = "7z"
		ret.readCloser, err = zr.File[0].Open()
		if err != nil {
			return nil, err
		}

	} else {
		zr, err := zip.NewReader(bytes.NewReader(sponge.Bytes()), size)
		if err != nil {
			return nil, err
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("empty zip archive")
		}
		if len(zr.File) > 1 {
			log.Warn("zip archive has more than one entry, using first")
		}
		entry = zr.File[0].Name
		ret.compressor = "zip"
		ret.readCloser, err = zr.File[0].Open()
		if err != nil {
			return nil, err
		}
	}

	ret.name, _ = SplitNameCompressor(entry)
	return ret, nil
}

// SplitNameCompressor separates the compressor extension from a dump file
// name. The returned name has its directory stripped, but keeps a non
// compressor extension such as .nfc.
func SplitNameCompressor(file string) (name, compressor string) {

	_, name = filepath.Split(file)

	for {
		ext := filepath.Ext(name)
		switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
		case "gz", "gzip", "zip", "7z":
			if compressor == "" {
				compressor = strings.ToLower(strings.TrimPrefix(ext, "."))
			}
			name = strings.TrimSuffix(name, ext)
			continue
		}
		break
	}

	if compressor == "gzip" {
		compressor = "gz"
	}

	return name, compressor
}
