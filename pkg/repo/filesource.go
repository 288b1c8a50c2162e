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
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/xelalexv/advuid/pkg/dump"
)

// NewFileSource creates a dump source for a local file. Compressed dumps are
// recognized by their extension.
func NewFileSource(file string) (*FileSource, error) {
	if info, err := os.Stat(file); err != nil {
		return nil, err
	} else if info.IsDir() {
		return nil, &os.PathError{Op: "open", Path: file, Err: os.ErrInvalid}
	}
	return &FileSource{path: file}, nil
}

//
type FileSource struct {
	path string
}

//
func (fs *FileSource) Open() (io.ReadCloser, error) {

	f, err := os.Open(fs.path)
	if err != nil {
		return nil, err
	}

	_, comp := dump.SplitNameCompressor(fs.path)
	rd, err := dump.NewReader(&fileReader{file: f, reader: bufio.NewReader(f)}, comp)
	if err != nil {
		f.Close()
		return nil, err
	}

	return rd, nil
}

//
func (fs *FileSource) Name() string {
	return filepath.Base(fs.path)
}

//
type fileReader struct {
	file   *os.File
	reader io.Reader
}

//
func (fr *fileReader) Read(p []byte) (n int, err error) {
	return fr.reader.Read(p)
}

//
func (fr *fileReader) Close() error {
	return fr.file.Close()
}
