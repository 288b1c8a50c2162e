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
	"bytes"
	"io"
)

// MaxDumpSize limits how much of a dump gets read.
const MaxDumpSize = 1048576

// Source provides the contents of a dump. Open may be called more than once,
// each call starting over from the beginning.
type Source interface {
	Open() (io.ReadCloser, error)
	Name() string
}

// NewMemorySource creates a source over a dump held in memory, e.g. one that
// was uploaded. The compressor is derived from the name.
func NewMemorySource(name string, data []byte) *MemorySource {
	d := make([]byte, len(data))
	copy(d, data)
	return &MemorySource{name: name, data: d}
}

//
type MemorySource struct {
	name string
	data []byte
}

//
func (m *MemorySource) Open() (io.ReadCloser, error) {
	_, comp := SplitNameCompressor(m.name)
	return NewReader(io.NopCloser(bytes.NewReader(m.data)), comp)
}

//
func (m *MemorySource) Name() string {
	return m.name
}
