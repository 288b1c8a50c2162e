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

package uid

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// supported UID sizes in bytes
const (
	MinBytes = 4
	MaxBytes = 8
)

//
var ErrWindowOutOfBounds = errors.New("increment window out of bounds")

// Buffer holds a UID as a sequence of upper case hex digits. The number of
// digits is always twice the UID byte length.
type Buffer struct {
	digits []byte
}

//
func NewBuffer(s string, byteLen int) (*Buffer, error) {
	b := &Buffer{}
	if err := b.Set(s, byteLen); err != nil {
		return nil, err
	}
	return b, nil
}

// Set replaces the contents of this buffer. Lower case digits are accepted and
// normalized. The digit count has to match the byte length.
func (b *Buffer) Set(s string, byteLen int) error {

	if byteLen < MinBytes || byteLen > MaxBytes {
		return fmt.Errorf("unsupported UID length: %d bytes", byteLen)
	}

	if len(s) != 2*byteLen {
		return fmt.Errorf(
			"UID '%s' has %d digits, expected %d", s, len(s), 2*byteLen)
	}

	digits := make([]byte, len(s))
	for ix := 0; ix < len(s); ix++ {
		c := upper(s[ix])
		if !IsHexDigit(c) {
			return fmt.Errorf("invalid hex digit '%c' at position %d", s[ix], ix)
		}
		digits[ix] = c
	}

	b.digits = digits
	return nil
}

//
func (b *Buffer) String() string {
	return string(b.digits)
}

//
func (b *Buffer) Len() int {
	return len(b.digits)
}

//
func (b *Buffer) ByteLen() int {
	return len(b.digits) / 2
}

// Bytes decodes the digits into raw UID bytes.
func (b *Buffer) Bytes() []byte {
	ret, err := hex.DecodeString(string(b.digits))
	if err != nil { // digits are validated on every write
		panic(fmt.Sprintf("corrupted UID buffer '%s': %v", b.digits, err))
	}
	return ret
}

//
func (b *Buffer) Clone() *Buffer {
	d := make([]byte, len(b.digits))
	copy(d, b.digits)
	return &Buffer{digits: d}
}

// CheckWindow verifies that the window [offset, offset+length) lies within
// this buffer.
func (b *Buffer) CheckWindow(offset, length int) error {
	if offset < 0 || length < 1 || offset+length > len(b.digits) {
		return fmt.Errorf("%w: offset %d, length %d, %d digits",
			ErrWindowOutOfBounds, offset, length, len(b.digits))
	}
	return nil
}

//
func (b *Buffer) Window(offset, length int) (string, error) {
	if err := b.CheckWindow(offset, length); err != nil {
		return "", err
	}
	return string(b.digits[offset : offset+length]), nil
}

// Value returns the numeric value of the digits inside the window.
func (b *Buffer) Value(offset, length int) (uint64, error) {
	w, err := b.Window(offset, length)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(w, 16, 64)
}

// WriteWindow formats value as a zero padded hex number of exactly length
// digits and writes it into the window. Values not fitting into the window are
// truncated to their lowest digits. Returns the digits written.
func (b *Buffer) WriteWindow(offset, length int, value uint64) (string, error) {

	if err := b.CheckWindow(offset, length); err != nil {
		return "", err
	}

	s := fmt.Sprintf("%0*X", length, value)
	s = s[len(s)-length:]
	copy(b.digits[offset:], s)

	return s, nil
}

// NibbleUp increments the digit at position p, rolling over from F to 0.
// Neighboring digits are not affected.
func (b *Buffer) NibbleUp(p int) bool {
	return b.nibble(p, 1)
}

// NibbleDown decrements the digit at position p, rolling over from 0 to F.
func (b *Buffer) NibbleDown(p int) bool {
	return b.nibble(p, -1)
}

//
func (b *Buffer) nibble(p, delta int) bool {
	if p < 0 || p >= len(b.digits) {
		return false
	}
	v := strings.IndexByte(hexDigits, b.digits[p])
	b.digits[p] = hexDigits[(v+delta+16)%16]
	return true
}

//
const hexDigits = "0123456789ABCDEF"

// IsHexDigit reports whether c is one of [0-9A-Fa-f].
func IsHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('A' <= c && c <= 'F') ||
		('a' <= c && c <= 'f')
}

//
func upper(c byte) byte {
	if 'a' <= c && c <= 'f' {
		return c - 'a' + 'A'
	}
	return c
}
