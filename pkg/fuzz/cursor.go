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

package fuzz

import (
	"math/rand"
	"sync"
	"time"
)

//
const hexDigits = "0123456789ABCDEF"

// Source is the random number source used for UID generation. Implementations
// need not be cryptographically strong.
type Source interface {
	Intn(n int) int
}

// NewSource returns a time seeded source that is safe for concurrent use.
func NewSource() Source {
	return &lockedSource{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

//
type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

//
func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// RandomUID generates byteLen random bytes as hex digits. A non-empty prefix
// replaces the leading digits, e.g. to keep a manufacturer code.
func RandomUID(src Source, byteLen int, prefix string) string {

	ret := make([]byte, 2*byteLen)
	for ix := range ret {
		ret[ix] = hexDigits[src.Intn(16)]
	}
	copy(ret, prefix)

	return string(ret)
}

// Cursor tracks the position of a fuzzing run within the curated list.
type Cursor struct {
	Index  int
	Random bool
}

// Reset starts a new fuzzing run.
func (c *Cursor) Reset() {
	c.Index = 0
	c.Random = false
}

// ToggleRandom switches between curated and random mode. Leaving random mode
// restarts the curated list.
func (c *Cursor) ToggleRandom() {
	c.Random = !c.Random
	if !c.Random {
		c.Index = 0
	}
}

// Next returns the next UID of the run. Curated entries are handed out in
// order. Once the list wraps, the cursor switches to random mode for good.
// Byte lengths without a list go random immediately.
func (c *Cursor) Next(src Source, byteLen int, prefix string) string {

	if c.Random {
		return RandomUID(src, byteLen, prefix)
	}

	l, ok := lists[byteLen]
	if !ok || len(l) == 0 {
		return RandomUID(src, byteLen, prefix)
	}

	if c.Index < 0 || c.Index >= len(l) {
		c.Index = 0
	}

	ret := l[c.Index]
	c.Index = (c.Index + 1) % len(l)
	if c.Index == 0 {
		c.Random = true
	}

	return ret
}
