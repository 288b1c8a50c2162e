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

package profile

import (
	"fmt"
	"strings"

	"github.com/xelalexv/advuid/pkg/uid"
)

// Tech identifies a tag technology.
type Tech int

//
const (
	MifareClassic Tech = iota
	MifareUltralight
	NTAG213
	NTAG215
	NTAG216
	FeliCa
	ISO15693
	techCount
)

// Profile holds the constants of a tag technology. Profiles are immutable.
type Profile struct {
	Tech       Tech
	Name       string
	ByteLen    int
	DefaultUID string
	Offset     int
	Length     int
	ATQA       uint16
	SAK        byte
	// Prefix is forced onto randomly generated UIDs, may be empty
	Prefix string
	frame  Frame
}

//
var profiles = [techCount]Profile{
	{
		Tech: MifareClassic, Name: "Mifare Classic 1K", ByteLen: 4,
		DefaultUID: "DEADBEEF", Offset: 4, Length: 4,
		ATQA: 0x0004, SAK: 0x08,
		frame: classicFrame{typ: Classic1K},
	},
	{
		Tech: MifareUltralight, Name: "Mifare Ultralight", ByteLen: 7,
		DefaultUID: "04123456789ABC", Offset: 10, Length: 4,
		ATQA: 0x0044, SAK: 0x00, Prefix: "04",
		frame: ultralightFrame{typ: UltralightUL11},
	},
	{
		Tech: NTAG213, Name: "NTAG213", ByteLen: 7,
		DefaultUID: "04E10CDA993C80", Offset: 10, Length: 4,
		ATQA: 0x0044, SAK: 0x00, Prefix: "04",
		frame: ultralightFrame{typ: UltralightNTAG213},
	},
	{
		Tech: NTAG215, Name: "NTAG215", ByteLen: 7,
		DefaultUID: "04E10CDA993C81", Offset: 10, Length: 4,
		ATQA: 0x0044, SAK: 0x00, Prefix: "04",
		frame: ultralightFrame{typ: UltralightNTAG215},
	},
	{
		Tech: NTAG216, Name: "NTAG216", ByteLen: 7,
		DefaultUID: "04E10CDA993C82", Offset: 10, Length: 4,
		ATQA: 0x0044, SAK: 0x00, Prefix: "04",
		frame: ultralightFrame{typ: UltralightNTAG216},
	},
	{
		Tech: FeliCa, Name: "FeliCa", ByteLen: 8,
		DefaultUID: "0123456789ABCDEF", Offset: 12, Length: 4,
		ATQA: 0x0344, SAK: 0x20,
		frame: iso14443aFrame{},
	},
	{
		Tech: ISO15693, Name: "ISO15693", ByteLen: 8,
		DefaultUID: "E007000000123456", Offset: 12, Length: 4,
		ATQA: 0x0044, SAK: 0x00, Prefix: "E0",
		frame: iso14443aFrame{},
	},
}

// For returns the profile of technology t. Unknown technologies fall back to
// Mifare Classic.
func For(t Tech) Profile {
	if t < 0 || t >= techCount {
		return profiles[MifareClassic]
	}
	return profiles[t]
}

// All returns all profiles in menu order.
func All() []Profile {
	ret := make([]Profile, techCount)
	copy(ret, profiles[:])
	return ret
}

//
func Count() int {
	return int(techCount)
}

//
func (t Tech) String() string {
	return For(t).Name
}

// Key returns a short, lower case identifier for t, for use in URLs and on
// the command line.
func (t Tech) Key() string {
	switch t {
	case MifareClassic:
		return "classic"
	case MifareUltralight:
		return "ultralight"
	case NTAG213:
		return "ntag213"
	case NTAG215:
		return "ntag215"
	case NTAG216:
		return "ntag216"
	case FeliCa:
		return "felica"
	case ISO15693:
		return "iso15693"
	}
	return "unknown"
}

// ParseTech accepts either the key or the display name of a technology, case
// insensitive.
func ParseTech(name string) (Tech, error) {
	n := strings.TrimSpace(name)
	for t := Tech(0); t < techCount; t++ {
		if strings.EqualFold(n, t.Key()) || strings.EqualFold(n, t.String()) {
			return t, nil
		}
	}
	return MifareClassic, fmt.Errorf("unknown technology: '%s'", name)
}

// Frame returns the payload builder for this profile.
func (p Profile) Frame() Frame {
	return p.frame
}

// Build creates the listener payload for this profile and the given UID.
func (p Profile) Build(uid []byte) Payload {
	return p.frame.Build(uid, p)
}

// NewState creates a fresh UID state from the profile defaults.
func (p Profile) NewState() *uid.State {
	s, err := uid.NewState(p.DefaultUID, p.ByteLen, p.Offset, p.Length)
	if err != nil { // profile table is static
		panic(fmt.Sprintf("invalid profile '%s': %v", p.Name, err))
	}
	return s
}
